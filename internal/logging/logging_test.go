package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level   string
		enabled zapcore.Level
		ok      bool
	}{
		{"", zapcore.InfoLevel, true},
		{"debug", zapcore.DebugLevel, true},
		{"WARN", zapcore.WarnLevel, true},
		{"error", zapcore.ErrorLevel, true},
		{"chatty", 0, false},
	}
	for _, tt := range tests {
		log, err := New(tt.level)
		if (err == nil) != tt.ok {
			t.Errorf("New(%q) error = %v, want ok=%v", tt.level, err, tt.ok)
			continue
		}
		if !tt.ok {
			continue
		}
		core := log.Desugar().Core()
		if !core.Enabled(tt.enabled) {
			t.Errorf("New(%q): %v not enabled", tt.level, tt.enabled)
		}
		if tt.enabled > zapcore.DebugLevel && core.Enabled(tt.enabled-1) {
			t.Errorf("New(%q): %v unexpectedly enabled", tt.level, tt.enabled-1)
		}
	}
}
