// Package config loads settings from an optional file and LOSALAMOS_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hailam/losalamos/internal/board"
	"github.com/hailam/losalamos/internal/engine"
	"github.com/hailam/losalamos/internal/rules"
)

// EnvPrefix is prepended to every environment override, e.g. LOSALAMOS_ELO.
const EnvPrefix = "LOSALAMOS"

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	EnginePath  string        `mapstructure:"engine_path"`
	EngineArgs  []string      `mapstructure:"engine_args"`
	BookPath    string        `mapstructure:"book_path"` // opening book for the built-in engine
	Variant     string        `mapstructure:"variant"`
	Elo         int           `mapstructure:"elo"`
	MoveTimeMs  int           `mapstructure:"move_time_ms"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	UserSide    string        `mapstructure:"user_side"`
	StartFEN    string        `mapstructure:"start_fen"`
	DataDir     string        `mapstructure:"data_dir"`
	HTTPAddr    string        `mapstructure:"http_addr"`
	LogLevel    string        `mapstructure:"log_level"`
	Username    string        `mapstructure:"username"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine_path", "fairy-stockfish")
	v.SetDefault("engine_args", []string{})
	v.SetDefault("book_path", "")
	v.SetDefault("variant", rules.Variant)
	v.SetDefault("elo", 1500)
	v.SetDefault("move_time_ms", 1000)
	v.SetDefault("read_timeout", "10s")
	v.SetDefault("user_side", "white")
	v.SetDefault("start_fen", board.StartFEN)
	v.SetDefault("data_dir", "")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("username", "player")
}

// Load reads the file at path, if any, and applies environment overrides on
// top of the defaults. With an empty path a losalamos.{yaml,json,toml} in the
// working directory is used when present.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("losalamos")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Elo < engine.MinElo || c.Elo > engine.MaxElo {
		return fmt.Errorf("%w: elo %d not in [%d, %d]", ErrInvalidConfig, c.Elo, engine.MinElo, engine.MaxElo)
	}
	if c.MoveTimeMs <= 0 {
		return fmt.Errorf("%w: move_time_ms must be positive", ErrInvalidConfig)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("%w: read_timeout must be positive", ErrInvalidConfig)
	}
	if _, err := ParseSide(c.UserSide); err != nil {
		return err
	}
	if c.Variant != rules.Variant {
		return fmt.Errorf("%w: %w %q", ErrInvalidConfig, rules.ErrUnknownVariant, c.Variant)
	}
	return nil
}

// Side returns the configured user color.
func (c *Config) Side() board.Color {
	side, _ := ParseSide(c.UserSide)
	return side
}

func (c *Config) MoveTime() time.Duration {
	return time.Duration(c.MoveTimeMs) * time.Millisecond
}

// ParseSide accepts "white"/"w" and "black"/"b" in any case.
func ParseSide(s string) (board.Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return board.White, nil
	case "black", "b":
		return board.Black, nil
	}
	return board.NoColor, fmt.Errorf("%w: user_side %q", ErrInvalidConfig, s)
}
