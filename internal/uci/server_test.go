package uci

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/hailam/losalamos/internal/board"
	"github.com/hailam/losalamos/internal/book"
	"github.com/hailam/losalamos/internal/engine"
	"github.com/hailam/losalamos/internal/rules"
)

func runServer(t *testing.T, script ...string) (*Server, []string) {
	t.Helper()
	var out bytes.Buffer
	srv := NewServer(engine.NewEngine(1<<12), &out, nil)
	if err := srv.Run(strings.NewReader(strings.Join(script, "\n") + "\n")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return srv, strings.Split(strings.TrimSpace(out.String()), "\n")
}

func lastWithPrefix(lines []string, prefix string) string {
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.HasPrefix(lines[i], prefix) {
			return lines[i]
		}
	}
	return ""
}

func TestServerHandshake(t *testing.T) {
	_, lines := runServer(t, "uci", "isready")
	if lastWithPrefix(lines, "uciok") == "" {
		t.Errorf("no uciok in %q", lines)
	}
	if lastWithPrefix(lines, "option name UCI_Variant") == "" {
		t.Error("UCI_Variant option not advertised")
	}
	if lines[len(lines)-1] != "readyok" {
		t.Errorf("last line = %q, want readyok", lines[len(lines)-1])
	}
}

func TestServerPosition(t *testing.T) {
	tests := []struct {
		name   string
		cmd    string
		expect string
	}{
		{"startpos", "position startpos", rules.NewStartPosition().FEN()},
		{"startpos moves", "position startpos moves b2b3 c5c4", "rnqknr/pp1ppp/2p3/1P4/P1PPPP/RNQKNR w - - 0 2"},
		{"fen", "position fen 3k2/6/6/6/6/3K2 b - - 4 9", "3k2/6/6/6/6/3K2 b - - 4 9"},
		{"fen moves", "position fen 3k2/6/6/6/6/3K2 b - - 4 9 moves d6e6", "4k1/6/6/6/6/3K2 w - - 5 10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := runServer(t, tt.cmd)
			if got := srv.position.FEN(); got != tt.expect {
				t.Errorf("FEN = %q, want %q", got, tt.expect)
			}
		})
	}
}

func TestServerRejectsBadInput(t *testing.T) {
	srv, lines := runServer(t,
		"position startpos moves b2b3",
		"position startpos moves b2b5",
		"position fen 8/8/8/8/8/8/8/8 w - - 0 1",
		"setoption name UCI_Variant value chess",
		"setoption name UCI_Elo value 99999",
		"frobnicate",
	)
	if srv.position.SideToMove() != rules.NewStartPosition().SideToMove().Other() {
		t.Error("rejected commands changed the position")
	}
	for _, want := range []string{
		"info string invalid move b2b5",
		"info string invalid fen",
		"info string unsupported variant chess",
		"info string invalid UCI_Elo 99999",
		"info string unknown command: frobnicate",
	} {
		if lastWithPrefix(lines, want) == "" {
			t.Errorf("missing %q in %q", want, lines)
		}
	}
}

func TestServerGo(t *testing.T) {
	_, lines := runServer(t, "position startpos", "go depth 2")
	best := lastWithPrefix(lines, "bestmove")
	fields := strings.Fields(best)
	if len(fields) < 2 {
		t.Fatalf("no bestmove in %q", lines)
	}
	if err := rules.NewStartPosition().PlayLAN(fields[1]); err != nil {
		t.Errorf("bestmove %q is illegal: %v", fields[1], err)
	}
	if lastWithPrefix(lines, "info depth 1") == "" {
		t.Errorf("no search info in %q", lines)
	}
}

func TestServerGoMated(t *testing.T) {
	_, lines := runServer(t, "position fen R2k2/2ppp1/6/6/6/3K2 b - - 0 1", "go depth 3")
	if got := lastWithPrefix(lines, "bestmove"); got != "bestmove (none)" {
		t.Errorf("got %q, want bestmove (none)", got)
	}
}

func TestServerStrengthLimit(t *testing.T) {
	srv, _ := runServer(t,
		"setoption name UCI_LimitStrength value true",
		"setoption name UCI_Elo value 600",
	)
	limits := srv.calculateLimits(GoOptions{Depth: 10})
	if want := engine.DepthForElo(600); limits.Depth != want {
		t.Errorf("depth = %d, want %d", limits.Depth, want)
	}
	if limits.MoveTime != 0 {
		t.Errorf("movetime = %v with explicit depth", limits.MoveTime)
	}
}

func TestParseGoOptions(t *testing.T) {
	tests := []struct {
		args []string
		want GoOptions
	}{
		{nil, GoOptions{}},
		{[]string{"depth", "4"}, GoOptions{Depth: 4}},
		{[]string{"movetime", "250"}, GoOptions{MoveTime: 250 * time.Millisecond}},
		{[]string{"infinite"}, GoOptions{Infinite: true}},
		{[]string{"depth"}, GoOptions{}},
	}
	for _, tt := range tests {
		if got := parseGoOptions(tt.args); got != tt.want {
			t.Errorf("parseGoOptions(%v) = %+v, want %+v", tt.args, got, tt.want)
		}
	}
}

func TestServerPerft(t *testing.T) {
	_, lines := runServer(t, "position startpos", "perft 2")
	if got := lastWithPrefix(lines, "Nodes:"); got != "Nodes: 100" {
		t.Errorf("got %q, want Nodes: 100", got)
	}
}

func TestServerBookMove(t *testing.T) {
	b := book.New()
	b.Add(rules.NewStartPosition(), board.Move{From: board.MustSquare(0, 1), To: board.MustSquare(0, 2)}, 1)

	var out bytes.Buffer
	srv := NewServer(engine.NewEngine(1<<12), &out, nil)
	srv.SetBook(b)
	if err := srv.Run(strings.NewReader("position startpos\ngo movetime 5000\n")); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if got := lastWithPrefix(lines, "bestmove"); got != "bestmove a2a3" {
		t.Errorf("got %q, want bestmove a2a3", got)
	}
}

func TestServerStopAfterInfinite(t *testing.T) {
	for i := 0; i < 20; i++ {
		var out bytes.Buffer
		srv := NewServer(engine.NewEngine(1<<12), &out, nil)
		done := make(chan error, 1)
		go func() {
			done <- srv.Run(strings.NewReader("position startpos\ngo infinite\nstop\nquit\n"))
		}()
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("run %d: stop sent right after go infinite was lost", i)
		}
		if !strings.Contains(out.String(), "bestmove ") {
			t.Errorf("run %d: no bestmove in %q", i, out.String())
		}
	}
}

func TestServerPerftRejectsBadDepth(t *testing.T) {
	for _, arg := range []string{"-1", "0", "abc"} {
		t.Run(arg, func(t *testing.T) {
			_, lines := runServer(t, "position startpos", "perft "+arg)
			if got := lastWithPrefix(lines, "info string"); got != "info string invalid perft depth "+arg {
				t.Errorf("got %q", got)
			}
			if got := lastWithPrefix(lines, "Nodes:"); got != "" {
				t.Errorf("perft ran anyway: %q", got)
			}
		})
	}
}

func TestServerDisplayShowsEval(t *testing.T) {
	_, lines := runServer(t, "position startpos", "d")
	if got := lastWithPrefix(lines, "Eval: "); got == "" {
		t.Errorf("no Eval line in %q", lines)
	}
}
