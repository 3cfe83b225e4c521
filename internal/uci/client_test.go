package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hailam/losalamos/internal/board"
	"github.com/hailam/losalamos/internal/engine"
	"github.com/hailam/losalamos/internal/game"
	"github.com/hailam/losalamos/internal/rules"
)

var _ game.Engine = (*Session)(nil)

// TestHelperProcess is not a real test. It is re-executed by the tests below
// to stand in for an engine binary.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("UCI_WANT_HELPER_PROCESS") != "1" {
		return
	}
	mode := os.Getenv("UCI_HELPER_MODE")
	if mode == "reference" {
		srv := NewServer(engine.NewEngine(1<<12), os.Stdout, nil)
		srv.Run(os.Stdin)
		os.Exit(0)
	}

	in := bufio.NewScanner(os.Stdin)
	for in.Scan() {
		fields := strings.Fields(in.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "uci":
			fmt.Println("id name Helper")
			fmt.Println("uciok")
		case "isready":
			switch mode {
			case "silent":
			case "exit":
				os.Exit(3)
			default:
				fmt.Println("readyok")
			}
		case "go":
			switch mode {
			case "none":
				fmt.Println("bestmove (none)")
			case "slow", "silent":
			default:
				fmt.Println("info depth 1 score cp 10 pv b2b3")
				fmt.Println("bestmove b2b3 ponder c5c4")
			}
		case "stop":
			if mode == "slow" {
				fmt.Println("bestmove c2c3")
			}
		case "quit":
			os.Exit(0)
		}
	}
	os.Exit(0)
}

func startHelper(t *testing.T, mode string, moveTime time.Duration) *Session {
	t.Helper()
	s, err := Start(context.Background(), Config{
		Path:        os.Args[0],
		Args:        []string{"-test.run=TestHelperProcess"},
		Env:         []string{"UCI_WANT_HELPER_PROCESS=1", "UCI_HELPER_MODE=" + mode},
		MoveTime:    moveTime,
		ReadTimeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("Start(%s): %v", mode, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := startHelper(t, "normal", 50*time.Millisecond)

	if s.State() != Uninitialized {
		t.Errorf("state after start = %v, want uninitialized", s.State())
	}
	if _, err := s.RequestBestMove(ctx); !errors.Is(err, ErrProtocol) {
		t.Errorf("best move before new game: got %v, want ErrProtocol", err)
	}
	if err := s.NewGame(ctx, board.StartFEN); err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if err := s.SetStrength(ctx, 1350); err != nil {
		t.Fatalf("SetStrength: %v", err)
	}
	if s.Elo() != 1350 {
		t.Errorf("Elo() = %d, want 1350", s.Elo())
	}
	if !s.IsReady(ctx) {
		t.Fatal("IsReady = false")
	}
	move, err := s.RequestBestMove(ctx)
	if err != nil {
		t.Fatalf("RequestBestMove: %v", err)
	}
	if move != "b2b3" {
		t.Errorf("move = %q, want b2b3", move)
	}
	if s.State() != Ready {
		t.Errorf("state after move = %v, want ready", s.State())
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if s.State() != Terminated {
		t.Errorf("state after close = %v", s.State())
	}
	if err := s.SyncPosition(ctx, board.StartFEN); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("sync after close: got %v, want ErrSessionClosed", err)
	}
}

func TestSetStrengthRange(t *testing.T) {
	s := startHelper(t, "normal", 50*time.Millisecond)
	for _, elo := range []int{0, engine.MinElo - 1, engine.MaxElo + 1} {
		if err := s.SetStrength(context.Background(), elo); !errors.Is(err, ErrInvalidElo) {
			t.Errorf("SetStrength(%d) = %v, want ErrInvalidElo", elo, err)
		}
	}
	if s.Elo() != 0 {
		t.Errorf("Elo() = %d after rejected values", s.Elo())
	}
}

func TestSessionUnresponsive(t *testing.T) {
	ctx := context.Background()
	s, err := Start(ctx, Config{
		Path:        os.Args[0],
		Args:        []string{"-test.run=TestHelperProcess"},
		Env:         []string{"UCI_WANT_HELPER_PROCESS=1", "UCI_HELPER_MODE=silent"},
		ReadTimeout: 200 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Close()

	if s.IsReady(ctx) {
		t.Fatal("silent engine reported ready")
	}
	if s.State() != Terminated {
		t.Errorf("state = %v, want terminated", s.State())
	}
	if err := s.NewGame(ctx, board.StartFEN); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("NewGame after timeout: got %v, want ErrSessionClosed", err)
	}
}

func TestSessionEngineExit(t *testing.T) {
	ctx := context.Background()
	s := startHelper(t, "exit", 50*time.Millisecond)
	if s.IsReady(ctx) {
		t.Fatal("exited engine reported ready")
	}
	if _, err := s.RequestBestMove(ctx); err == nil {
		t.Fatal("RequestBestMove succeeded on dead engine")
	}
}

func TestSessionNoMove(t *testing.T) {
	ctx := context.Background()
	s := startHelper(t, "none", 50*time.Millisecond)
	if err := s.NewGame(ctx, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RequestBestMove(ctx); !errors.Is(err, ErrNoBestMove) {
		t.Errorf("got %v, want ErrNoBestMove", err)
	}
	if !s.IsReady(ctx) {
		t.Error("session unusable after a (none) reply")
	}
}

func TestSessionCancelledSearch(t *testing.T) {
	s := startHelper(t, "slow", 10*time.Second)
	if err := s.NewGame(context.Background(), board.StartFEN); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := s.RequestBestMove(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want deadline exceeded", err)
	}
	// The late bestmove must have been consumed, not left for the next reader.
	if !s.IsReady(context.Background()) {
		t.Fatal("session not ready after cancelled search")
	}
	if s.State() != Ready {
		t.Errorf("state = %v, want ready", s.State())
	}
}

func TestStartMissingBinary(t *testing.T) {
	_, err := Start(context.Background(), Config{Path: "/nonexistent/fairy-stockfish"})
	var opErr *OpError
	if !errors.As(err, &opErr) || opErr.Op != "start" {
		t.Fatalf("got %v, want start OpError", err)
	}
	if _, err := Start(context.Background(), Config{}); err == nil {
		t.Fatal("Start with empty path succeeded")
	}
}

func TestSessionAgainstBuiltinEngine(t *testing.T) {
	ctx := context.Background()
	s := startHelper(t, "reference", 100*time.Millisecond)

	if err := s.NewGame(ctx, board.StartFEN); err != nil {
		t.Fatal(err)
	}
	if err := s.SetStrength(ctx, 900); err != nil {
		t.Fatal(err)
	}
	if !s.IsReady(ctx) {
		t.Fatal("builtin engine not ready")
	}

	pos := rules.NewStartPosition()
	for ply := 0; ply < 4; ply++ {
		if err := s.SyncPosition(ctx, pos.FEN()); err != nil {
			t.Fatal(err)
		}
		lan, err := s.RequestBestMove(ctx)
		if err != nil {
			t.Fatalf("ply %d: %v", ply, err)
		}
		if err := pos.PlayLAN(lan); err != nil {
			t.Fatalf("ply %d: engine played %q: %v", ply, lan, err)
		}
	}
}

func TestParseBestMove(t *testing.T) {
	tests := []struct {
		line, move, ponder string
		err                error
	}{
		{"bestmove b2b3", "b2b3", "", nil},
		{"bestmove a5a6q ponder b6a6", "a5a6q", "b6a6", nil},
		{"bestmove E2E3", "e2e3", "", nil},
		{"bestmove (none)", "", "", ErrNoBestMove},
		{"bestmove 0000", "", "", ErrNoBestMove},
		{"bestmove", "", "", ErrProtocol},
		{"info depth 3", "", "", ErrProtocol},
		{"bestmove g1g2", "", "", ErrProtocol},
		{"bestmove a5a6b", "", "", ErrProtocol},
	}
	for _, tt := range tests {
		move, ponder, err := ParseBestMove(tt.line)
		if !errors.Is(err, tt.err) {
			t.Errorf("ParseBestMove(%q) error = %v, want %v", tt.line, err, tt.err)
			continue
		}
		if move != tt.move || ponder != tt.ponder {
			t.Errorf("ParseBestMove(%q) = %q, %q; want %q, %q", tt.line, move, ponder, tt.move, tt.ponder)
		}
	}
}

func TestSessionConcurrentCallers(t *testing.T) {
	ctx := context.Background()
	s := startHelper(t, "normal", 50*time.Millisecond)
	if err := s.NewGame(ctx, board.StartFEN); err != nil {
		t.Fatalf("NewGame: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				if !s.IsReady(ctx) {
					errs <- fmt.Errorf("caller %d: IsReady = false", i)
				}
				return
			}
			if err := s.SyncPosition(ctx, board.StartFEN); err != nil {
				errs <- fmt.Errorf("caller %d: SyncPosition: %w", i, err)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	move, err := s.RequestBestMove(ctx)
	if err != nil {
		t.Fatalf("RequestBestMove: %v", err)
	}
	if move != "b2b3" {
		t.Errorf("move = %q, want b2b3", move)
	}
}
