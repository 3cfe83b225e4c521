// Command losalamos plays Los Alamos chess against an engine in the terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hailam/losalamos/internal/board"
	"github.com/hailam/losalamos/internal/book"
	"github.com/hailam/losalamos/internal/config"
	"github.com/hailam/losalamos/internal/engine"
	"github.com/hailam/losalamos/internal/game"
	"github.com/hailam/losalamos/internal/logging"
	"github.com/hailam/losalamos/internal/rules"
	"github.com/hailam/losalamos/internal/storage"
	"github.com/hailam/losalamos/internal/uci"
)

var (
	configPath = flag.String("config", "", "path to a configuration file")
	builtin    = flag.Bool("builtin", false, "play against the in-process engine")
	side       = flag.String("side", "", "your side: white or black (overrides config)")
	elo        = flag.Int("elo", 0, "engine strength (overrides config)")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "losalamos:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *side != "" {
		cfg.UserSide = *side
	}
	if *elo != 0 {
		cfg.Elo = *elo
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := storage.Open(cfg.DataDir, log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	oracle, err := rules.NewCached(rules.Native{}, 1<<12)
	if err != nil {
		return err
	}
	defer oracle.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pos, err := game.NewPosition(game.Options{
		Variant:  cfg.Variant,
		StartFEN: cfg.StartFEN,
		UserSide: cfg.Side(),
		Oracle:   oracle,
	})
	if err != nil {
		return err
	}
	eng, err := startEngine(ctx, cfg, log)
	if err != nil {
		return err
	}
	session := game.NewSession(pos, eng, log)
	defer session.Close()

	if err := session.Start(ctx, cfg.Elo); err != nil {
		return err
	}

	t := &terminal{in: bufio.NewScanner(os.Stdin), out: os.Stdout, session: session}
	resigned := t.play(ctx)

	rec := session.Record(cfg.Username)
	if resigned {
		rec.Result = storage.ResultWhiteWins
		if cfg.Side() == board.White {
			rec.Result = storage.ResultBlackWins
		}
		rec.Reason = "by resignation"
	}
	return archive(store, cfg, rec, t.out)
}

func startEngine(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (game.Engine, error) {
	if *builtin {
		p, err := builtinPlayer(cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	s, err := uci.Start(ctx, uci.Config{
		Path:        cfg.EnginePath,
		Args:        cfg.EngineArgs,
		Variant:     cfg.Variant,
		MoveTime:    cfg.MoveTime(),
		ReadTimeout: cfg.ReadTimeout,
		Logger:      log,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (use -builtin to play the in-process engine)", err)
	}
	return s, nil
}

func builtinPlayer(cfg *config.Config) (*engine.Player, error) {
	p := engine.NewPlayer(cfg.MoveTime())
	if cfg.BookPath != "" {
		b, err := book.Load(cfg.BookPath)
		if err != nil {
			return nil, fmt.Errorf("opening book: %w", err)
		}
		p.UseBook(b)
	}
	return p, nil
}

func archive(store *storage.Storage, cfg *config.Config, rec storage.GameRecord, out io.Writer) error {
	if len(rec.Moves) == 0 {
		return nil
	}
	if err := store.RecordGame(rec); err != nil {
		return err
	}
	prefs, err := store.LoadPreferences()
	if err != nil {
		return err
	}
	prefs.Username = cfg.Username
	prefs.Elo = cfg.Elo
	prefs.MoveTimeMs = cfg.MoveTimeMs
	prefs.UserSide = strings.ToLower(cfg.Side().String())
	prefs.LastPlayed = time.Now()
	if err := store.SavePreferences(prefs); err != nil {
		return err
	}

	dir := filepath.Join(cfg.DataDir, "games")
	if cfg.DataDir == "" {
		if dir, err = storage.GetGamesDir(); err != nil {
			return err
		}
	}
	path, err := storage.ExportLog(dir, rec)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Game saved to %s\n", path)
	return nil
}

type terminal struct {
	in      *bufio.Scanner
	out     io.Writer
	session *game.Session
}

const help = `Commands:
  <move>        play a move, e.g. b2b3 or a5a6n
  moves <sq>    list legal destinations of the piece on <sq>
  board         show the board
  fen           show the current FEN
  history       show the moves played
  resign        give up the game
  quit          leave without a result`

// play runs the game loop. It reports whether the user resigned.
func (t *terminal) play(ctx context.Context) bool {
	t.show()
	for ctx.Err() == nil {
		if res := t.session.Result(); res.Over() {
			fmt.Fprintln(t.out, res)
			return false
		}

		var userTurn bool
		t.session.View(func(p *game.Position) { userTurn = p.SideToMove() == p.UserSide() })
		if !userTurn {
			fmt.Fprintln(t.out, "Engine is thinking...")
			_, before := t.session.Captures()
			lan, err := t.session.RequestEngineMove(ctx)
			if err != nil {
				fmt.Fprintln(t.out, "engine:", err)
				return false
			}
			if _, after := t.session.Captures(); len(after) > len(before) {
				took := after[len(after)-1]
				fmt.Fprintf(t.out, "Engine plays %s, capturing %s\n", lan, strings.ToLower(took.Type.String()))
			} else {
				fmt.Fprintf(t.out, "Engine plays %s\n", lan)
			}
			t.show()
			continue
		}

		fmt.Fprint(t.out, "> ")
		if !t.in.Scan() {
			return false
		}
		fields := strings.Fields(t.in.Text())
		if len(fields) == 0 {
			continue
		}
		switch strings.ToLower(fields[0]) {
		case "help", "?":
			fmt.Fprintln(t.out, help)
		case "board":
			t.show()
		case "fen":
			t.session.View(func(p *game.Position) { fmt.Fprintln(t.out, p.FEN()) })
		case "history":
			t.session.View(func(p *game.Position) { fmt.Fprintln(t.out, strings.Join(p.History(), " ")) })
		case "moves":
			if len(fields) < 2 {
				fmt.Fprintln(t.out, "usage: moves <square>")
				continue
			}
			t.destinations(fields[1])
		case "resign":
			fmt.Fprintln(t.out, "You resigned.")
			return true
		case "quit", "exit":
			return false
		default:
			t.move(ctx, strings.Join(fields, ""))
		}
	}
	return false
}

func (t *terminal) show() {
	t.session.View(func(p *game.Position) {
		fmt.Fprint(t.out, p)
		status := p.SideToMove().String() + " to move"
		if p.InCheck() {
			status += ", check"
		}
		fmt.Fprintln(t.out, status)
	})
}

func (t *terminal) destinations(name string) {
	t.session.View(func(p *game.Position) {
		sq, err := p.Orientation().AlgebraicToCoords(name)
		if err != nil {
			fmt.Fprintln(t.out, err)
			return
		}
		dests, err := p.LegalDestinations(sq)
		if err != nil {
			fmt.Fprintln(t.out, err)
			return
		}
		names := make([]string, 0, len(dests))
		for _, d := range dests {
			n, _ := p.Orientation().CoordsToAlgebraic(d)
			names = append(names, n)
		}
		if len(names) == 0 {
			fmt.Fprintln(t.out, "no legal moves")
			return
		}
		fmt.Fprintln(t.out, strings.Join(names, " "))
	})
}

func (t *terminal) move(ctx context.Context, text string) {
	var (
		m   board.Move
		err error
	)
	t.session.View(func(p *game.Position) {
		m, err = board.ParseMove(board.CanonicalLAN(text), p.Orientation())
	})
	if err != nil {
		fmt.Fprintln(t.out, "cannot read move:", err)
		return
	}
	captured, took, err := t.session.ApplyMove(ctx, m.From, m.To, m.Promotion)
	switch {
	case errors.Is(err, rules.ErrIllegalMove):
		fmt.Fprintln(t.out, "illegal move")
		return
	case err != nil:
		fmt.Fprintln(t.out, err)
		return
	}
	if took {
		fmt.Fprintf(t.out, "You captured %s\n", strings.ToLower(captured.Type.String()))
	}
	t.show()
}
