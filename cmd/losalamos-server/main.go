// Command losalamos-server serves Los Alamos games over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hailam/losalamos/internal/book"
	"github.com/hailam/losalamos/internal/config"
	"github.com/hailam/losalamos/internal/engine"
	"github.com/hailam/losalamos/internal/game"
	"github.com/hailam/losalamos/internal/logging"
	"github.com/hailam/losalamos/internal/rules"
	"github.com/hailam/losalamos/internal/server"
	"github.com/hailam/losalamos/internal/storage"
	"github.com/hailam/losalamos/internal/uci"
)

var (
	configPath = flag.String("config", "", "path to a configuration file")
	builtin    = flag.Bool("builtin", false, "use the in-process engine instead of engine_path")
)

func main() {
	flag.Parse()
	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Must("info").Fatalw("failed to load configuration", "error", err)
	}
	log := logging.Must(cfg.LogLevel)
	defer log.Sync()

	store, err := storage.Open(cfg.DataDir, log)
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	defer store.Close()

	oracle, err := rules.NewCached(rules.Native{}, 1<<14)
	if err != nil {
		log.Fatalw("failed to create rules cache", "error", err)
	}
	defer oracle.Close()

	games := server.NewManager(engineFactory(cfg, log), oracle, store, log)
	defer games.CloseAll()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.New(games, cfg.Elo, cfg.Username, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server listening", "addr", cfg.HTTPAddr, "engine", cfg.EnginePath, "builtin", *builtin)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("server failed", "error", err)
		}
	case <-ctx.Done():
		log.Info("received shutdown signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorw("graceful shutdown", "error", err)
		}
	}
	log.Infow("server stopped", "hit_rate", oracle.HitRate())
}

func engineFactory(cfg *config.Config, log *zap.SugaredLogger) server.EngineFactory {
	if *builtin {
		var b *book.Book
		if cfg.BookPath != "" {
			var err error
			if b, err = book.Load(cfg.BookPath); err != nil {
				log.Fatalw("failed to load opening book", "path", cfg.BookPath, "error", err)
			}
		}
		return func(context.Context) (game.Engine, error) {
			p := engine.NewPlayer(cfg.MoveTime())
			p.UseBook(b)
			return p, nil
		}
	}
	return func(ctx context.Context) (game.Engine, error) {
		s, err := uci.Start(ctx, uci.Config{
			Path:        cfg.EnginePath,
			Args:        cfg.EngineArgs,
			Variant:     cfg.Variant,
			MoveTime:    cfg.MoveTime(),
			ReadTimeout: cfg.ReadTimeout,
			Logger:      log,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
