// Package server exposes game sessions over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hailam/losalamos/internal/board"
	"github.com/hailam/losalamos/internal/game"
	"github.com/hailam/losalamos/internal/rules"
	"github.com/hailam/losalamos/internal/storage"
)

var ErrUnknownGame = errors.New("unknown game")

// EngineFactory starts a fresh engine for one game.
type EngineFactory func(ctx context.Context) (game.Engine, error)

// NewGameRequest describes a game to create.
type NewGameRequest struct {
	UserSide board.Color
	Elo      int
	StartFEN string
	Username string
}

// Manager tracks the live sessions. Finished or abandoned games are archived
// to the store on close when one is configured.
type Manager struct {
	mu    sync.RWMutex
	games map[uuid.UUID]*entry

	newEngine EngineFactory
	oracle    rules.Oracle
	store     *storage.Storage
	log       *zap.SugaredLogger
}

type entry struct {
	session  *game.Session
	username string
}

func NewManager(newEngine EngineFactory, oracle rules.Oracle, store *storage.Storage, log *zap.SugaredLogger) *Manager {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if oracle == nil {
		oracle = rules.Native{}
	}
	return &Manager{
		games:     make(map[uuid.UUID]*entry),
		newEngine: newEngine,
		oracle:    oracle,
		store:     store,
		log:       log,
	}
}

// Create starts an engine, sets up the position and registers the session.
func (m *Manager) Create(ctx context.Context, req NewGameRequest) (*game.Session, error) {
	pos, err := game.NewPosition(game.Options{
		StartFEN: req.StartFEN,
		UserSide: req.UserSide,
		Oracle:   m.oracle,
	})
	if err != nil {
		return nil, err
	}
	eng, err := m.newEngine(ctx)
	if err != nil {
		return nil, fmt.Errorf("start engine: %w", err)
	}
	s := game.NewSession(pos, eng, m.log)
	if err := s.Start(ctx, req.Elo); err != nil {
		eng.Close()
		return nil, err
	}

	m.mu.Lock()
	m.games[s.ID] = &entry{session: s, username: req.Username}
	m.mu.Unlock()
	m.log.Infow("session created", "game", s.ID, "user", req.Username, "active", m.Len())
	return s, nil
}

// Get returns the live session with the given ID.
func (m *Manager) Get(id string) (*game.Session, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownGame, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.games[uid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, id)
	}
	return e.session, nil
}

// Close removes the session, stops its engine and archives the game if any
// move was played.
func (m *Manager) Close(id string) (storage.GameRecord, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return storage.GameRecord{}, fmt.Errorf("%w: %v", ErrUnknownGame, err)
	}
	m.mu.Lock()
	e, ok := m.games[uid]
	delete(m.games, uid)
	m.mu.Unlock()
	if !ok {
		return storage.GameRecord{}, fmt.Errorf("%w: %s", ErrUnknownGame, id)
	}
	return m.finish(e)
}

func (m *Manager) finish(e *entry) (storage.GameRecord, error) {
	rec := e.session.Record(e.username)
	if err := e.session.Close(); err != nil {
		m.log.Warnw("engine close", "game", rec.ID, "error", err)
	}
	if m.store != nil && len(rec.Moves) > 0 {
		if err := m.store.RecordGame(rec); err != nil {
			return rec, fmt.Errorf("archive game: %w", err)
		}
	}
	return rec, nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}

// CloseAll closes every live session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	games := m.games
	m.games = make(map[uuid.UUID]*entry)
	m.mu.Unlock()

	for id, e := range games {
		if _, err := m.finish(e); err != nil {
			m.log.Errorw("close session", "game", id, "error", err)
		}
	}
}

// Store returns the archive, or nil when none is configured.
func (m *Manager) Store() *storage.Storage {
	return m.store
}
