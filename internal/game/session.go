package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hailam/losalamos/internal/board"
	"github.com/hailam/losalamos/internal/storage"
)

// Engine is the part of an engine session a game needs.
type Engine interface {
	NewGame(ctx context.Context, startFEN string) error
	SetStrength(ctx context.Context, elo int) error
	SyncPosition(ctx context.Context, fen string) error
	IsReady(ctx context.Context) bool
	RequestBestMove(ctx context.Context) (string, error)
	Elo() int
	Close() error
}

// EngineName is recorded as the opponent in saved games.
const EngineName = "Fairy-Stockfish"

// Session owns one Position and one Engine for the lifetime of a game.
type Session struct {
	ID      uuid.UUID
	Started time.Time

	mu     sync.Mutex
	pos    *Position
	engine Engine
	log    *zap.SugaredLogger
	result Result

	userCaptured   []board.Piece
	engineCaptured []board.Piece
}

// NewSession pairs a position with an engine. The engine is not contacted
// until Start.
func NewSession(pos *Position, eng Engine, log *zap.SugaredLogger) *Session {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	id := uuid.New()
	return &Session{
		ID:      id,
		Started: time.Now(),
		pos:     pos,
		engine:  eng,
		log:     log.With("game", id.String()),
		result:  Result{Winner: board.NoColor},
	}
}

// Start resets the engine, applies the strength limit and checks that the
// engine answers. A game must not begin with an engine that is not ready.
func (s *Session) Start(ctx context.Context, elo int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.NewGame(ctx, s.pos.StartFEN()); err != nil {
		return fmt.Errorf("engine new game: %w", err)
	}
	if err := s.engine.SetStrength(ctx, elo); err != nil {
		return fmt.Errorf("engine strength: %w", err)
	}
	if !s.engine.IsReady(ctx) {
		return ErrEngineNotReady
	}
	if len(s.pos.History()) > 0 {
		if err := s.engine.SyncPosition(ctx, s.pos.FEN()); err != nil {
			return fmt.Errorf("engine sync: %w", err)
		}
	}
	s.result = s.pos.EvaluateEnd()
	s.log.Infow("game started", "elo", elo, "user_side", s.pos.UserSide(), "fen", s.pos.FEN())
	return nil
}

// View runs fn with the position while holding the session lock.
func (s *Session) View(fn func(p *Position)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.pos)
}

// Result returns the last evaluated result.
func (s *Session) Result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Captures returns the pieces taken so far by the user and by the engine, in
// the order they were taken.
func (s *Session) Captures() (user, engine []board.Piece) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]board.Piece(nil), s.userCaptured...), append([]board.Piece(nil), s.engineCaptured...)
}

// ApplyMove plays a human move and pushes the new position to the engine.
func (s *Session) ApplyMove(ctx context.Context, from, to board.Square, promo board.PieceType) (board.Piece, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result.Over() {
		return board.Piece{}, false, ErrGameOver
	}
	if s.pos.SideToMove() != s.pos.UserSide() {
		return board.Piece{}, false, ErrNotYourTurn
	}
	captured, ok, err := s.pos.ApplyMove(from, to, promo)
	if err != nil {
		return board.Piece{}, false, err
	}
	if ok {
		s.userCaptured = append(s.userCaptured, captured)
	}
	if err := s.afterMove(ctx, "user"); err != nil {
		return captured, ok, err
	}
	return captured, ok, nil
}

// RequestEngineMove asks the engine for its move and plays it. The move is
// returned in absolute long-algebraic form.
func (s *Session) RequestEngineMove(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result.Over() {
		return "", ErrGameOver
	}
	if s.pos.SideToMove() == s.pos.UserSide() {
		return "", ErrNotYourTurn
	}
	lan, err := s.engine.RequestBestMove(ctx)
	if err != nil {
		return "", err
	}
	captured, ok, err := s.pos.ApplyLAN(lan)
	if err != nil {
		s.log.Errorw("engine move rejected", "move", lan, "fen", s.pos.FEN(), "error", err)
		return "", fmt.Errorf("engine move %q: %w", lan, err)
	}
	if ok {
		s.engineCaptured = append(s.engineCaptured, captured)
	}
	if err := s.afterMove(ctx, "engine"); err != nil {
		return lan, err
	}
	return lan, nil
}

func (s *Session) afterMove(ctx context.Context, by string) error {
	history := s.pos.History()
	s.log.Debugw("move", "by", by, "move", history[len(history)-1], "fen", s.pos.FEN())
	s.result = s.pos.EvaluateEnd()
	if s.result.Over() {
		s.log.Infow("game over", "result", s.result.String(), "moves", len(history))
	}
	if err := s.engine.SyncPosition(ctx, s.pos.FEN()); err != nil {
		return fmt.Errorf("engine sync: %w", err)
	}
	return nil
}

// Record builds the archive entry for the game played so far.
func (s *Session) Record(username string) storage.GameRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	white, black := username, EngineName
	if s.pos.UserSide() == board.Black {
		white, black = EngineName, username
	}
	rec := storage.GameRecord{
		ID:        s.ID.String(),
		User:      username,
		Played:    s.Started,
		EngineElo: s.engine.Elo(),
		White:     white,
		Black:     black,
		Variant:   s.pos.Variant(),
		StartFEN:  s.pos.StartFEN(),
		Moves:     s.pos.History(),
		Reason:    s.result.Reason(),
	}
	switch {
	case !s.result.Over():
		rec.Result = storage.ResultUnfinished
	case s.result.Draw():
		rec.Result = storage.ResultDraw
	case s.result.Winner == board.White:
		rec.Result = storage.ResultWhiteWins
	default:
		rec.Result = storage.ResultBlackWins
	}
	return rec
}

// Close shuts down the engine.
func (s *Session) Close() error {
	return s.engine.Close()
}
