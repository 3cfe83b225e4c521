package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hailam/losalamos/internal/board"
	"github.com/hailam/losalamos/internal/book"
	"github.com/hailam/losalamos/internal/rules"
)

var (
	ErrNoMove     = errors.New("no legal move")
	ErrPlayerDone = errors.New("player closed")
)

// Player runs the built-in engine in process behind the same calls a game
// makes on an external engine session.
type Player struct {
	mu       sync.Mutex
	engine   *Engine
	book     *book.Book
	pos      *rules.Position
	elo      int
	moveTime time.Duration
	closed   bool
}

// NewPlayer returns a player searching for moveTime per move.
func NewPlayer(moveTime time.Duration) *Player {
	return &Player{
		engine:   NewEngine(1 << 16),
		pos:      rules.NewStartPosition(),
		moveTime: moveTime,
	}
}

// UseBook makes the player take moves from b while the game is in it.
func (p *Player) UseBook(b *book.Book) {
	p.mu.Lock()
	p.book = b
	p.mu.Unlock()
}

func (p *Player) NewGame(_ context.Context, startFEN string) error {
	if startFEN == "" {
		startFEN = board.StartFEN
	}
	return p.setPosition(startFEN, true)
}

func (p *Player) SetStrength(_ context.Context, elo int) error {
	if elo < MinElo || elo > MaxElo {
		return fmt.Errorf("elo %d not in [%d, %d]", elo, MinElo, MaxElo)
	}
	p.mu.Lock()
	p.elo = elo
	p.mu.Unlock()
	return nil
}

func (p *Player) SyncPosition(_ context.Context, fen string) error {
	return p.setPosition(fen, false)
}

func (p *Player) setPosition(fen string, clear bool) error {
	pos, err := rules.NewPosition(fen)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPlayerDone
	}
	if clear {
		p.engine.Clear()
	}
	p.pos = pos
	return nil
}

func (p *Player) IsReady(context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.closed
}

// RequestBestMove searches the synced position. Cancelling ctx stops the
// search early and the best move found so far is returned.
func (p *Player) RequestBestMove(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return "", ErrPlayerDone
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if m, ok := p.book.Probe(p.pos); ok {
		return m.String(), nil
	}

	limits := SearchLimits{MoveTime: p.moveTime}
	if p.elo > 0 {
		limits.Depth = DepthForElo(p.elo)
	}
	p.engine.ClearStop()
	stop := context.AfterFunc(ctx, p.engine.Stop)
	defer stop()

	move, ok := p.engine.SearchWithLimits(p.pos, limits)
	if !ok {
		return "", ErrNoMove
	}
	return move.String(), nil
}

func (p *Player) Elo() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.elo
}

func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
