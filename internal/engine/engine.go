package engine

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/hailam/losalamos/internal/board"
	"github.com/hailam/losalamos/internal/rules"
)

// SearchInfo contains information about the current search.
type SearchInfo struct {
	Depth int
	Score int
	Nodes uint64
	Time  time.Duration
	PV    []board.Move
}

// SearchLimits specifies constraints on the search.
type SearchLimits struct {
	Depth    int           // Maximum depth (0 = no limit)
	MoveTime time.Duration // Time for this move (0 = no limit)
}

// Strength bounds accepted through UCI_Elo.
const (
	MinElo = 500
	MaxElo = 2850
)

// DepthForElo maps a strength limit onto a maximum search depth.
func DepthForElo(elo int) int {
	if elo < MinElo {
		elo = MinElo
	}
	if elo > MaxElo {
		elo = MaxElo
	}
	return 1 + (elo-MinElo)*(MaxPly/2-1)/(MaxElo-MinElo)
}

// Engine is the Los Alamos search engine.
type Engine struct {
	tt       *TranspositionTable
	stopFlag atomic.Bool
	nodes    uint64
	deadline time.Time
	timeUp   bool // deadline passed; owned by the searching goroutine

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates an engine with a transposition table of ttEntries slots.
func NewEngine(ttEntries int) *Engine {
	return &Engine{tt: NewTranspositionTable(ttEntries)}
}

// SearchWithLimits finds the best move. It reports false when the side to
// move has no legal move. A pending Stop is honoured; callers clear it with
// ClearStop before starting the search.
func (e *Engine) SearchWithLimits(pos *rules.Position, limits SearchLimits) (board.Move, bool) {
	e.nodes = 0
	e.timeUp = false
	e.tt.NewSearch()

	startTime := time.Now()
	e.deadline = time.Time{}
	if limits.MoveTime > 0 {
		e.deadline = startTime.Add(limits.MoveTime)
	}

	rootMoves := pos.LegalMoves()
	if len(rootMoves) == 0 {
		return board.Move{}, false
	}
	bestMove := rootMoves[0]

	maxDepth := MaxPly
	if limits.Depth > 0 && limits.Depth < MaxPly {
		maxDepth = limits.Depth
	}

	// Iterative deepening
	for depth := 1; depth <= maxDepth; depth++ {
		move, score, ok := e.searchRoot(pos, rootMoves, bestMove, depth)
		if !ok {
			break
		}
		bestMove = move

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth: depth,
				Score: score,
				Nodes: e.nodes,
				Time:  time.Since(startTime),
				PV:    e.principalVariation(pos, move, depth),
			})
		}

		// Early termination: found mate
		if score > MateScore-100 || score < -MateScore+100 {
			break
		}

		if !e.deadline.IsZero() {
			elapsed := time.Since(startTime)
			// If we've used more than half the time, don't start another iteration
			if limits.MoveTime-elapsed < elapsed {
				break
			}
		}
	}

	return bestMove, true
}

// ClearStop re-arms the engine after a Stop. Call it before the search is
// started, never from inside the searching goroutine.
func (e *Engine) ClearStop() {
	e.stopFlag.Store(false)
}

// Stop stops the current search.
func (e *Engine) Stop() {
	e.stopFlag.Store(true)
}

// Clear clears the transposition table.
func (e *Engine) Clear() {
	e.tt.Clear()
}

// Nodes returns the node count of the last search.
func (e *Engine) Nodes() uint64 {
	return e.nodes
}

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(pos *rules.Position) int {
	return Evaluate(pos)
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	if score > MateScore-100 {
		return "Mate in " + strconv.Itoa((MateScore-score+1)/2)
	}
	if score < -MateScore+100 {
		return "Mated in " + strconv.Itoa((MateScore+score+1)/2)
	}

	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	cp := strconv.Itoa(score % 100)
	if len(cp) == 1 {
		cp = "0" + cp
	}
	return sign + strconv.Itoa(score/100) + "." + cp
}
