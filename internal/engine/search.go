package engine

import (
	"sort"
	"time"

	"github.com/hailam/losalamos/internal/board"
	"github.com/hailam/losalamos/internal/rules"
)

const (
	MaxPly    = 12
	MateScore = 30000
	Infinity  = 32000
)

func (e *Engine) stopped() bool {
	if e.timeUp || e.stopFlag.Load() {
		return true
	}
	if !e.deadline.IsZero() && e.nodes&255 == 0 && time.Now().After(e.deadline) {
		e.timeUp = true
		return true
	}
	return false
}

// searchRoot runs one iteration. It reports false when the iteration was
// interrupted and its result must be discarded.
func (e *Engine) searchRoot(pos *rules.Position, moves []board.Move, prevBest board.Move, depth int) (board.Move, int, bool) {
	ordered := e.order(pos, moves, prevBest)
	alpha, beta := -Infinity, Infinity
	best := ordered[0]
	for _, m := range ordered {
		child := pos.Copy()
		child.MakeMove(m)
		score := -e.negamax(child, depth-1, 1, -beta, -alpha)
		if e.timeUp || e.stopFlag.Load() {
			return board.Move{}, 0, false
		}
		if score > alpha {
			alpha = score
			best = m
		}
	}
	e.tt.Store(pos.Key(), best, alpha, depth, TTExact)
	return best, alpha, true
}

func (e *Engine) negamax(pos *rules.Position, depth, ply, alpha, beta int) int {
	e.nodes++
	if e.stopped() {
		return 0
	}

	moves := pos.LegalMoves()
	if len(moves) == 0 {
		if pos.InCheck() {
			return -MateScore + ply
		}
		return 0
	}
	if pos.InsufficientMaterial() || pos.HalfMoveClock() >= 100 {
		return 0
	}
	if depth <= 0 || ply >= MaxPly {
		return Evaluate(pos)
	}

	key := pos.Key()
	var ttMove board.Move
	if entry, ok := e.tt.Probe(key); ok {
		ttMove = entry.BestMove
		if entry.Depth >= depth {
			switch {
			case entry.Flag == TTExact:
				return entry.Score
			case entry.Flag == TTLowerBound && entry.Score >= beta:
				return entry.Score
			case entry.Flag == TTUpperBound && entry.Score <= alpha:
				return entry.Score
			}
		}
	}

	origAlpha := alpha
	best := moves[0]
	for _, m := range e.order(pos, moves, ttMove) {
		child := pos.Copy()
		child.MakeMove(m)
		score := -e.negamax(child, depth-1, ply+1, -beta, -alpha)
		if e.timeUp || e.stopFlag.Load() {
			return 0
		}
		if score > alpha {
			alpha = score
			best = m
		}
		if alpha >= beta {
			break
		}
	}

	flag := TTExact
	switch {
	case alpha <= origAlpha:
		flag = TTUpperBound
	case alpha >= beta:
		flag = TTLowerBound
	}
	e.tt.Store(key, best, alpha, depth, flag)
	return alpha
}

// order puts the hash move first, then captures by most valuable victim and
// least valuable attacker, then promotions.
func (e *Engine) order(pos *rules.Position, moves []board.Move, hashMove board.Move) []board.Move {
	scored := make([]struct {
		m     board.Move
		score int
	}, len(moves))
	for i, m := range moves {
		s := 0
		if m == hashMove {
			s = 1 << 20
		}
		if victim, ok := pos.At(m.To); ok {
			attacker, _ := pos.At(m.From)
			s += 10*pieceValues[victim.Type] - pieceValues[attacker.Type]/10
		}
		if m.Promotion != board.NoPieceType {
			s += pieceValues[m.Promotion]
		}
		scored[i].m, scored[i].score = m, s
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	out := make([]board.Move, len(moves))
	for i := range scored {
		out[i] = scored[i].m
	}
	return out
}

// principalVariation follows hash moves from the root.
func (e *Engine) principalVariation(pos *rules.Position, first board.Move, depth int) []board.Move {
	pv := []board.Move{first}
	cur := pos.Copy()
	cur.MakeMove(first)
	for len(pv) < depth {
		entry, ok := e.tt.Probe(cur.Key())
		if !ok || !contains(cur.LegalMoves(), entry.BestMove) {
			break
		}
		pv = append(pv, entry.BestMove)
		cur.MakeMove(entry.BestMove)
	}
	return pv
}

func contains(moves []board.Move, m board.Move) bool {
	for _, x := range moves {
		if x == m {
			return true
		}
	}
	return false
}
