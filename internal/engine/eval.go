// Package engine implements a small alpha-beta search for Los Alamos chess.
package engine

import (
	"github.com/hailam/losalamos/internal/board"
	"github.com/hailam/losalamos/internal/rules"
)

// Evaluation constants
const (
	PawnValue   = 100
	KnightValue = 300
	RookValue   = 500
	QueenValue  = 900
	KingValue   = 20000
)

var pieceValues = [6]int{0, PawnValue, KnightValue, RookValue, QueenValue, KingValue}

// Pawn advancement bonus by ranks travelled from the start rank.
var pawnAdvance = [6]int{0, 0, 10, 25, 50, 0}

// Knights and kings prefer the centre in the middlegame.
var centre = [board.NumSquares]int{
	-20, -10, -5, -5, -10, -20,
	-10, 0, 5, 5, 0, -10,
	-5, 5, 10, 10, 5, -5,
	-5, 5, 10, 10, 5, -5,
	-10, 0, 5, 5, 0, -10,
	-20, -10, -5, -5, -10, -20,
}

// Evaluate scores pos from the side to move's point of view.
func Evaluate(pos *rules.Position) int {
	if pos.InsufficientMaterial() {
		return 0
	}
	score := 0
	for _, c := range []board.Color{board.White, board.Black} {
		sign := 1
		if c != pos.SideToMove() {
			sign = -1
		}
		for _, pc := range pos.Pieces(c) {
			v := pieceValues[pc.Type]
			switch pc.Type {
			case board.Pawn:
				travelled := pc.Square.Rank() - 1
				if c == board.Black {
					travelled = board.NumRanks - 2 - pc.Square.Rank()
				}
				if travelled >= 0 && travelled < len(pawnAdvance) {
					v += pawnAdvance[travelled]
				}
			case board.Knight:
				v += centre[pc.Square]
			}
			score += sign * v
		}
	}
	return score
}
