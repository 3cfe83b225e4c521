package movegen

import "github.com/hailam/losalamos/internal/board"

// forward returns the rank direction a pawn of p's color advances in on v.
func forward(p board.Piece, v View) int {
	if p.Color == v.Bottom() {
		return 1
	}
	return -1
}

// Pawn moves one square forward onto an empty square, or one square
// diagonally forward onto an enemy. There is no double step and no en passant.
func Pawn(p board.Piece, v View) []board.Square {
	dir := forward(p, v)
	var out []board.Square
	if to, ok := p.Square.Offset(0, dir); ok {
		if _, occupied := v.At(to); !occupied {
			out = append(out, to)
		}
	}
	for _, df := range [2]int{-1, 1} {
		if (df < 0 && p.On(board.EdgeLeft)) || (df > 0 && p.On(board.EdgeRight)) {
			continue
		}
		to, ok := p.Square.Offset(df, dir)
		if !ok {
			continue
		}
		if other, occupied := v.At(to); occupied && other.Color != p.Color {
			out = append(out, to)
		}
	}
	return out
}
