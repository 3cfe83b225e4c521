package movegen

import "github.com/hailam/losalamos/internal/board"

var orthogonal = [][2]int{{0, 1}, {0, -1}, {-1, 0}, {1, 0}}

// Rook casts rays up, down, left and right.
func Rook(p board.Piece, v View) []board.Square {
	return rays(p, v, orthogonal)
}
