package movegen

import "github.com/hailam/losalamos/internal/board"

var diagonal = [][2]int{{1, 1}, {1, -1}, {-1, -1}, {-1, 1}}

// Queen is the union of the rook rays and the four diagonal rays.
func Queen(p board.Piece, v View) []board.Square {
	return append(rays(p, v, orthogonal), rays(p, v, diagonal)...)
}
