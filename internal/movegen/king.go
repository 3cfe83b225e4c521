package movegen

import "github.com/hailam/losalamos/internal/board"

var kingSteps = []step{
	{0, 1, board.EdgeTop},
	{1, 1, board.EdgeRight | board.EdgeTop},
	{1, 0, board.EdgeRight},
	{1, -1, board.EdgeRight | board.EdgeBottom},
	{0, -1, board.EdgeBottom},
	{-1, -1, board.EdgeLeft | board.EdgeBottom},
	{-1, 0, board.EdgeLeft},
	{-1, 1, board.EdgeLeft | board.EdgeTop},
}

// King returns the adjacent squares p can step to. There is no castling.
func King(p board.Piece, v View) []board.Square {
	return jumps(p, v, kingSteps)
}
