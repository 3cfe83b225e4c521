package movegen

import "github.com/hailam/losalamos/internal/board"

var knightSteps = []step{
	{1, 2, board.EdgeRight | board.EdgeTop},
	{2, 1, board.EdgeRight | board.EdgeTop},
	{2, -1, board.EdgeRight | board.EdgeBottom},
	{1, -2, board.EdgeRight | board.EdgeBottom},
	{-1, -2, board.EdgeLeft | board.EdgeBottom},
	{-2, -1, board.EdgeLeft | board.EdgeBottom},
	{-2, 1, board.EdgeLeft | board.EdgeTop},
	{-1, 2, board.EdgeLeft | board.EdgeTop},
}

// Knight returns the L-shaped jumps of p.
func Knight(p board.Piece, v View) []board.Square {
	return jumps(p, v, knightSteps)
}
