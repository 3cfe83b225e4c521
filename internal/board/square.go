// Package board implements the 6x6 board model: pieces, squares, the grid
// arena, board orientation, FEN and long-algebraic move notation.
package board

import (
	"errors"
	"fmt"
)

const (
	NumFiles   = 6
	NumRanks   = 6
	NumSquares = NumFiles * NumRanks
)

// ErrInvalidCoordinate is returned whenever a file or rank falls outside [0,5].
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Square is an index into the 36-slot grid: rank*6 + file.
// File 0 and rank 0 are the bottom-left corner of the grid.
type Square uint8

// NoSquare marks the absence of a square.
const NoSquare Square = NumSquares

// InBounds reports whether file and rank both lie in [0,5].
func InBounds(file, rank int) bool {
	return file >= 0 && file < NumFiles && rank >= 0 && rank < NumRanks
}

// NewSquare creates a square from file and rank (0-indexed).
func NewSquare(file, rank int) (Square, error) {
	if !InBounds(file, rank) {
		return NoSquare, fmt.Errorf("%w: file %d rank %d", ErrInvalidCoordinate, file, rank)
	}
	return Square(rank*NumFiles + file), nil
}

// MustSquare is NewSquare for constant coordinates. It panics when out of range.
func MustSquare(file, rank int) Square {
	sq, err := NewSquare(file, rank)
	if err != nil {
		panic(err)
	}
	return sq
}

// File returns the file (column) of the square.
func (sq Square) File() int {
	return int(sq) % NumFiles
}

// Rank returns the rank (row) of the square.
func (sq Square) Rank() int {
	return int(sq) / NumFiles
}

// Valid reports whether the square lies on the board.
func (sq Square) Valid() bool {
	return sq < NoSquare
}

// Offset returns the square df files and dr ranks away, if it is on the board.
func (sq Square) Offset(df, dr int) (Square, bool) {
	f, r := sq.File()+df, sq.Rank()+dr
	if !InBounds(f, r) {
		return NoSquare, false
	}
	return Square(r*NumFiles + f), true
}

// FlipPerspective reflects a square through the board centre:
// (f, r) becomes (5-f, 5-r).
func FlipPerspective(sq Square) Square {
	if !sq.Valid() {
		return NoSquare
	}
	return NumSquares - 1 - sq
}

// String returns the grid coordinates as "(file,rank)".
func (sq Square) String() string {
	if !sq.Valid() {
		return "-"
	}
	return fmt.Sprintf("(%d,%d)", sq.File(), sq.Rank())
}
