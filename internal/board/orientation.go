package board

import (
	"fmt"
	"strings"
)

// Orientation says which color sits at the bottom of the grid. The grid is
// stored in view coordinates; the orientation is the only place where view
// squares and absolute board squares are translated into each other.
type Orientation uint8

const (
	WhiteAtBottom Orientation = iota
	BlackAtBottom
)

// OrientationFor returns the orientation that puts userSide at the bottom.
func OrientationFor(userSide Color) Orientation {
	if userSide == Black {
		return BlackAtBottom
	}
	return WhiteAtBottom
}

// Bottom returns the color whose back rank is grid rank 0.
func (o Orientation) Bottom() Color {
	if o == BlackAtBottom {
		return Black
	}
	return White
}

func (o Orientation) String() string {
	if o == BlackAtBottom {
		return "black-at-bottom"
	}
	return "white-at-bottom"
}

// absolute maps a view square to the absolute board square and back.
// The mapping is its own inverse.
func (o Orientation) absolute(sq Square) Square {
	if o == BlackAtBottom {
		return FlipPerspective(sq)
	}
	return sq
}

// CoordsToAlgebraic converts a view square to absolute algebraic notation,
// e.g. "b4".
func (o Orientation) CoordsToAlgebraic(sq Square) (string, error) {
	if !sq.Valid() {
		return "", fmt.Errorf("%w: square %d", ErrInvalidCoordinate, sq)
	}
	abs := o.absolute(sq)
	return string([]byte{byte('a' + abs.File()), byte('1' + abs.Rank())}), nil
}

// AlgebraicToCoords converts absolute algebraic notation to a view square.
func (o Orientation) AlgebraicToCoords(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidCoordinate, s)
	}
	s = strings.ToLower(s)
	sq, err := NewSquare(int(s[0])-'a', int(s[1])-'1')
	if err != nil {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidCoordinate, s)
	}
	return o.absolute(sq), nil
}
