package board

import (
	"fmt"
	"strings"
)

// Grid is the 36-slot arena of pieces, stored in view coordinates for its
// orientation. Slots hold piece values; an empty slot holds the zero Piece.
type Grid struct {
	squares [NumSquares]Piece
	orient  Orientation
}

// NewGrid returns an empty grid viewed with the given orientation.
func NewGrid(o Orientation) *Grid {
	return &Grid{orient: o}
}

// Orientation returns the grid's orientation.
func (g *Grid) Orientation() Orientation {
	return g.orient
}

// Bottom returns the color at the bottom of the grid.
func (g *Grid) Bottom() Color {
	return g.orient.Bottom()
}

// At returns the piece on sq. The boolean is false for empty or invalid squares.
func (g *Grid) At(sq Square) (Piece, bool) {
	if !sq.Valid() {
		return Piece{}, false
	}
	p := g.squares[sq]
	return p, !p.Empty()
}

// PieceAt is the bounds-checked file/rank accessor.
func (g *Grid) PieceAt(file, rank int) (Piece, bool, error) {
	sq, err := NewSquare(file, rank)
	if err != nil {
		return Piece{}, false, err
	}
	p, ok := g.At(sq)
	return p, ok, nil
}

// Place puts a piece of the given type and color on sq, replacing any occupant.
func (g *Grid) Place(pt PieceType, c Color, sq Square) error {
	if !sq.Valid() {
		return fmt.Errorf("%w: square %d", ErrInvalidCoordinate, sq)
	}
	g.squares[sq] = NewPiece(pt, c, sq)
	return nil
}

// Remove empties sq and returns what was there.
func (g *Grid) Remove(sq Square) (Piece, bool) {
	p, ok := g.At(sq)
	if ok {
		g.squares[sq] = Piece{}
	}
	return p, ok
}

// Move relocates the piece on from to to. Any occupant of to is removed and
// returned as the captured piece.
func (g *Grid) Move(from, to Square) (captured Piece, ok bool, err error) {
	if !from.Valid() || !to.Valid() {
		return Piece{}, false, fmt.Errorf("%w: %v -> %v", ErrInvalidCoordinate, from, to)
	}
	p, occupied := g.At(from)
	if !occupied {
		return Piece{}, false, fmt.Errorf("%w: no piece on %v", ErrInvalidMove, from)
	}
	captured, ok = g.Remove(to)
	g.squares[from] = Piece{}
	p.relocate(to)
	g.squares[to] = p
	return captured, ok, nil
}

// Promote replaces the piece on sq with a piece of type pt and the same color.
func (g *Grid) Promote(sq Square, pt PieceType) error {
	p, ok := g.At(sq)
	if !ok {
		return fmt.Errorf("%w: no piece on %v", ErrInvalidMove, sq)
	}
	if !pt.IsPromotion() {
		return fmt.Errorf("%w: cannot promote to %v", ErrInvalidMove, pt)
	}
	g.squares[sq] = NewPiece(pt, p.Color, sq)
	return nil
}

// Pieces returns every piece of color c, in square order.
func (g *Grid) Pieces(c Color) []Piece {
	var out []Piece
	for _, p := range g.squares {
		if !p.Empty() && p.Color == c {
			out = append(out, p)
		}
	}
	return out
}

// Clone returns an independent copy of the grid.
func (g *Grid) Clone() *Grid {
	c := *g
	return &c
}

// Equal reports whether both grids hold the same pieces on the same squares
// and share an orientation.
func (g *Grid) Equal(o *Grid) bool {
	if g.orient != o.orient {
		return false
	}
	for i := range g.squares {
		a, b := g.squares[i], o.squares[i]
		if a.Type != b.Type || (!a.Empty() && a.Color != b.Color) {
			return false
		}
	}
	return true
}

// Placement encodes the grid as the FEN piece-placement field, always in
// absolute orientation (rank 6 first).
func (g *Grid) Placement() string {
	var sb strings.Builder
	for rank := NumRanks - 1; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < NumFiles; file++ {
			p := g.squares[g.orient.absolute(Square(rank*NumFiles+file))]
			if p.Empty() {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(p.Char())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}

// String renders the grid as seen by the player at the bottom, with
// absolute file and rank labels.
func (g *Grid) String() string {
	var sb strings.Builder
	for rank := NumRanks - 1; rank >= 0; rank-- {
		label, _ := g.orient.CoordsToAlgebraic(Square(rank * NumFiles))
		sb.WriteByte(label[1])
		sb.WriteString(" |")
		for file := 0; file < NumFiles; file++ {
			p := g.squares[rank*NumFiles+file]
			if p.Empty() {
				sb.WriteString(" .")
			} else {
				sb.WriteByte(' ')
				sb.WriteByte(p.Char())
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  +------------\n   ")
	for file := 0; file < NumFiles; file++ {
		label, _ := g.orient.CoordsToAlgebraic(Square(file))
		sb.WriteByte(' ')
		sb.WriteByte(label[0])
	}
	sb.WriteByte('\n')
	return sb.String()
}
