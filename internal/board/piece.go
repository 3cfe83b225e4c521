package board

// Color represents the color of a piece or player.
type Color uint8

const (
	White Color = iota
	Black
	NoColor Color = 2
)

// Other returns the opposite color.
func (c Color) Other() Color {
	return c ^ 1
}

// String returns the color name.
func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "NoColor"
	}
}

// FENChar returns the side-to-move letter used in FEN.
func (c Color) FENChar() byte {
	if c == Black {
		return 'b'
	}
	return 'w'
}

// PieceType is the tag of a Piece. The zero value marks an empty slot.
// There are no bishops in this variant.
type PieceType uint8

const (
	NoPieceType PieceType = iota
	Pawn
	Knight
	Rook
	Queen
	King
)

// String returns the piece type name.
func (pt PieceType) String() string {
	switch pt {
	case Pawn:
		return "Pawn"
	case Knight:
		return "Knight"
	case Rook:
		return "Rook"
	case Queen:
		return "Queen"
	case King:
		return "King"
	default:
		return "None"
	}
}

// Char returns the lowercase FEN letter for the piece type.
func (pt PieceType) Char() byte {
	switch pt {
	case Pawn:
		return 'p'
	case Knight:
		return 'n'
	case Rook:
		return 'r'
	case Queen:
		return 'q'
	case King:
		return 'k'
	default:
		return ' '
	}
}

// PieceTypeFromChar maps a FEN letter of either case to a piece type.
func PieceTypeFromChar(c byte) (PieceType, bool) {
	switch c | 0x20 {
	case 'p':
		return Pawn, true
	case 'n':
		return Knight, true
	case 'r':
		return Rook, true
	case 'q':
		return Queen, true
	case 'k':
		return King, true
	default:
		return NoPieceType, false
	}
}

// IsPromotion reports whether a pawn may promote to pt.
func (pt PieceType) IsPromotion() bool {
	return pt == Knight || pt == Rook || pt == Queen
}

// Edge flags are derived from a piece's square so move generators can skip
// branches that would leave the board.
type Edge uint8

const (
	EdgeLeft Edge = 1 << iota
	EdgeRight
	EdgeBottom
	EdgeTop
)

func edgesOf(sq Square) Edge {
	var e Edge
	if sq.File() == 0 {
		e |= EdgeLeft
	}
	if sq.File() == NumFiles-1 {
		e |= EdgeRight
	}
	if sq.Rank() == 0 {
		e |= EdgeBottom
	}
	if sq.Rank() == NumRanks-1 {
		e |= EdgeTop
	}
	return e
}

// Piece is a tagged value held by a Grid slot. It never refers back to the
// grid that owns it.
type Piece struct {
	Type   PieceType
	Color  Color
	Square Square
	edges  Edge
}

// NewPiece creates a piece standing on sq.
func NewPiece(pt PieceType, c Color, sq Square) Piece {
	return Piece{Type: pt, Color: c, Square: sq, edges: edgesOf(sq)}
}

// PieceFromChar converts a FEN letter to a piece standing on sq.
// Uppercase letters are White.
func PieceFromChar(c byte, sq Square) (Piece, bool) {
	pt, ok := PieceTypeFromChar(c)
	if !ok {
		return Piece{}, false
	}
	color := Black
	if c >= 'A' && c <= 'Z' {
		color = White
	}
	return NewPiece(pt, color, sq), true
}

// Empty reports whether p is the zero piece.
func (p Piece) Empty() bool {
	return p.Type == NoPieceType
}

// On reports whether the piece touches the given board edge.
func (p Piece) On(e Edge) bool {
	return p.edges&e != 0
}

// Edges returns all edge flags of the piece.
func (p Piece) Edges() Edge {
	return p.edges
}

func (p *Piece) relocate(sq Square) {
	p.Square = sq
	p.edges = edgesOf(sq)
}

// Char returns the FEN letter: uppercase for White, lowercase for Black.
func (p Piece) Char() byte {
	c := p.Type.Char()
	if p.Color == White && c != ' ' {
		return c - 0x20
	}
	return c
}

// String returns the FEN letter of the piece.
func (p Piece) String() string {
	if p.Empty() {
		return " "
	}
	return string(p.Char())
}
