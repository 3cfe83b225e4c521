package board

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMove is returned for malformed long-algebraic strings and for
// grid operations that have no piece to act on.
var ErrInvalidMove = errors.New("invalid move")

// Move is a value type in view coordinates. Promotion is NoPieceType unless
// the move is a pawn promotion.
type Move struct {
	From      Square
	To        Square
	Promotion PieceType
}

// FormatMove renders m in long-algebraic notation relative to the absolute
// board, e.g. "b4b5" or "b5b6q". The promotion letter is always lowercase.
func FormatMove(m Move, o Orientation) (string, error) {
	from, err := o.CoordsToAlgebraic(m.From)
	if err != nil {
		return "", err
	}
	to, err := o.CoordsToAlgebraic(m.To)
	if err != nil {
		return "", err
	}
	if m.Promotion != NoPieceType {
		if !m.Promotion.IsPromotion() {
			return "", fmt.Errorf("%w: promotion to %v", ErrInvalidMove, m.Promotion)
		}
		return from + to + string(m.Promotion.Char()), nil
	}
	return from + to, nil
}

// ParseMove parses a 4 or 5 character long-algebraic move into view
// coordinates. The promotion suffix is case-insensitive.
func ParseMove(s string, o Orientation) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidMove, s)
	}
	from, err := o.AlgebraicToCoords(s[0:2])
	if err != nil {
		return Move{}, fmt.Errorf("%w: %q: %v", ErrInvalidMove, s, err)
	}
	to, err := o.AlgebraicToCoords(s[2:4])
	if err != nil {
		return Move{}, fmt.Errorf("%w: %q: %v", ErrInvalidMove, s, err)
	}
	m := Move{From: from, To: to}
	if len(s) == 5 {
		pt, ok := PieceTypeFromChar(s[4])
		if !ok || !pt.IsPromotion() {
			return Move{}, fmt.Errorf("%w: promotion %q", ErrInvalidMove, s[4])
		}
		m.Promotion = pt
	}
	return m, nil
}

// CanonicalLAN lower-cases a long-algebraic string. Comparisons between
// generated and authoritative moves use this form.
func CanonicalLAN(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// String returns the move in absolute orientation.
func (m Move) String() string {
	s, err := FormatMove(m, WhiteAtBottom)
	if err != nil {
		return "0000"
	}
	return s
}
