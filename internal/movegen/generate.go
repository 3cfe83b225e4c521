// Package movegen generates pseudo-legal destinations for a single piece.
// It ignores king safety; callers filter the result through the rules oracle.
package movegen

import "github.com/hailam/losalamos/internal/board"

// View is the read-only board a generator inspects.
type View interface {
	At(sq board.Square) (board.Piece, bool)
	Bottom() board.Color
}

// PseudoLegal returns the pseudo-legal destinations of p on v.
func PseudoLegal(p board.Piece, v View) []board.Square {
	switch p.Type {
	case board.Pawn:
		return Pawn(p, v)
	case board.Knight:
		return Knight(p, v)
	case board.Rook:
		return Rook(p, v)
	case board.Queen:
		return Queen(p, v)
	case board.King:
		return King(p, v)
	default:
		return nil
	}
}

// CanMove reports whether p may land on sq: the square is empty or holds an
// enemy piece.
func CanMove(p board.Piece, v View, sq board.Square) bool {
	other, ok := v.At(sq)
	return !ok || other.Color != p.Color
}

// step describes a single jump and the edges that make it impossible.
type step struct {
	df, dr  int
	blocked board.Edge
}

func jumps(p board.Piece, v View, steps []step) []board.Square {
	var out []board.Square
	for _, s := range steps {
		if p.Edges()&s.blocked != 0 {
			continue
		}
		to, ok := p.Square.Offset(s.df, s.dr)
		if !ok {
			continue
		}
		if CanMove(p, v, to) {
			out = append(out, to)
		}
	}
	return out
}

// rays casts from p along each direction. A ray stops at the first occupied
// square and includes it only when it holds an enemy.
func rays(p board.Piece, v View, dirs [][2]int) []board.Square {
	var out []board.Square
	for _, d := range dirs {
		sq := p.Square
		for {
			next, ok := sq.Offset(d[0], d[1])
			if !ok {
				break
			}
			if other, occupied := v.At(next); occupied {
				if other.Color != p.Color {
					out = append(out, next)
				}
				break
			}
			out = append(out, next)
			sq = next
		}
	}
	return out
}
