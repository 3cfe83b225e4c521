package game

import (
	"fmt"

	"github.com/hailam/losalamos/internal/board"
	"github.com/hailam/losalamos/internal/movegen"
)

// LegalDestinations returns the squares the piece on sq may legally move
// to. Pseudo-legal candidates are kept only when the oracle lists a move
// with the same from/to squares; promotions collapse to one destination.
func (p *Position) LegalDestinations(sq board.Square) ([]board.Square, error) {
	if !sq.Valid() {
		return nil, fmt.Errorf("%w: square %d", board.ErrInvalidCoordinate, sq)
	}
	pc, ok := p.grid.At(sq)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNoPiece, sq)
	}

	legal := make(map[string]bool, len(p.state.LegalMoves))
	for _, lan := range p.state.LegalMoves {
		lan = board.CanonicalLAN(lan)
		if len(lan) >= 4 {
			legal[lan[:4]] = true
		}
	}

	var out []board.Square
	seen := make(map[board.Square]bool)
	for _, to := range movegen.PseudoLegal(pc, p.grid) {
		if seen[to] {
			continue
		}
		lan, err := board.FormatMove(board.Move{From: sq, To: to}, p.orient)
		if err != nil {
			return nil, err
		}
		if legal[lan] {
			seen[to] = true
			out = append(out, to)
		}
	}
	return out, nil
}

// LegalMoveCount returns the number of legal destinations summed over every
// piece of the side to move.
func (p *Position) LegalMoveCount() int {
	n := 0
	for _, pc := range p.grid.Pieces(p.SideToMove()) {
		dests, err := p.LegalDestinations(pc.Square)
		if err == nil {
			n += len(dests)
		}
	}
	return n
}
