package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the Los Alamos starting position.
const StartFEN = "rnqknr/pppppp/6/6/PPPPPP/RNQKNR w - - 0 1"

// ErrInvalidFEN is returned for FEN strings that cannot describe a 6x6 position.
var ErrInvalidFEN = errors.New("invalid FEN")

// Setup is a decoded FEN: the grid plus the scalar fields. Castling and
// en passant fields are accepted syntactically and ignored.
type Setup struct {
	Grid       *Grid
	SideToMove Color
	HalfMove   int
	FullMove   int
}

// DecodeFEN parses a FEN string into a grid viewed with orientation o.
func DecodeFEN(fen string, o Orientation) (*Setup, error) {
	parts := strings.Fields(fen)
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 fields, got %d", ErrInvalidFEN, len(parts))
	}

	grid, err := DecodePlacement(parts[0], o)
	if err != nil {
		return nil, err
	}

	s := &Setup{Grid: grid, FullMove: 1}
	switch parts[1] {
	case "w":
		s.SideToMove = White
	case "b":
		s.SideToMove = Black
	default:
		return nil, fmt.Errorf("%w: side to move %q", ErrInvalidFEN, parts[1])
	}

	if len(parts) > 4 {
		hmc, err := strconv.Atoi(parts[4])
		if err != nil || hmc < 0 {
			return nil, fmt.Errorf("%w: half-move clock %q", ErrInvalidFEN, parts[4])
		}
		s.HalfMove = hmc
	}
	if len(parts) > 5 {
		fmn, err := strconv.Atoi(parts[5])
		if err != nil || fmn < 1 {
			return nil, fmt.Errorf("%w: full-move number %q", ErrInvalidFEN, parts[5])
		}
		s.FullMove = fmn
	}
	return s, nil
}

// DecodePlacement parses the FEN piece-placement field. Ranks are listed
// from rank 6 down to rank 1 in absolute terms; o decides where they land
// in the grid.
func DecodePlacement(placement string, o Orientation) (*Grid, error) {
	ranks := strings.Split(placement, "/")
	if len(ranks) != NumRanks {
		return nil, fmt.Errorf("%w: need %d ranks, got %d", ErrInvalidFEN, NumRanks, len(ranks))
	}

	g := NewGrid(o)
	for i, row := range ranks {
		rank := NumRanks - 1 - i
		file := 0
		for j := 0; j < len(row); j++ {
			c := row[j]
			if c >= '1' && c <= '9' {
				file += int(c - '0')
				continue
			}
			if file >= NumFiles {
				return nil, fmt.Errorf("%w: rank %d overflows", ErrInvalidFEN, rank+1)
			}
			sq := o.absolute(Square(rank*NumFiles + file))
			p, ok := PieceFromChar(c, sq)
			if !ok {
				return nil, fmt.Errorf("%w: bad piece %q", ErrInvalidFEN, c)
			}
			g.squares[sq] = p
			file++
		}
		if file != NumFiles {
			return nil, fmt.Errorf("%w: rank %d has %d files", ErrInvalidFEN, rank+1, file)
		}
	}
	return g, nil
}

// EncodeFEN writes a full FEN string for the setup.
func EncodeFEN(s *Setup) string {
	full := s.FullMove
	if full < 1 {
		full = 1
	}
	return fmt.Sprintf("%s %c - - %d %d", s.Grid.Placement(), s.SideToMove.FENChar(), s.HalfMove, full)
}
