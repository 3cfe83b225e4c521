// Package rules is the authoritative Los Alamos rules oracle: it replays a
// move list from a start FEN and reports the resulting FEN, the legal moves,
// check, and insufficient material.
package rules

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/hailam/losalamos/internal/board"
)

// Variant is the identifier accepted by the oracle and sent to engines.
const Variant = "losalamos"

// Position is a position in absolute orientation (White at the bottom).
type Position struct {
	grid     *board.Grid
	side     board.Color
	halfMove int
	fullMove int
}

// NewPosition decodes fen. The position must have exactly one king per side
// and the side not to move must not be in check.
func NewPosition(fen string) (*Position, error) {
	s, err := board.DecodeFEN(fen, board.WhiteAtBottom)
	if err != nil {
		return nil, err
	}
	p := &Position{grid: s.Grid, side: s.SideToMove, halfMove: s.HalfMove, fullMove: s.FullMove}
	for _, c := range []board.Color{board.White, board.Black} {
		n := 0
		for _, pc := range p.grid.Pieces(c) {
			if pc.Type == board.King {
				n++
			}
		}
		if n != 1 {
			return nil, fmt.Errorf("%w: %v has %d kings", board.ErrInvalidFEN, c, n)
		}
	}
	for _, c := range []board.Color{board.White, board.Black} {
		for _, pc := range p.grid.Pieces(c) {
			if pc.Type == board.Pawn && (pc.Square.Rank() == 0 || pc.Square.Rank() == board.NumRanks-1) {
				return nil, fmt.Errorf("%w: pawn on back rank %v", board.ErrInvalidFEN, pc.Square)
			}
		}
	}
	if p.Attacked(p.KingSquare(p.side.Other()), p.side) {
		return nil, fmt.Errorf("%w: side not to move is in check", board.ErrInvalidFEN)
	}
	return p, nil
}

// NewStartPosition returns the variant start position.
func NewStartPosition() *Position {
	p, err := NewPosition(board.StartFEN)
	if err != nil {
		panic(err)
	}
	return p
}

// FEN encodes the position.
func (p *Position) FEN() string {
	return board.EncodeFEN(&board.Setup{
		Grid:       p.grid,
		SideToMove: p.side,
		HalfMove:   p.halfMove,
		FullMove:   p.fullMove,
	})
}

// SideToMove returns the color to move.
func (p *Position) SideToMove() board.Color {
	return p.side
}

// HalfMoveClock returns the number of plies since the last capture or pawn move.
func (p *Position) HalfMoveClock() int {
	return p.halfMove
}

// At returns the piece on an absolute square.
func (p *Position) At(sq board.Square) (board.Piece, bool) {
	return p.grid.At(sq)
}

// Pieces returns the pieces of color c.
func (p *Position) Pieces(c board.Color) []board.Piece {
	return p.grid.Pieces(c)
}

// Copy returns an independent copy.
func (p *Position) Copy() *Position {
	c := *p
	c.grid = p.grid.Clone()
	return &c
}

// KingSquare returns the square of c's king, or NoSquare.
func (p *Position) KingSquare(c board.Color) board.Square {
	for _, pc := range p.grid.Pieces(c) {
		if pc.Type == board.King {
			return pc.Square
		}
	}
	return board.NoSquare
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	return p.Attacked(p.KingSquare(p.side), p.side.Other())
}

// Play applies a legal move. Illegal moves leave the position untouched.
func (p *Position) Play(m board.Move) error {
	for _, lm := range p.LegalMoves() {
		if lm == m {
			p.apply(m)
			return nil
		}
	}
	return fmt.Errorf("%w: %v", ErrIllegalMove, m)
}

// PlayLAN parses and plays a long-algebraic move. A bare pawn move to the
// last rank promotes to a queen.
func (p *Position) PlayLAN(lan string) error {
	m, err := board.ParseMove(board.CanonicalLAN(lan), board.WhiteAtBottom)
	if err != nil {
		return err
	}
	if m.Promotion == board.NoPieceType && p.promotes(m) {
		m.Promotion = board.Queen
	}
	return p.Play(m)
}

func (p *Position) promotes(m board.Move) bool {
	pc, ok := p.grid.At(m.From)
	if !ok || pc.Type != board.Pawn {
		return false
	}
	return m.To.Rank() == lastRank(pc.Color)
}

func lastRank(c board.Color) int {
	if c == board.White {
		return board.NumRanks - 1
	}
	return 0
}

// MakeMove plays a move taken from LegalMoves without checking it again.
func (p *Position) MakeMove(m board.Move) {
	p.apply(m)
}

// Key hashes the placement and side to move. Clocks are ignored so that
// transpositions share a key.
func (p *Position) Key() uint64 {
	return xxhash.Sum64String(p.grid.Placement() + string(p.side.FENChar()))
}

// apply plays m without checking legality.
func (p *Position) apply(m board.Move) {
	pc, _ := p.grid.At(m.From)
	_, captured, _ := p.grid.Move(m.From, m.To)
	if m.Promotion != board.NoPieceType {
		_ = p.grid.Promote(m.To, m.Promotion)
	}
	if captured || pc.Type == board.Pawn {
		p.halfMove = 0
	} else {
		p.halfMove++
	}
	if p.side == board.Black {
		p.fullMove++
	}
	p.side = p.side.Other()
}

// HasMatingMaterial reports whether c could ever deliver mate: any pawn,
// rook or queen, or at least two knights.
func (p *Position) HasMatingMaterial(c board.Color) bool {
	knights := 0
	for _, pc := range p.grid.Pieces(c) {
		switch pc.Type {
		case board.Pawn, board.Rook, board.Queen:
			return true
		case board.Knight:
			knights++
		}
	}
	return knights >= 2
}

// InsufficientMaterial reports whether neither side can mate.
func (p *Position) InsufficientMaterial() bool {
	return !p.HasMatingMaterial(board.White) && !p.HasMatingMaterial(board.Black)
}

// State summarises the position for oracle callers.
func (p *Position) State() *State {
	moves := p.LegalMoves()
	lans := make([]string, 0, len(moves))
	for _, m := range moves {
		lans = append(lans, m.String())
	}
	return &State{
		FEN:                  p.FEN(),
		SideToMove:           p.side,
		LegalMoves:           lans,
		InCheck:              p.InCheck(),
		InsufficientMaterial: p.InsufficientMaterial(),
	}
}

// String renders the board with White at the bottom.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteString(p.grid.String())
	fmt.Fprintf(&sb, "\nFEN: %s\n", p.FEN())
	return sb.String()
}
