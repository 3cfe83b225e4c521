// Package game ties the board, the move generator and the rules oracle into
// a playable position, and drives an engine through a game session.
package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hailam/losalamos/internal/board"
	"github.com/hailam/losalamos/internal/rules"
)

var (
	ErrNoPiece        = errors.New("no piece on square")
	ErrDesync         = errors.New("grid disagrees with oracle position")
	ErrGameOver       = errors.New("game is over")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrEngineNotReady = errors.New("engine not ready")
)

// Options configure a new Position. Zero values select the variant start
// position, White at the bottom, and the native oracle.
type Options struct {
	Variant  string
	StartFEN string
	UserSide board.Color
	Oracle   rules.Oracle
}

// Position is the live game position seen from the user's side. The grid is
// held in view coordinates; history holds absolute long-algebraic moves and
// the current FEN always comes from replaying it through the oracle.
type Position struct {
	variant  string
	startFEN string
	userSide board.Color
	orient   board.Orientation
	oracle   rules.Oracle

	grid    *board.Grid
	history []string
	state   *rules.State
}

// NewPosition creates a position at the start FEN.
func NewPosition(opts Options) (*Position, error) {
	if opts.Variant == "" {
		opts.Variant = rules.Variant
	}
	if opts.StartFEN == "" {
		opts.StartFEN = board.StartFEN
	}
	if opts.Oracle == nil {
		opts.Oracle = rules.Native{}
	}
	if opts.UserSide != board.Black {
		opts.UserSide = board.White
	}
	p := &Position{
		variant:  opts.Variant,
		startFEN: opts.StartFEN,
		userSide: opts.UserSide,
		orient:   board.OrientationFor(opts.UserSide),
		oracle:   opts.Oracle,
	}
	if err := p.NewGame(); err != nil {
		return nil, err
	}
	return p, nil
}

// NewGame resets to the start FEN and clears the history.
func (p *Position) NewGame() error {
	st, err := p.evaluate(nil)
	if err != nil {
		return err
	}
	grid, err := board.DecodePlacement(placement(st.FEN), p.orient)
	if err != nil {
		return &rules.OracleError{Op: "decode", Err: err}
	}
	p.grid = grid
	p.history = nil
	p.state = st
	return nil
}

func (p *Position) evaluate(moves []string) (*rules.State, error) {
	st, err := p.oracle.Evaluate(p.variant, p.startFEN, moves)
	if err != nil {
		return nil, err
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}
	return st, nil
}

func placement(fen string) string {
	field, _, _ := strings.Cut(strings.TrimSpace(fen), " ")
	return field
}

// Variant returns the variant identifier.
func (p *Position) Variant() string { return p.variant }

// StartFEN returns the immutable start position.
func (p *Position) StartFEN() string { return p.startFEN }

// FEN returns the current position as computed by the oracle.
func (p *Position) FEN() string { return p.state.FEN }

// SideToMove returns the color to move.
func (p *Position) SideToMove() board.Color { return p.state.SideToMove }

// UserSide returns the color the human controls.
func (p *Position) UserSide() board.Color { return p.userSide }

// Orientation returns the grid orientation.
func (p *Position) Orientation() board.Orientation { return p.orient }

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool { return p.state.InCheck }

// History returns a copy of the move list in long-algebraic form.
func (p *Position) History() []string {
	return append([]string(nil), p.history...)
}

// Grid returns a copy of the live grid.
func (p *Position) Grid() *board.Grid {
	return p.grid.Clone()
}

// SquareAt returns the piece at (file, rank) in view coordinates.
func (p *Position) SquareAt(file, rank int) (board.Piece, bool, error) {
	return p.grid.PieceAt(file, rank)
}

// ApplyMove plays from -> to for the side to move. A pawn reaching the far
// rank without an explicit promotion becomes a queen. The captured piece is
// returned when there is one.
func (p *Position) ApplyMove(from, to board.Square, promo board.PieceType) (board.Piece, bool, error) {
	if !from.Valid() || !to.Valid() {
		return board.Piece{}, false, fmt.Errorf("%w: %v -> %v", board.ErrInvalidCoordinate, from, to)
	}
	pc, ok := p.grid.At(from)
	if !ok {
		return board.Piece{}, false, fmt.Errorf("%w: %v", ErrNoPiece, from)
	}
	if pc.Type == board.Pawn && to.Rank() == p.farRank(pc.Color) {
		if promo == board.NoPieceType {
			promo = board.Queen
		}
	} else {
		promo = board.NoPieceType
	}

	lan, err := board.FormatMove(board.Move{From: from, To: to, Promotion: promo}, p.orient)
	if err != nil {
		return board.Piece{}, false, err
	}
	moves := append(p.History(), lan)
	st, err := p.evaluate(moves)
	if err != nil {
		return board.Piece{}, false, err
	}

	next := p.grid.Clone()
	captured, took, err := next.Move(from, to)
	if err != nil {
		return board.Piece{}, false, err
	}
	if promo != board.NoPieceType {
		if err := next.Promote(to, promo); err != nil {
			return board.Piece{}, false, err
		}
	}
	decoded, err := board.DecodePlacement(placement(st.FEN), p.orient)
	if err != nil {
		return board.Piece{}, false, &rules.OracleError{Op: "decode", Err: err}
	}
	if !decoded.Equal(next) {
		return board.Piece{}, false, &rules.OracleError{Op: "apply", Err: fmt.Errorf("%w after %s", ErrDesync, lan)}
	}

	p.grid = next
	p.history = moves
	p.state = st
	return captured, took, nil
}

// ApplyLAN plays a move given in absolute long-algebraic notation, as
// returned by an engine.
func (p *Position) ApplyLAN(lan string) (board.Piece, bool, error) {
	m, err := board.ParseMove(board.CanonicalLAN(lan), p.orient)
	if err != nil {
		return board.Piece{}, false, err
	}
	return p.ApplyMove(m.From, m.To, m.Promotion)
}

// farRank is the view rank where pawns of color c promote.
func (p *Position) farRank(c board.Color) int {
	if c == p.orient.Bottom() {
		return board.NumRanks - 1
	}
	return 0
}

// String renders the board from the user's side.
func (p *Position) String() string {
	return p.grid.String()
}
