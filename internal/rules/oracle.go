package rules

import (
	"errors"
	"fmt"

	"github.com/hailam/losalamos/internal/board"
)

var (
	ErrIllegalMove    = errors.New("illegal move")
	ErrUnknownVariant = errors.New("unknown variant")
	ErrMalformedState = errors.New("malformed oracle state")
)

// OracleError is returned by every Oracle failure.
type OracleError struct {
	Op  string
	Err error
}

func (e *OracleError) Error() string {
	return "rules oracle " + e.Op + ": " + e.Err.Error()
}

func (e *OracleError) Unwrap() error {
	return e.Err
}

// State is the oracle's answer for a replayed move list. LegalMoves holds
// canonical long-algebraic strings in absolute orientation.
type State struct {
	FEN                  string
	SideToMove           board.Color
	LegalMoves           []string
	InCheck              bool
	InsufficientMaterial bool
}

// Validate checks that the state is well formed: the FEN decodes, its side
// to move agrees, and every legal move parses.
func (s *State) Validate() error {
	if s == nil {
		return &OracleError{Op: "validate", Err: ErrMalformedState}
	}
	setup, err := board.DecodeFEN(s.FEN, board.WhiteAtBottom)
	if err != nil {
		return &OracleError{Op: "validate", Err: fmt.Errorf("%w: %v", ErrMalformedState, err)}
	}
	if setup.SideToMove != s.SideToMove {
		return &OracleError{Op: "validate", Err: fmt.Errorf("%w: side to move mismatch", ErrMalformedState)}
	}
	for _, lan := range s.LegalMoves {
		if _, err := board.ParseMove(lan, board.WhiteAtBottom); err != nil {
			return &OracleError{Op: "validate", Err: fmt.Errorf("%w: %v", ErrMalformedState, err)}
		}
	}
	return nil
}

// Has reports whether lan is one of the legal moves.
func (s *State) Has(lan string) bool {
	lan = board.CanonicalLAN(lan)
	for _, m := range s.LegalMoves {
		if m == lan {
			return true
		}
	}
	return false
}

func (s *State) clone() *State {
	c := *s
	c.LegalMoves = append([]string(nil), s.LegalMoves...)
	return &c
}

// Oracle evaluates a move list from a start FEN. Implementations must behave
// as pure functions of their arguments.
type Oracle interface {
	Evaluate(variant, startFEN string, moves []string) (*State, error)
}

// Native is the in-process oracle.
type Native struct{}

// Evaluate replays moves from startFEN.
func (Native) Evaluate(variant, startFEN string, moves []string) (*State, error) {
	if variant != Variant {
		return nil, &OracleError{Op: "evaluate", Err: fmt.Errorf("%w: %q", ErrUnknownVariant, variant)}
	}
	pos, err := NewPosition(startFEN)
	if err != nil {
		return nil, &OracleError{Op: "evaluate", Err: err}
	}
	for i, lan := range moves {
		if err := pos.PlayLAN(lan); err != nil {
			return nil, &OracleError{Op: "evaluate", Err: fmt.Errorf("move %d %q: %w", i+1, lan, err)}
		}
	}
	return pos.State(), nil
}
