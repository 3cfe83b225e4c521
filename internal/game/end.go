package game

import "github.com/hailam/losalamos/internal/board"

// Outcome classifies a position.
type Outcome uint8

const (
	Ongoing Outcome = iota
	Checkmate
	Stalemate
	InsufficientMaterial
)

func (o Outcome) String() string {
	switch o {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case InsufficientMaterial:
		return "insufficient material"
	default:
		return "ongoing"
	}
}

// Result is the outcome plus the winner. Winner is NoColor unless the
// outcome is checkmate.
type Result struct {
	Outcome Outcome
	Winner  board.Color
}

// Over reports whether the game has ended.
func (r Result) Over() bool {
	return r.Outcome != Ongoing
}

// Draw reports whether the game ended without a winner.
func (r Result) Draw() bool {
	return r.Outcome == Stalemate || r.Outcome == InsufficientMaterial
}

// Reason is the human-readable end reason, e.g. "by checkmate".
func (r Result) Reason() string {
	if !r.Over() {
		return ""
	}
	return "by " + r.Outcome.String()
}

func (r Result) String() string {
	switch {
	case !r.Over():
		return "Ongoing"
	case r.Draw():
		return "Draw " + r.Reason()
	default:
		return r.Winner.String() + " wins " + r.Reason()
	}
}

// EvaluateEnd classifies the current position. Insufficient material is
// checked first, then a side to move without legal moves is mated when in
// check and stalemated otherwise.
func (p *Position) EvaluateEnd() Result {
	if p.state.InsufficientMaterial {
		return Result{Outcome: InsufficientMaterial, Winner: board.NoColor}
	}
	if p.LegalMoveCount() > 0 {
		return Result{Outcome: Ongoing, Winner: board.NoColor}
	}
	if p.state.InCheck {
		return Result{Outcome: Checkmate, Winner: p.SideToMove().Other()}
	}
	return Result{Outcome: Stalemate, Winner: board.NoColor}
}
