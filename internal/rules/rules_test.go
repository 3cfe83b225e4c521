package rules

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/hailam/losalamos/internal/board"
)

func TestPerftStartingPosition(t *testing.T) {
	pos := NewStartPosition()
	tests := []struct {
		depth    int
		expected int64
	}{
		{1, 10},
		{2, 100},
	}
	for _, tc := range tests {
		if got := pos.Perft(tc.depth); got != tc.expected {
			t.Errorf("perft(%d) = %d, want %d", tc.depth, got, tc.expected)
		}
	}
}

func TestNewPositionErrors(t *testing.T) {
	tests := []string{
		"rnqnnr/pppppp/6/6/PPPPPP/RNQKNR w - - 0 1", // no black king
		"rnqknr/pppppp/6/6/PPPPPP/RNQKKR w - - 0 1", // two white kings
		"3k1P/6/6/6/6/3K2 w - - 0 1",                // pawn on last rank
		"3k2/6/6/6/6/3KR1 b - - 0 1",                // not wrong: black to move, no check
		"3k2/6/6/6/6/3R1K w - - 0 1",                // white to move, black king in check
	}
	for i, fen := range tests {
		_, err := NewPosition(fen)
		if i == 3 {
			if err != nil {
				t.Errorf("NewPosition(%q): %v", fen, err)
			}
			continue
		}
		if !errors.Is(err, board.ErrInvalidFEN) {
			t.Errorf("NewPosition(%q) error = %v, want ErrInvalidFEN", fen, err)
		}
	}
}

func TestCheckmate(t *testing.T) {
	// Back rank mate: rook on a6, black king boxed in by its own pawns.
	pos, err := NewPosition("R2k2/2ppp1/6/6/6/3K2 b - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if !pos.InCheck() {
		t.Error("InCheck = false")
	}
	if n := len(pos.LegalMoves()); n != 0 {
		t.Errorf("legal moves = %d, want 0", n)
	}
}

func TestStalemate(t *testing.T) {
	pos, err := NewPosition("k5/2Q3/1K4/6/6/6 b - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if pos.InCheck() {
		t.Error("InCheck = true")
	}
	if n := len(pos.LegalMoves()); n != 0 {
		t.Errorf("legal moves = %v, want none", pos.LegalMoves())
	}
}

func TestPinnedPiece(t *testing.T) {
	// The knight on d2 is pinned against the king by the rook on d6.
	pos, err := NewPosition("3r1k/6/6/6/3N2/3K2 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range pos.LegalMoves() {
		if m.From == board.MustSquare(3, 1) {
			t.Errorf("pinned knight move %v is legal", m)
		}
	}
}

func TestPromotions(t *testing.T) {
	pos, err := NewPosition("3k2/P5/6/6/6/3K2 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, m := range pos.LegalMoves() {
		if m.From == board.MustSquare(0, 4) {
			got = append(got, m.String())
		}
	}
	sort.Strings(got)
	want := []string{"a5a6n", "a5a6q", "a5a6r"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("promotions = %v, want %v", got, want)
	}

	if err := pos.PlayLAN("a5a6"); err != nil {
		t.Fatalf("PlayLAN: %v", err)
	}
	if p, _ := pos.At(board.MustSquare(0, 5)); p.Type != board.Queen {
		t.Errorf("default promotion = %v, want Queen", p.Type)
	}
}

func TestPlayLANUpdatesClocks(t *testing.T) {
	pos := NewStartPosition()
	for _, lan := range []string{"b1c3", "b6c4", "a2a3"} {
		if err := pos.PlayLAN(lan); err != nil {
			t.Fatalf("PlayLAN(%q): %v", lan, err)
		}
	}
	want := "r1qknr/pppppp/2n3/P1N3/1PPPPP/R1QKNR b - - 0 2"
	if got := pos.FEN(); got != want {
		t.Errorf("FEN = %q, want %q", got, want)
	}
}

func TestIllegalMove(t *testing.T) {
	pos := NewStartPosition()
	for _, lan := range []string{"b2b4", "a1a2", "d1d2", "c5c4"} {
		if err := pos.PlayLAN(lan); !errors.Is(err, ErrIllegalMove) {
			t.Errorf("PlayLAN(%q) error = %v, want ErrIllegalMove", lan, err)
		}
	}
	if pos.FEN() != board.StartFEN {
		t.Errorf("position changed after illegal moves: %s", pos.FEN())
	}
}

func TestInsufficientMaterial(t *testing.T) {
	tests := []struct {
		fen  string
		want bool
	}{
		{"3k2/6/6/6/6/3K2 w - - 0 1", true},
		{"3k2/6/6/6/6/2NK2 w - - 0 1", true},
		{"3k2/6/6/6/6/1NNK2 w - - 0 1", false},
		{"3k2/6/6/6/6/2RK2 w - - 0 1", false},
		{"3k2/6/6/6/P5/3K2 w - - 0 1", false},
		{"2nk2/6/6/6/6/2NK2 w - - 0 1", true},
		{board.StartFEN, false},
	}
	for _, tc := range tests {
		pos, err := NewPosition(tc.fen)
		if err != nil {
			t.Fatal(err)
		}
		if got := pos.InsufficientMaterial(); got != tc.want {
			t.Errorf("InsufficientMaterial(%q) = %v, want %v", tc.fen, got, tc.want)
		}
	}
}

func TestNativeEvaluate(t *testing.T) {
	var o Native
	st, err := o.Evaluate(Variant, board.StartFEN, nil)
	if err != nil {
		t.Fatal(err)
	}
	if st.FEN != board.StartFEN || len(st.LegalMoves) != 10 || st.InCheck || st.InsufficientMaterial {
		t.Errorf("start state = %+v", st)
	}
	if err := st.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if !st.Has("B2B3") {
		t.Error("Has(B2B3) = false")
	}

	st, err = o.Evaluate(Variant, board.StartFEN, []string{"b2b3"})
	if err != nil {
		t.Fatal(err)
	}
	if st.SideToMove != board.Black {
		t.Errorf("side = %v, want Black", st.SideToMove)
	}

	_, err = o.Evaluate("chess", board.StartFEN, nil)
	var oe *OracleError
	if !errors.As(err, &oe) || !errors.Is(err, ErrUnknownVariant) {
		t.Errorf("unknown variant error = %v", err)
	}
	if _, err := o.Evaluate(Variant, board.StartFEN, []string{"b2b3", "b2b3"}); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("illegal replay error = %v", err)
	}
	if _, err := o.Evaluate(Variant, "nonsense", nil); !errors.Is(err, board.ErrInvalidFEN) {
		t.Errorf("bad FEN error = %v", err)
	}
}

func TestStateValidate(t *testing.T) {
	tests := []*State{
		nil,
		{FEN: "garbage"},
		{FEN: board.StartFEN, SideToMove: board.Black},
		{FEN: board.StartFEN, LegalMoves: []string{"z9z9"}},
	}
	for _, st := range tests {
		err := st.Validate()
		if !errors.Is(err, ErrMalformedState) {
			t.Errorf("Validate(%+v) = %v, want ErrMalformedState", st, err)
		}
	}
}

type countingOracle struct {
	calls int
}

func (c *countingOracle) Evaluate(variant, startFEN string, moves []string) (*State, error) {
	c.calls++
	return Native{}.Evaluate(variant, startFEN, moves)
}

func TestCachedOracle(t *testing.T) {
	inner := &countingOracle{}
	c, err := NewCached(inner, 100)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	moves := []string{"b2b3", "b5b4"}
	first, err := c.Evaluate(Variant, board.StartFEN, moves)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Evaluate(Variant, board.StartFEN, moves)
	if err != nil {
		t.Fatal(err)
	}
	if first.FEN != second.FEN || len(first.LegalMoves) != len(second.LegalMoves) {
		t.Errorf("cached state differs: %+v vs %+v", first, second)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}

	second.LegalMoves[0] = "mutated"
	third, _ := c.Evaluate(Variant, board.StartFEN, moves)
	if third.LegalMoves[0] == "mutated" {
		t.Error("cache returned shared state")
	}

	if _, err := c.Evaluate("chess", board.StartFEN, nil); !errors.Is(err, ErrUnknownVariant) {
		t.Errorf("error = %v", err)
	}
}
