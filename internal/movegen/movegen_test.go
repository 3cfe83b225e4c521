package movegen

import (
	"sort"
	"testing"

	"github.com/hailam/losalamos/internal/board"
)

func grid(t *testing.T, fen string, o board.Orientation) *board.Grid {
	t.Helper()
	s, err := board.DecodeFEN(fen, o)
	if err != nil {
		t.Fatalf("DecodeFEN(%q): %v", fen, err)
	}
	return s.Grid
}

func pieceAt(t *testing.T, g *board.Grid, alg string) board.Piece {
	t.Helper()
	sq, err := g.Orientation().AlgebraicToCoords(alg)
	if err != nil {
		t.Fatal(err)
	}
	p, ok := g.At(sq)
	if !ok {
		t.Fatalf("no piece on %s", alg)
	}
	return p
}

func names(t *testing.T, g *board.Grid, sqs []board.Square) []string {
	t.Helper()
	out := make([]string, 0, len(sqs))
	for _, sq := range sqs {
		s, err := g.Orientation().CoordsToAlgebraic(sq)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPseudoLegal(t *testing.T) {
	tests := []struct {
		name   string
		fen    string
		orient board.Orientation
		from   string
		want   []string
	}{
		{"pawn push from start", board.StartFEN, board.WhiteAtBottom, "b2", []string{"b3"}},
		{"black pawn push from start", board.StartFEN, board.WhiteAtBottom, "c5", []string{"c4"}},
		{"black pawn flipped view", board.StartFEN, board.BlackAtBottom, "c5", []string{"c4"}},
		{"white pawn flipped view", board.StartFEN, board.BlackAtBottom, "e2", []string{"e3"}},
		{"lone pawn push", "3k2/6/6/1P4/6/3K2 w - - 0 1", board.WhiteAtBottom, "b3", []string{"b4"}},
		{"pawn captures", "3k2/6/p1p3/1P4/6/3K2 w - - 0 1", board.WhiteAtBottom, "b3", []string{"a4", "b4", "c4"}},
		{"pawn blocked", "3k2/6/1p4/1P4/6/3K2 w - - 0 1", board.WhiteAtBottom, "b3", nil},
		{"pawn no capture onto friend", "3k2/6/P1P3/1P4/6/3K2 w - - 0 1", board.WhiteAtBottom, "b3", []string{"b4"}},
		{"edge pawn", "3k2/6/1p4/P5/6/3K2 w - - 0 1", board.WhiteAtBottom, "a3", []string{"a4", "b4"}},
		{"knight from start", board.StartFEN, board.WhiteAtBottom, "b1", []string{"a3", "c3"}},
		{"knight in corner", "3k2/6/6/6/6/N2K2 w - - 0 1", board.WhiteAtBottom, "a1", []string{"b3", "c2"}},
		{"knight centre", "3k2/6/6/2N3/6/5K w - - 0 1", board.WhiteAtBottom, "c3",
			[]string{"a2", "a4", "b1", "b5", "d1", "d5", "e2", "e4"}},
		{"rook from start", board.StartFEN, board.WhiteAtBottom, "a1", nil},
		{"rook rays stop", "r2k2/6/6/6/6/R2K2 w - - 0 1", board.WhiteAtBottom, "a1",
			[]string{"a2", "a3", "a4", "a5", "a6", "b1", "c1"}},
		{"queen from start", board.StartFEN, board.WhiteAtBottom, "c1", nil},
		{"queen open board", "5k/6/6/6/6/Q4K w - - 0 1", board.WhiteAtBottom, "a1",
			[]string{"a2", "a3", "a4", "a5", "a6", "b1", "b2", "c1", "c3", "d1", "d4", "e1", "e5", "f6"}},
		{"king corner", "5k/6/6/6/6/K5 w - - 0 1", board.WhiteAtBottom, "a1", []string{"a2", "b1", "b2"}},
		{"king from start", board.StartFEN, board.WhiteAtBottom, "d1", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := grid(t, tc.fen, tc.orient)
			p := pieceAt(t, g, tc.from)
			got := names(t, g, PseudoLegal(p, g))
			want := append([]string(nil), tc.want...)
			sort.Strings(want)
			if !equal(got, want) {
				t.Errorf("PseudoLegal(%s) = %v, want %v", tc.from, got, want)
			}
		})
	}
}

func TestStartPositionMoveCount(t *testing.T) {
	for _, o := range []board.Orientation{board.WhiteAtBottom, board.BlackAtBottom} {
		g := grid(t, board.StartFEN, o)
		for _, c := range []board.Color{board.White, board.Black} {
			n := 0
			for _, p := range g.Pieces(c) {
				n += len(PseudoLegal(p, g))
			}
			if n != 10 {
				t.Errorf("%v %v: %d pseudo-legal moves, want 10", o, c, n)
			}
		}
	}
}

// Every ray square before the first occupied one is empty, and the occupied
// square is included only when it holds an enemy.
func TestRaysStopAtFirstOccupant(t *testing.T) {
	fens := []string{
		board.StartFEN,
		"r2k2/1p4/2Q3/3n2/6/R2K2 w - - 0 1",
		"q4k/6/2R3/6/1P2p1/K5 b - - 0 1",
	}
	dirs := append(append([][2]int{}, orthogonal...), diagonal...)
	for _, fen := range fens {
		g := grid(t, fen, board.WhiteAtBottom)
		for _, c := range []board.Color{board.White, board.Black} {
			for _, p := range g.Pieces(c) {
				if p.Type != board.Rook && p.Type != board.Queen {
					continue
				}
				got := map[board.Square]bool{}
				for _, sq := range PseudoLegal(p, g) {
					got[sq] = true
				}
				use := dirs
				if p.Type == board.Rook {
					use = orthogonal
				}
				for _, d := range use {
					sq := p.Square
					for {
						next, ok := sq.Offset(d[0], d[1])
						if !ok {
							break
						}
						other, occupied := g.At(next)
						if !occupied {
							if !got[next] {
								t.Errorf("%s: %v on %v misses empty %v", fen, p, p.Square, next)
							}
							sq = next
							continue
						}
						if got[next] != (other.Color != p.Color) {
							t.Errorf("%s: %v on %v stop square %v included=%v", fen, p, p.Square, next, got[next])
						}
						for {
							beyond, ok := next.Offset(d[0], d[1])
							if !ok {
								break
							}
							if got[beyond] {
								t.Errorf("%s: %v on %v passes through %v to %v", fen, p, p.Square, next, beyond)
							}
							next = beyond
						}
						break
					}
				}
			}
		}
	}
}

func TestCanMove(t *testing.T) {
	g := grid(t, board.StartFEN, board.WhiteAtBottom)
	p := pieceAt(t, g, "a1")
	if CanMove(p, g, board.MustSquare(1, 0)) {
		t.Error("CanMove onto friendly piece")
	}
	if !CanMove(p, g, board.MustSquare(0, 3)) {
		t.Error("CanMove onto empty square = false")
	}
	if !CanMove(p, g, board.MustSquare(0, 4)) {
		t.Error("CanMove onto enemy piece = false")
	}
}
