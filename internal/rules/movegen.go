package rules

import "github.com/hailam/losalamos/internal/board"

var (
	knightOffsets = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingOffsets   = [8][2]int{{0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}}
	rookDirs      = [4][2]int{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
	diagDirs      = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

var promotions = [3]board.PieceType{board.Queen, board.Rook, board.Knight}

func pawnDir(c board.Color) int {
	if c == board.White {
		return 1
	}
	return -1
}

// Attacked reports whether any piece of color by attacks sq.
func (p *Position) Attacked(sq board.Square, by board.Color) bool {
	if !sq.Valid() {
		return false
	}
	is := func(s board.Square, types ...board.PieceType) bool {
		pc, ok := p.grid.At(s)
		if !ok || pc.Color != by {
			return false
		}
		for _, t := range types {
			if pc.Type == t {
				return true
			}
		}
		return false
	}

	// A pawn of color by attacks sq from one rank behind sq.
	for _, df := range [2]int{-1, 1} {
		if from, ok := sq.Offset(df, -pawnDir(by)); ok && is(from, board.Pawn) {
			return true
		}
	}
	for _, o := range knightOffsets {
		if from, ok := sq.Offset(o[0], o[1]); ok && is(from, board.Knight) {
			return true
		}
	}
	for _, o := range kingOffsets {
		if from, ok := sq.Offset(o[0], o[1]); ok && is(from, board.King) {
			return true
		}
	}
	slide := func(dirs [4][2]int, types ...board.PieceType) bool {
		for _, d := range dirs {
			cur := sq
			for {
				next, ok := cur.Offset(d[0], d[1])
				if !ok {
					break
				}
				if _, occupied := p.grid.At(next); occupied {
					if is(next, types...) {
						return true
					}
					break
				}
				cur = next
			}
		}
		return false
	}
	return slide(rookDirs, board.Rook, board.Queen) || slide(diagDirs, board.Queen)
}

// pseudoMoves enumerates moves for the side to move without checking king
// safety. Pawn moves to the last rank expand into one move per promotion.
func (p *Position) pseudoMoves() []board.Move {
	var moves []board.Move
	add := func(from, to board.Square) {
		moves = append(moves, board.Move{From: from, To: to})
	}
	target := func(pc board.Piece, to board.Square) bool {
		other, ok := p.grid.At(to)
		return !ok || other.Color != pc.Color
	}

	for _, pc := range p.grid.Pieces(p.side) {
		from := pc.Square
		switch pc.Type {
		case board.Pawn:
			dir := pawnDir(pc.Color)
			var tos []board.Square
			if to, ok := from.Offset(0, dir); ok {
				if _, occupied := p.grid.At(to); !occupied {
					tos = append(tos, to)
				}
			}
			for _, df := range [2]int{-1, 1} {
				if to, ok := from.Offset(df, dir); ok {
					if other, occupied := p.grid.At(to); occupied && other.Color != pc.Color {
						tos = append(tos, to)
					}
				}
			}
			for _, to := range tos {
				if to.Rank() == lastRank(pc.Color) {
					for _, promo := range promotions {
						moves = append(moves, board.Move{From: from, To: to, Promotion: promo})
					}
				} else {
					add(from, to)
				}
			}
		case board.Knight, board.King:
			offsets := knightOffsets
			if pc.Type == board.King {
				offsets = kingOffsets
			}
			for _, o := range offsets {
				if to, ok := from.Offset(o[0], o[1]); ok && target(pc, to) {
					add(from, to)
				}
			}
		case board.Rook, board.Queen:
			dirs := rookDirs[:]
			if pc.Type == board.Queen {
				dirs = append(dirs, diagDirs[:]...)
			}
			for _, d := range dirs {
				cur := from
				for {
					next, ok := cur.Offset(d[0], d[1])
					if !ok {
						break
					}
					other, occupied := p.grid.At(next)
					if occupied {
						if other.Color != pc.Color {
							add(from, next)
						}
						break
					}
					add(from, next)
					cur = next
				}
			}
		}
	}
	return moves
}

// LegalMoves returns every move that does not leave the mover's king attacked.
func (p *Position) LegalMoves() []board.Move {
	var legal []board.Move
	for _, m := range p.pseudoMoves() {
		next := p.Copy()
		next.apply(m)
		if !next.Attacked(next.KingSquare(p.side), next.side) {
			legal = append(legal, m)
		}
	}
	return legal
}

// Perft counts leaf nodes of the legal move tree to the given depth.
func (p *Position) Perft(depth int) int64 {
	if depth == 0 {
		return 1
	}
	moves := p.LegalMoves()
	if depth == 1 {
		return int64(len(moves))
	}
	var nodes int64
	for _, m := range moves {
		next := p.Copy()
		next.apply(m)
		nodes += next.Perft(depth - 1)
	}
	return nodes
}
