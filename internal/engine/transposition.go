package engine

import "github.com/hailam/losalamos/internal/board"

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

// TTEntry represents an entry in the transposition table.
type TTEntry struct {
	Key      uint64
	BestMove board.Move
	Score    int
	Depth    int
	Flag     TTFlag
	Age      uint8
	used     bool
}

// TranspositionTable is a fixed-size, always-replace table. It is owned by
// one search at a time.
type TranspositionTable struct {
	entries []TTEntry
	mask    uint64
	age     uint8
}

// NewTranspositionTable creates a table with at least n slots, rounded up
// to a power of two.
func NewTranspositionTable(n int) *TranspositionTable {
	size := uint64(1)
	for size < uint64(n) {
		size <<= 1
	}
	return &TranspositionTable{entries: make([]TTEntry, size), mask: size - 1}
}

// Probe looks up a position by key.
func (tt *TranspositionTable) Probe(key uint64) (TTEntry, bool) {
	e := tt.entries[key&tt.mask]
	if !e.used || e.Key != key {
		return TTEntry{}, false
	}
	return e, true
}

// Store saves a search result, keeping deeper entries from the current search.
func (tt *TranspositionTable) Store(key uint64, move board.Move, score, depth int, flag TTFlag) {
	slot := &tt.entries[key&tt.mask]
	if slot.used && slot.Key != key && slot.Age == tt.age && slot.Depth > depth {
		return
	}
	*slot = TTEntry{Key: key, BestMove: move, Score: score, Depth: depth, Flag: flag, Age: tt.age, used: true}
}

// NewSearch ages existing entries.
func (tt *TranspositionTable) NewSearch() {
	tt.age++
}

// Clear empties the table.
func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = TTEntry{}
	}
	tt.age = 0
}
