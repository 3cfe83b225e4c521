// Package book reads and writes opening books for Los Alamos chess.
//
// A book file is a sequence of 16-byte big-endian entries:
//
//	8 bytes  position key (rules.Position.Key)
//	2 bytes  move
//	2 bytes  weight
//	4 bytes  reserved
//
// Moves pack the absolute to-square in bits 0-5, the from-square in bits
// 6-11 and the promotion in bits 12-13 (0 none, 1 knight, 2 rook, 3 queen).
package book

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"

	"github.com/hailam/losalamos/internal/board"
	"github.com/hailam/losalamos/internal/rules"
)

var ErrBadEntry = errors.New("malformed book entry")

const entrySize = 16

// BookEntry represents a single book entry.
type BookEntry struct {
	Move   board.Move
	Weight uint16
}

// Book represents an opening book.
type Book struct {
	entries map[uint64][]BookEntry
}

// New creates an empty book.
func New() *Book {
	return &Book{
		entries: make(map[uint64][]BookEntry),
	}
}

// Load loads a book from a file.
func Load(filename string) (*Book, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadReader(file)
}

// LoadReader loads a book from a reader.
func LoadReader(r io.Reader) (*Book, error) {
	book := New()
	var entry [entrySize]byte

	for n := 0; ; n++ {
		_, err := io.ReadFull(r, entry[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrBadEntry, n, err)
		}

		key := binary.BigEndian.Uint64(entry[0:8])
		move, ok := decodeMove(binary.BigEndian.Uint16(entry[8:10]))
		if !ok {
			return nil, fmt.Errorf("%w: entry %d", ErrBadEntry, n)
		}
		book.entries[key] = append(book.entries[key], BookEntry{
			Move:   move,
			Weight: binary.BigEndian.Uint16(entry[10:12]),
		})
	}

	return book, nil
}

var promoCodes = []board.PieceType{board.NoPieceType, board.Knight, board.Rook, board.Queen}

func encodeMove(m board.Move) uint16 {
	var promo uint16
	for i, pt := range promoCodes {
		if pt == m.Promotion {
			promo = uint16(i)
		}
	}
	return uint16(m.To) | uint16(m.From)<<6 | promo<<12
}

func decodeMove(data uint16) (board.Move, bool) {
	to := board.Square(data & 63)
	from := board.Square((data >> 6) & 63)
	if !to.Valid() || !from.Valid() || from == to || data>>14 != 0 {
		return board.Move{}, false
	}
	return board.Move{From: from, To: to, Promotion: promoCodes[(data>>12)&3]}, true
}

// Add records move for pos. Weights of repeated moves accumulate.
func (b *Book) Add(pos *rules.Position, move board.Move, weight uint16) {
	key := pos.Key()
	for i, e := range b.entries[key] {
		if e.Move == move {
			b.entries[key][i].Weight += weight
			return
		}
	}
	b.entries[key] = append(b.entries[key], BookEntry{Move: move, Weight: weight})
}

// WriteTo writes the book in file format, keys ascending.
func (b *Book) WriteTo(w io.Writer) (int64, error) {
	keys := make([]uint64, 0, len(b.entries))
	for k := range b.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var written int64
	var entry [entrySize]byte
	for _, k := range keys {
		for _, e := range b.entries[k] {
			binary.BigEndian.PutUint64(entry[0:8], k)
			binary.BigEndian.PutUint16(entry[8:10], encodeMove(e.Move))
			binary.BigEndian.PutUint16(entry[10:12], e.Weight)
			n, err := w.Write(entry[:])
			written += int64(n)
			if err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

// Probe looks up a position in the book and returns a move using weighted
// random selection. Book moves that are not legal in pos are skipped.
func (b *Book) Probe(pos *rules.Position) (board.Move, bool) {
	entries := b.ProbeAll(pos)
	if len(entries) == 0 {
		return board.Move{}, false
	}

	totalWeight := uint32(0)
	for _, e := range entries {
		totalWeight += uint32(e.Weight)
	}
	if totalWeight == 0 {
		return entries[0].Move, true
	}

	r := rand.Uint32() % totalWeight
	cumulative := uint32(0)
	for _, e := range entries {
		cumulative += uint32(e.Weight)
		if r < cumulative {
			return e.Move, true
		}
	}
	return entries[0].Move, true
}

// ProbeAll returns the legal book moves for the position, sorted by weight.
func (b *Book) ProbeAll(pos *rules.Position) []BookEntry {
	if b == nil {
		return nil
	}
	entries := b.entries[pos.Key()]
	if len(entries) == 0 {
		return nil
	}

	legal := make(map[board.Move]bool)
	for _, m := range pos.LegalMoves() {
		legal[m] = true
	}
	result := make([]BookEntry, 0, len(entries))
	for _, e := range entries {
		if legal[e.Move] {
			result = append(result, e)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Weight > result[j].Weight
	})
	return result
}

// Size returns the number of unique positions in the book.
func (b *Book) Size() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}
