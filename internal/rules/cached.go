package rules

import (
	"strings"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto/v2"
)

type cacheEntry struct {
	key   string
	state *State
}

// Cached wraps another oracle with a ristretto cache keyed by the xxhash of
// the full request. Errors are not cached.
type Cached struct {
	inner  Oracle
	cache  *ristretto.Cache[uint64, cacheEntry]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCached creates a cache holding roughly maxEntries evaluations.
func NewCached(inner Oracle, maxEntries int64) (*Cached, error) {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	cache, err := ristretto.NewCache(&ristretto.Config[uint64, cacheEntry]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, cache: cache}, nil
}

func requestKey(variant, startFEN string, moves []string) string {
	return variant + "\x00" + startFEN + "\x00" + strings.Join(moves, " ")
}

// Evaluate returns a cached state or asks the wrapped oracle.
func (c *Cached) Evaluate(variant, startFEN string, moves []string) (*State, error) {
	key := requestKey(variant, startFEN, moves)
	h := xxhash.Sum64String(key)
	if e, ok := c.cache.Get(h); ok && e.key == key {
		c.hits.Add(1)
		return e.state.clone(), nil
	}
	c.misses.Add(1)

	st, err := c.inner.Evaluate(variant, startFEN, moves)
	if err != nil {
		return nil, err
	}
	c.cache.Set(h, cacheEntry{key: key, state: st.clone()}, 1)
	c.cache.Wait()
	return st, nil
}

// HitRate returns the cache hit rate as a percentage.
func (c *Cached) HitRate() float64 {
	hits, misses := c.hits.Load(), c.misses.Load()
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses) * 100
}

// Close releases the cache.
func (c *Cached) Close() {
	c.cache.Close()
}
