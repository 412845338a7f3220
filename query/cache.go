package query

import (
	"context"
	"log/slog"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the capacity of a [Cache] created with a non-positive
// size.
const DefaultCacheSize = 256

// ErrCache is returned when a [Cache] cannot be created.
var ErrCache = NewError("cache error")

// Cache memoizes [Parse] results for repeated inputs, such as a REPL
// re-parsing its line on every keystroke. It is safe for concurrent use.
//
// Parses that install a [Transformer] or [Hook], or enable debug tracing,
// bypass the cache since their results (or side effects) are not determined
// by the input alone.
type Cache struct {
	lru    *lru.Cache[cacheKey, *Result]
	hits   atomic.Uint64
	misses atomic.Uint64
}

type cacheKey struct {
	input string
	opts  key
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits   uint64
	Misses uint64
	Len    int
}

// LogValue implements slog.LogValuer.
func (s CacheStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("hits", s.Hits),
		slog.Uint64("misses", s.Misses),
		slog.Int("len", s.Len),
	)
}

// NewCache creates a cache holding up to size results.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}

	c, err := lru.New[cacheKey, *Result](size)
	if err != nil {
		return nil, ErrCache.Wrap(err).With(slog.Int("size", size))
	}

	return &Cache{lru: c}, nil
}

// Parse is [Parse] with memoization. The returned Result is owned by the
// caller and may be modified freely.
func (c *Cache) Parse(ctx context.Context, input string, opts ...Option) *Result {
	o := makeOptions(opts...)
	if c == nil || !o.cacheable() {
		return Parse(ctx, input, opts...)
	}

	k := cacheKey{input: input, opts: o.key()}

	if res, ok := c.lru.Get(k); ok {
		c.hits.Add(1)

		return res.Clone()
	}

	c.misses.Add(1)

	res := Parse(ctx, input, opts...)
	c.lru.Add(k, res.Clone())

	return res
}

// Purge removes every cached result. A nil *Cache has nothing to purge.
func (c *Cache) Purge() {
	if c == nil {
		return
	}

	c.lru.Purge()
}

// Stats returns the hit and miss counters and the current size. A nil *Cache
// reports zero for all three.
func (c *Cache) Stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}

	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Len:    c.lru.Len(),
	}
}
