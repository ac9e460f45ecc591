package cache

import (
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/poiesic/quarry/core"
)

const (
	// DefaultSize is the default number of cached results.
	DefaultSize = 1024

	// DefaultTTL is how long a result stays cached by default.
	DefaultTTL = 15 * time.Minute
)

var (
	// ErrInvalidSize is returned for a cache size below one.
	ErrInvalidSize = errors.New("cache size must be at least 1")

	// ErrInvalidTTL is returned for a negative TTL.
	ErrInvalidTTL = errors.New("cache ttl cannot be negative")
)

// ResultCache is a bounded, expiring cache of analysis results.
type ResultCache struct {
	lru    *expirable.LRU[string, core.AnalysisResult]
	hits   atomic.Int64
	misses atomic.Int64
	logger *slog.Logger
}

// Stats is a snapshot of cache activity.
type Stats struct {
	Entries int
	Hits    int64
	Misses  int64
}

type config struct {
	size   int
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures a ResultCache.
type Option func(*config) error

// WithSize bounds the number of cached results.
// Default is DefaultSize.
func WithSize(size int) Option {
	return func(c *config) error {
		if size < 1 {
			return ErrInvalidSize
		}
		c.size = size
		return nil
	}
}

// WithTTL sets how long results stay cached. Zero disables expiry.
// Default is DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *config) error {
		if ttl < 0 {
			return ErrInvalidTTL
		}
		c.ttl = ttl
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// New creates a ResultCache.
func New(opts ...Option) (*ResultCache, error) {
	cfg := &config{
		size:   DefaultSize,
		ttl:    DefaultTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	c := &ResultCache{logger: cfg.logger.With("component", "result-cache")}
	c.lru = expirable.NewLRU(cfg.size, func(key string, _ core.AnalysisResult) {
		c.logger.Debug("evicted", "key", key)
	}, cfg.ttl)
	return c, nil
}

// Key normalizes query text into a cache key.
func Key(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// Get returns a deep copy of the result cached for text.
func (c *ResultCache) Get(text string) (*core.AnalysisResult, bool) {
	key := Key(text)
	if key == "" {
		c.misses.Add(1)
		return nil, false
	}
	res, ok := c.lru.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return res.Clone(), true
}

// Put caches a deep copy of res under text. Blank text is not cached.
func (c *ResultCache) Put(text string, res *core.AnalysisResult) {
	key := Key(text)
	if key == "" || res == nil {
		return
	}
	c.lru.Add(key, *res.Clone())
}

// Remove drops the entry for text, reporting whether there was one.
func (c *ResultCache) Remove(text string) bool {
	return c.lru.Remove(Key(text))
}

// Purge empties the cache.
func (c *ResultCache) Purge() {
	c.lru.Purge()
}

// Len returns the number of cached entries, expired ones included until
// they are swept.
func (c *ResultCache) Len() int {
	return c.lru.Len()
}

// Stats returns the cache counters.
func (c *ResultCache) Stats() Stats {
	return Stats{
		Entries: c.lru.Len(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}
