package scout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Guard defaults.
const (
	DefaultMaxFailures    = 5
	DefaultOpenTimeout    = 30 * time.Second
	DefaultHalfOpenProbes = 1
)

// GuardStore protects a document store from the burst of concurrent
// searches a deployment produces. Searches first wait for a token from the
// rate limiter, then pass through a circuit breaker that opens after a run
// of consecutive failures. Cancelled searches do not count as failures.
type GuardStore struct {
	store   storage.DocumentStore
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

var _ storage.DocumentStore = (*GuardStore)(nil)

// GuardOption configures a GuardStore.
type GuardOption func(*guardConfig)

type guardConfig struct {
	limit       rate.Limit
	burst       int
	maxFailures uint32
	openTimeout time.Duration
	logger      *slog.Logger
}

// WithRateLimit allows perSecond searches per second with bursts of burst.
// A non-positive perSecond disables rate limiting, which is the default.
func WithRateLimit(perSecond float64, burst int) GuardOption {
	return func(c *guardConfig) {
		if perSecond <= 0 {
			c.limit = rate.Inf
			return
		}
		c.limit = rate.Limit(perSecond)
		c.burst = max(burst, 1)
	}
}

// WithBreaker opens the circuit after maxFailures consecutive failures and
// probes the store again after openTimeout.
func WithBreaker(maxFailures uint32, openTimeout time.Duration) GuardOption {
	return func(c *guardConfig) {
		if maxFailures > 0 {
			c.maxFailures = maxFailures
		}
		if openTimeout > 0 {
			c.openTimeout = openTimeout
		}
	}
}

// WithGuardLogger sets a custom logger.
// Default is slog.Default().
func WithGuardLogger(logger *slog.Logger) GuardOption {
	return func(c *guardConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewGuardStore wraps store.
func NewGuardStore(store storage.DocumentStore, opts ...GuardOption) (*GuardStore, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	cfg := &guardConfig{
		limit:       rate.Inf,
		burst:       1,
		maxFailures: DefaultMaxFailures,
		openTimeout: DefaultOpenTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	logger := cfg.logger.With("component", "store-guard")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "document-store",
		MaxRequests: DefaultHalfOpenProbes,
		Timeout:     cfg.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
	})

	return &GuardStore{
		store:   store,
		limiter: rate.NewLimiter(cfg.limit, cfg.burst),
		breaker: breaker,
		logger:  logger,
	}, nil
}

// State reports the circuit state: "closed", "half-open" or "open".
func (g *GuardStore) State() string {
	return g.breaker.State().String()
}

// Search rate-limits and breaker-guards a store search.
func (g *GuardStore) Search(ctx context.Context, pattern string, limit int, filters *core.SearchFilters) ([]core.Hit, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return execute(g.breaker, func() ([]core.Hit, error) {
		return g.store.Search(ctx, pattern, limit, filters)
	})
}

// DocumentCount passes through the breaker without rate limiting.
func (g *GuardStore) DocumentCount(ctx context.Context) (int, error) {
	return execute(g.breaker, func() (int, error) {
		return g.store.DocumentCount(ctx)
	})
}

// DocumentTypeDistribution passes through the breaker without rate limiting.
func (g *GuardStore) DocumentTypeDistribution(ctx context.Context) (map[core.DocumentType]int, error) {
	return execute(g.breaker, func() (map[core.DocumentType]int, error) {
		return g.store.DocumentTypeDistribution(ctx)
	})
}

// execute adapts the breaker's untyped Execute and maps rejected calls to
// ErrStoreUnavailable.
func execute[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	var zero T
	res, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		return zero, err
	}
	return res.(T), nil
}
