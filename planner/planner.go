package planner

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
)

// DefaultStatsTimeout bounds the corpus statistics lookup.
const DefaultStatsTimeout = 500 * time.Millisecond

var (
	// ErrStoreRequired is returned when a planner is built without a store.
	ErrStoreRequired = errors.New("document store required")

	// ErrInvalidStatsTimeout is returned for a negative stats timeout.
	ErrInvalidStatsTimeout = errors.New("stats timeout cannot be negative")
)

// Planner plans queries against live corpus statistics.
type Planner struct {
	store        storage.DocumentStore
	statsTimeout time.Duration
	logger       *slog.Logger
}

// Option configures a Planner.
type Option func(*Planner) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithStatsTimeout bounds how long Plan waits for corpus statistics before
// planning for an empty corpus. Zero leaves only the caller's deadline.
// Default is DefaultStatsTimeout.
func WithStatsTimeout(d time.Duration) Option {
	return func(p *Planner) error {
		if d < 0 {
			return ErrInvalidStatsTimeout
		}
		p.statsTimeout = d
		return nil
	}
}

// New creates a planner reading statistics from store.
func New(store storage.DocumentStore, opts ...Option) (*Planner, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	p := &Planner{
		store:        store,
		statsTimeout: DefaultStatsTimeout,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "planner")
	return p, nil
}

// Plan fetches corpus statistics and plans q.
func (p *Planner) Plan(ctx context.Context, q *core.Query) core.DeploymentPlan {
	plan := Plan(q, p.Stats(ctx))
	p.logger.Debug("planned deployment", "query_id", q.ID, "workers", plan.WorkerCount, "kinds", plan.Kinds,
		"clusters", plan.TargetClusters, "allowance", plan.DeadEndAllowance)
	return plan
}

// Stats returns the corpus statistics, or an empty corpus if the store
// cannot report them in time. A failing type distribution keeps the count.
func (p *Planner) Stats(ctx context.Context) core.CorpusStats {
	var stats core.CorpusStats
	if p.statsTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.statsTimeout)
		defer cancel()
	}

	count, err := p.store.DocumentCount(ctx)
	if err != nil {
		p.logger.Warn("document count unavailable, assuming empty corpus", "err", err)
		return stats
	}
	stats.DocumentCount = count

	dist, err := p.store.DocumentTypeDistribution(ctx)
	if err != nil {
		p.logger.Warn("type distribution unavailable", "err", err)
		return stats
	}
	stats.TypeDistribution = dist
	return stats
}
