// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package scout

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
)

const (
	// DefaultPatternLimit caps the hits fetched per pattern for a Focused query.
	DefaultPatternLimit = 50

	defaultPoolSize = 64
	releaseTimeout  = 5 * time.Second
)

// Pool runs scout deployments on a shared goroutine pool.
type Pool struct {
	store    storage.DocumentStore
	registry *Registry
	workers  *ants.Pool
	limit    int
	onStatus StatusFunc
	logger   *slog.Logger
	closed   atomic.Bool
}

// Deployment is the outcome of one Run.
type Deployment struct {
	// Reports holds one report per planned worker, in plan order.
	Reports []core.ScoutReport
	// Started counts the workers that were scheduled.
	Started int
	// Partial is set when the context ended before the deployment finished.
	Partial bool
}

// DeadEnds sums the dead ends of every report.
func (d *Deployment) DeadEnds() int {
	total := 0
	for _, r := range d.Reports {
		total += r.DeadEnds
	}
	return total
}

// PoolOption configures a Pool.
type PoolOption func(*poolConfig) error

type poolConfig struct {
	size     int
	limit    int
	registry *Registry
	onStatus StatusFunc
	logger   *slog.Logger
}

// WithPoolSize sets the number of goroutines shared by all deployments.
// A worker that finds the pool full is reported as Failed.
// Default is 64.
func WithPoolSize(size int) PoolOption {
	return func(c *poolConfig) error {
		if size <= 0 {
			return ErrInvalidPoolSize
		}
		c.size = size
		return nil
	}
}

// WithPatternLimit sets the per-pattern hit limit for Focused queries.
// Other scopes scale it. Default is DefaultPatternLimit.
func WithPatternLimit(limit int) PoolOption {
	return func(c *poolConfig) error {
		if limit > 0 {
			c.limit = limit
		}
		return nil
	}
}

// WithRegistry replaces the default strategy registry.
func WithRegistry(r *Registry) PoolOption {
	return func(c *poolConfig) error {
		if r != nil {
			c.registry = r
		}
		return nil
	}
}

// WithStatusFunc observes worker status transitions.
func WithStatusFunc(fn StatusFunc) PoolOption {
	return func(c *poolConfig) error {
		c.onStatus = fn
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) PoolOption {
	return func(c *poolConfig) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewPool creates a scout pool searching store.
func NewPool(store storage.DocumentStore, opts ...PoolOption) (*Pool, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	cfg := &poolConfig{
		size:     defaultPoolSize,
		limit:    DefaultPatternLimit,
		registry: DefaultRegistry(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	logger := cfg.logger.With("component", "scout-pool")

	workers, err := ants.NewPool(cfg.size,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p any) {
			logger.Error("scout panicked outside recovery", "panic", p)
		}),
	)
	if err != nil {
		return nil, err
	}

	return &Pool{
		store:    store,
		registry: cfg.registry,
		workers:  workers,
		limit:    cfg.limit,
		onStatus: cfg.onStatus,
		logger:   logger,
	}, nil
}

// Close waits briefly for in-flight workers and releases the pool.
func (p *Pool) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.workers.ReleaseTimeout(releaseTimeout)
}

type slotReport struct {
	slot   int
	report core.ScoutReport
}

// Run deploys one worker per planned kind and waits until all of them
// report or ctx ends. Workers still running when ctx ends are cancelled and
// recorded as Failed with one dead end each. Run returns
// ErrNoWorkersStarted, together with the deployment, when the plan named
// workers but none could be scheduled.
func (p *Pool) Run(ctx context.Context, q *core.Query, plan core.DeploymentPlan) (*Deployment, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	n := len(plan.Kinds)
	dep := &Deployment{Reports: make([]core.ScoutReport, n)}
	done := make(chan slotReport, n)
	pending := make(map[int]*worker, n)
	variants := make(map[core.ScoutKind]int)
	search := p.searchFunc(q.Scope)

	for i, kind := range plan.Kinds {
		id := uuid.NewString()
		strategy, ok := p.registry.Get(kind)
		if !ok {
			dep.Reports[i] = failedReport(id, kind, nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind))
			continue
		}

		w := newWorker(id, strategy, strategy.Patterns(q, variants[kind]), p.onStatus)
		variants[kind]++

		slot := i
		err := p.workers.Submit(func() {
			defer func() {
				if r := recover(); r != nil {
					p.logger.Error("scout panicked", "scout_id", w.id, "kind", w.kind(), "panic", r)
					done <- slotReport{slot, failedReport(w.id, w.kind(), w.patterns, fmt.Errorf("scout panicked: %v", r))}
				}
			}()
			done <- slotReport{slot, w.run(ctx, q, search)}
		})
		if err != nil {
			p.logger.Warn("scout not started", "kind", kind, "err", err)
			dep.Reports[i] = failedReport(id, kind, w.patterns, fmt.Errorf("%w: %w", ErrWorkerNotStarted, err))
			continue
		}
		pending[slot] = w
		dep.Started++
	}

	if n > 0 && dep.Started == 0 {
		return dep, ErrNoWorkersStarted
	}

wait:
	for len(pending) > 0 {
		select {
		case r := <-done:
			dep.Reports[r.slot] = r.report
			delete(pending, r.slot)
		case <-ctx.Done():
			break wait
		}
	}

	// Take any report that raced with the deadline.
drain:
	for len(pending) > 0 {
		select {
		case r := <-done:
			dep.Reports[r.slot] = r.report
			delete(pending, r.slot)
		default:
			break drain
		}
	}

	for slot, w := range pending {
		dep.Reports[slot] = failedReport(w.id, w.kind(), w.patterns, ErrDeadline)
		dep.Partial = true
	}
	// Workers that saw the deadline reported what little they had.
	if ctx.Err() != nil {
		dep.Partial = true
	}

	for _, r := range dep.Reports {
		p.logger.Debug("scout reported", "query_id", q.ID, "scout_id", r.ScoutID, "kind", r.Kind, "status", r.Status,
			"findings", len(r.Findings), "dead_ends", r.DeadEnds, "elapsed", r.ProcessingTime)
	}
	return dep, nil
}

// searchFunc binds the store and the scope's hit limit.
func (p *Pool) searchFunc(scope core.Scope) SearchFunc {
	limit := LimitForScope(scope, p.limit)
	return func(ctx context.Context, pattern string) ([]core.Hit, error) {
		return p.store.Search(ctx, pattern, limit, nil)
	}
}

// LimitForScope scales the per-pattern hit limit by scope: Narrow gets a
// fifth, Broad double and Exhaustive four times the Focused limit.
func LimitForScope(scope core.Scope, base int) int {
	switch scope {
	case core.ScopeNarrow:
		return max(base/5, 1)
	case core.ScopeBroad:
		return base * 2
	case core.ScopeExhaustive:
		return base * 4
	default:
		return base
	}
}
