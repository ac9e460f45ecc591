package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/poiesic/quarry/aggregate"
	"github.com/poiesic/quarry/cache"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/planner"
	"github.com/poiesic/quarry/scout"
	"golang.org/x/sync/singleflight"
)

// Orchestrator runs classified queries through plan, deploy and aggregate.
type Orchestrator struct {
	planner    *planner.Planner
	pool       *scout.Pool
	aggregator *aggregate.Aggregator
	cache      *cache.ResultCache
	flight     singleflight.Group
	logger     *slog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator) error

// WithResultCache memoizes complete results. Without a cache every query
// runs the scouts.
func WithResultCache(c *cache.ResultCache) OrchestratorOption {
	return func(o *Orchestrator) error {
		o.cache = c
		return nil
	}
}

// WithAggregator replaces the default aggregator.
func WithAggregator(a *aggregate.Aggregator) OrchestratorOption {
	return func(o *Orchestrator) error {
		if a != nil {
			o.aggregator = a
		}
		return nil
	}
}

// WithOrchestratorLogger sets a custom logger.
// Default is slog.Default().
func WithOrchestratorLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// NewOrchestrator creates an orchestrator deploying scouts from pool.
func NewOrchestrator(p *planner.Planner, pool *scout.Pool, opts ...OrchestratorOption) (*Orchestrator, error) {
	if p == nil {
		return nil, ErrPlannerRequired
	}
	if pool == nil {
		return nil, ErrPoolRequired
	}

	o := &Orchestrator{
		planner: p,
		pool:    pool,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.aggregator == nil {
		a, err := aggregate.New(aggregate.WithLogger(o.logger))
		if err != nil {
			return nil, err
		}
		o.aggregator = a
	}
	o.logger = o.logger.With("component", "orchestrator")
	return o, nil
}

type runResult struct {
	res *core.AnalysisResult
	hit bool
}

// Run executes q and reports whether the result came from the cache.
func (o *Orchestrator) Run(ctx context.Context, q *core.Query) (*core.AnalysisResult, bool, error) {
	return o.RunWithMonitor(ctx, q, nil)
}

// RunWithMonitor executes q, reporting progress to monitor.
//
// Cached results are returned without deploying any scouts. Otherwise the
// scouts run under the query's budget; when it runs out the result holds
// what had been reported and is marked partial. Partial results are not
// cached. Concurrent calls for the same query under the same budget share
// one run, but no caller waits on a shared run past its own budget.
//
// The error is non-nil only when the query could not be run at all, in
// which case it is an *OrchestrationError.
func (o *Orchestrator) RunWithMonitor(ctx context.Context, q *core.Query, monitor SearchMonitor) (*core.AnalysisResult, bool, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if q == nil || strings.TrimSpace(q.Text) == "" {
		return nil, false, &OrchestrationError{Stage: StageClassify, Err: core.ErrEmptyQuery}
	}
	monitor.Start(q)

	if res, ok := o.lookup(q); ok {
		monitor.CacheHit(res)
		return res, true, nil
	}

	runCtx, cancel := withBudget(ctx, q.Budget())
	defer cancel()

	var led atomic.Bool
	ch := o.flight.DoChan(flightKey(q), func() (any, error) {
		led.Store(true)
		if res, ok := o.lookup(q); ok {
			return runResult{res: res, hit: true}, nil
		}
		return o.execute(runCtx, q, monitor)
	})

	r, err := o.await(runCtx, q, monitor, ch, &led)
	if err != nil {
		return nil, false, err
	}
	if r.hit {
		monitor.CacheHit(r.res)
	}
	return r.res.Clone(), r.hit, nil
}

// await waits for the flight on ch. A caller that joined another caller's
// run stops waiting when its own budget runs out, and runs again itself
// when the joined run came back partial with time still left on its own.
func (o *Orchestrator) await(ctx context.Context, q *core.Query, monitor SearchMonitor, ch <-chan singleflight.Result, led *atomic.Bool) (runResult, error) {
	select {
	case out := <-ch:
		r, err := flightResult(out)
		if err != nil || led.Load() {
			return r, err
		}
		if r.res.Partial && ctx.Err() == nil {
			o.logger.Debug("joined run ended early, running again", "query_id", q.ID, "result_query_id", r.res.QueryID)
			return o.execute(ctx, q, monitor)
		}
		o.logger.Debug("shared in-flight run", "query_id", q.ID, "result_query_id", r.res.QueryID)
		return r, nil
	case <-ctx.Done():
		if led.Load() {
			// Our own run is bounded by ctx and returns promptly.
			return flightResult(<-ch)
		}
		o.logger.Warn("in-flight run outlived query budget", "query_id", q.ID, "budget", q.Budget())
		return o.expired(q, monitor), nil
	}
}

// expired returns the empty partial result of a query whose budget ran out
// before any scout was deployed for it.
func (o *Orchestrator) expired(q *core.Query, monitor SearchMonitor) runResult {
	res := o.aggregator.Aggregate(aggregate.Input{Query: q, Partial: true})
	monitor.Aggregated(res)
	return runResult{res: res}
}

func flightResult(out singleflight.Result) (runResult, error) {
	if out.Err != nil {
		return runResult{}, out.Err
	}
	return out.Val.(runResult), nil
}

// flightKey identifies runs whose results are interchangeable.
func flightKey(q *core.Query) string {
	return fmt.Sprintf("%s|%s|%s|%s|%d|%d|%s", cache.Key(q.Text), q.Intent, q.Scope, q.Priority,
		q.RelationshipDepth, q.Budget().Milliseconds(), strings.Join(q.ContextHints, ","))
}

func (o *Orchestrator) lookup(q *core.Query) (*core.AnalysisResult, bool) {
	if o.cache == nil {
		return nil, false
	}
	res, ok := o.cache.Get(q.Text)
	if ok {
		o.logger.Debug("cache hit", "query_id", q.ID, "cached_query_id", res.QueryID)
	}
	return res, ok
}

// execute plans and runs q. ctx carries the query's budget.
func (o *Orchestrator) execute(ctx context.Context, q *core.Query, monitor SearchMonitor) (runResult, error) {
	start := time.Now()

	plan := o.planner.Plan(ctx, q)
	monitor.Planned(plan)

	dep, err := o.pool.Run(ctx, q, plan)
	if err != nil {
		o.logger.Error("deployment failed", "query_id", q.ID, "kinds", plan.Kinds, "err", err)
		return runResult{}, &OrchestrationError{QueryID: q.ID, Stage: StageDeploy, Err: err}
	}
	monitor.Deployed(dep)

	res := o.aggregator.Aggregate(aggregate.Input{
		Query:   q,
		Plan:    plan,
		Reports: dep.Reports,
		Partial: dep.Partial,
	})
	res.ProcessingTime = time.Since(start)
	monitor.Aggregated(res)

	if o.cache != nil && !res.Partial {
		o.cache.Put(q.Text, res)
	}

	o.logger.Info("query complete", "query_id", q.ID, "intent", q.Intent, "scope", q.Scope, "priority", q.Priority,
		"scouts", res.ScoutsDeployed, "documents", res.DocumentsAnalyzed, "findings", len(res.Findings),
		"dead_ends", res.DeadEnds, "partial", res.Partial, "elapsed", res.ProcessingTime)
	return runResult{res: res}, nil
}

// withBudget bounds ctx by budget. A zero budget only adds cancellation.
func withBudget(ctx context.Context, budget time.Duration) (context.Context, context.CancelFunc) {
	if budget <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, budget)
}
