package scout

import (
	"context"
	"time"

	"github.com/poiesic/quarry/core"
)

// StatusFunc observes worker status transitions. It is called from worker
// goroutines and must be safe for concurrent use.
type StatusFunc func(workerID string, kind core.ScoutKind, status core.ScoutStatus)

// worker is one scout executing one strategy for one query. It is owned by
// a single goroutine from run until it reports.
type worker struct {
	id       string
	strategy Strategy
	patterns []string
	onStatus StatusFunc

	status       core.ScoutStatus
	findings     []core.Finding
	deadEnds     int
	deadEndPaths []string
	failures     int
}

func newWorker(id string, strategy Strategy, patterns []string, onStatus StatusFunc) *worker {
	w := &worker{
		id:       id,
		strategy: strategy,
		patterns: patterns,
		onStatus: onStatus,
	}
	w.setStatus(core.ScoutDeployed)
	return w
}

func (w *worker) kind() core.ScoutKind {
	return w.strategy.Kind()
}

func (w *worker) setStatus(s core.ScoutStatus) {
	w.status = s
	if w.onStatus != nil {
		w.onStatus(w.id, w.kind(), s)
	}
}

// run searches every pattern in turn. A pattern that errors or yields no
// findings is a dead end; the remaining patterns still run. The worker
// fails when every pattern errored or the context ended first.
func (w *worker) run(ctx context.Context, q *core.Query, search SearchFunc) core.ScoutReport {
	start := time.Now()
	w.setStatus(core.ScoutSearching)

	seen := make(map[string]bool)
	var ctxErr error
	for _, pattern := range w.patterns {
		if ctxErr = ctx.Err(); ctxErr != nil {
			break
		}
		findings, err := w.strategy.ProduceFindings(ctx, q, pattern, search)
		if err != nil {
			w.failures++
		}
		findings = dedupe(findings, seen)
		if err != nil || len(findings) == 0 {
			w.deadEnd(pattern)
			w.setStatus(core.ScoutDeadEnd)
			continue
		}
		elapsed := time.Since(start)
		for i := range findings {
			findings[i].ProcessingTime = elapsed
		}
		w.findings = append(w.findings, findings...)
		w.setStatus(core.ScoutFoundLead)
	}

	w.setStatus(core.ScoutReportingBack)
	report := w.report(time.Since(start))
	switch {
	case ctxErr != nil:
		report.Err = ctxErr
		report.Status = core.ScoutFailed
	case len(w.patterns) > 0 && w.failures == len(w.patterns):
		report.Status = core.ScoutFailed
	default:
		report.Status = core.ScoutCompleted
	}
	w.setStatus(report.Status)
	return report
}

func (w *worker) deadEnd(pattern string) {
	w.deadEnds++
	w.deadEndPaths = append(w.deadEndPaths, deadEndPath(w.kind(), pattern))
}

func (w *worker) report(elapsed time.Duration) core.ScoutReport {
	return core.ScoutReport{
		ScoutID:        w.id,
		Kind:           w.kind(),
		Patterns:       w.patterns,
		Findings:       w.findings,
		DeadEnds:       w.deadEnds,
		DeadEndPaths:   w.deadEndPaths,
		ProcessingTime: elapsed,
		Reported:       true,
	}
}

// deadEndPath renders a dead end as "Kind:pattern".
func deadEndPath(kind core.ScoutKind, pattern string) string {
	return string(kind) + ":" + pattern
}

// failedReport describes a worker that never produced a report of its own.
// It counts as a single dead end.
func failedReport(id string, kind core.ScoutKind, patterns []string, err error) core.ScoutReport {
	return core.ScoutReport{
		ScoutID:      id,
		Kind:         kind,
		Status:       core.ScoutFailed,
		Patterns:     patterns,
		DeadEnds:     1,
		DeadEndPaths: []string{deadEndPath(kind, "*")},
		Err:          err,
	}
}
