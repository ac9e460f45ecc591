package search

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/quarry/ai"
	"github.com/poiesic/quarry/classify"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
)

const (
	// DefaultMaxRelatedQueries caps the related queries in a response.
	DefaultMaxRelatedQueries = 5

	defaultHistoryWriters = 4
	historyTimeout        = 5 * time.Second
	releaseTimeout        = 5 * time.Second
	maxThemes             = 5
)

// Searcher answers SearchQuery requests.
type Searcher struct {
	orchestrator *Orchestrator
	classifier   classify.Classifier
	history      storage.HistoryRepository
	suggester    ai.QuerySuggester
	writers      *ants.Pool
	budgets      map[core.Priority]time.Duration
	maxRelated   int
	logger       *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithClassifier sets the query classifier.
// Default is classify.NewHeuristic().
func WithClassifier(c classify.Classifier) Option {
	return func(s *Searcher) error {
		if c != nil {
			s.classifier = c
		}
		return nil
	}
}

// WithHistory records every answered query in repo.
func WithHistory(repo storage.HistoryRepository) Option {
	return func(s *Searcher) error {
		s.history = repo
		return nil
	}
}

// WithSuggester asks suggester for related queries when a request sets
// IncludeSuggestions.
func WithSuggester(suggester ai.QuerySuggester) Option {
	return func(s *Searcher) error {
		s.suggester = suggester
		return nil
	}
}

// WithMaxRelatedQueries caps the related queries in a response.
// Default is DefaultMaxRelatedQueries.
func WithMaxRelatedQueries(n int) Option {
	return func(s *Searcher) error {
		if n >= 0 {
			s.maxRelated = n
		}
		return nil
	}
}

// WithBudgets overrides the time budget of the given priorities. Queries
// carrying an explicit time limit keep it.
func WithBudgets(budgets map[core.Priority]time.Duration) Option {
	return func(s *Searcher) error {
		for p, d := range budgets {
			if d < 0 {
				return fmt.Errorf("negative budget %v for priority %s", d, p)
			}
		}
		s.budgets = maps.Clone(budgets)
		return nil
	}
}

// NewSearcher creates a searcher running queries on orchestrator.
func NewSearcher(orchestrator *Orchestrator, opts ...Option) (*Searcher, error) {
	if orchestrator == nil {
		return nil, ErrOrchestratorRequired
	}

	s := &Searcher{
		orchestrator: orchestrator,
		classifier:   classify.NewHeuristic(),
		maxRelated:   DefaultMaxRelatedQueries,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	if s.history != nil {
		writers, err := ants.NewPool(defaultHistoryWriters, ants.WithNonblocking(true))
		if err != nil {
			return nil, err
		}
		s.writers = writers
	}
	return s, nil
}

// Close waits briefly for pending history writes.
func (s *Searcher) Close() error {
	if s.writers == nil {
		return nil
	}
	return s.writers.ReleaseTimeout(releaseTimeout)
}

// Search answers req.
func (s *Searcher) Search(ctx context.Context, req SearchQuery) (*IntelligentSearchResponse, error) {
	return s.SearchWithMonitor(ctx, req, nil)
}

// SearchWithMonitor answers req, reporting progress to monitor.
// It returns core.ErrEmptyQuery for blank query text and an
// *OrchestrationError when the query could not be run at all.
func (s *Searcher) SearchWithMonitor(ctx context.Context, req SearchQuery, monitor SearchMonitor) (*IntelligentSearchResponse, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, core.ErrEmptyQuery
	}

	start := time.Now()
	q := s.classifier.Classify(ctx, req.Query, classify.Hints{
		Context:           req.Context,
		Intent:            req.IntentHint,
		Scope:             req.ScopeHint,
		Priority:          req.PriorityHint,
		RelationshipDepth: req.RelationshipDepth,
		TimeLimitMs:       req.TimeLimitMs,
	})
	if d, ok := s.budgets[q.Priority]; ok && q.TimeLimitMs == 0 && d > 0 {
		q.TimeLimitMs = max(int(d.Milliseconds()), 1)
	}

	// The budget covers classification too.
	if b := q.Budget(); b > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, start.Add(b))
		defer cancel()
	}

	res, hit, err := s.orchestrator.RunWithMonitor(ctx, q, monitor)
	if err != nil {
		return nil, err
	}

	resp := Respond(q, res)
	resp.CacheHit = hit
	if req.IncludeSuggestions && s.suggester != nil {
		resp.RelatedQueries = s.suggest(ctx, q, res, resp.RelatedQueries)
	}
	if len(resp.RelatedQueries) > s.maxRelated {
		resp.RelatedQueries = resp.RelatedQueries[:s.maxRelated]
	}

	s.record(q, req.UserID, resp)
	monitor.Finish(resp)
	return resp, nil
}

// suggest appends the suggester's related queries to the heuristic ones.
// A failing suggester is logged and ignored.
func (s *Searcher) suggest(ctx context.Context, q *core.Query, res *core.AnalysisResult, related []string) []string {
	var themes []string
	for _, c := range res.Clusters {
		themes = append(themes, c.Theme)
	}
	for _, e := range res.Entities {
		if len(themes) >= maxThemes {
			break
		}
		if e.Type == core.EntityPerson || e.Type == core.EntityCompany {
			themes = append(themes, e.Name)
		}
	}

	suggestions, err := s.suggester.SuggestQueries(ctx, q.Text, themes, s.maxRelated)
	if err != nil {
		s.logger.Warn("related query suggestion failed", "query_id", q.ID, "err", err)
		return related
	}
	out := slices.Clone(related)
	for _, sug := range suggestions {
		sug = strings.TrimSpace(sug)
		if sug == "" || strings.EqualFold(sug, q.Text) {
			continue
		}
		if slices.ContainsFunc(out, func(have string) bool { return strings.EqualFold(have, sug) }) {
			continue
		}
		out = append(out, sug)
	}
	return out
}

// record appends the query to the history off the request path. Failures
// are logged, never returned.
func (s *Searcher) record(q *core.Query, userID string, resp *IntelligentSearchResponse) {
	if s.writers == nil {
		return
	}
	entry := &core.HistoricalQuery{
		QueryID:        q.ID,
		Query:          q.Text,
		Timestamp:      time.Now().UTC(),
		ProcessingTime: resp.ProcessingTime,
		ResultsCount:   len(resp.DirectMatches),
		UserID:         userID,
		CacheHit:       resp.CacheHit,
		Partial:        resp.Partial,
	}
	err := s.writers.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
		defer cancel()
		if err := s.history.AppendQuery(ctx, entry); err != nil {
			s.logger.Warn("failed to record query", "query_id", entry.QueryID, "err", err)
		}
	})
	if err != nil {
		s.logger.Warn("query history busy, entry dropped", "query_id", entry.QueryID, "err", err)
	}
}
