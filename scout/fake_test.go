package scout

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/poiesic/quarry/core"
)

var errStoreDown = errors.New("store down")

// fakeStore serves canned hits by pattern. Unknown patterns return no hits.
type fakeStore struct {
	mu      sync.Mutex
	hits    map[string][]core.Hit
	err     error
	block   bool          // wait for ctx before answering
	release chan struct{} // when set, wait for it and ignore ctx
	calls   atomic.Int64
	limits  []int
}

func (s *fakeStore) Search(ctx context.Context, pattern string, limit int, filters *core.SearchFilters) ([]core.Hit, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.limits = append(s.limits, limit)
	s.mu.Unlock()
	if s.release != nil {
		<-s.release
		return nil, ctx.Err()
	}
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.hits[pattern], nil
}

func (s *fakeStore) DocumentCount(ctx context.Context) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return len(s.hits), nil
}

func (s *fakeStore) DocumentTypeDistribution(ctx context.Context) (map[core.DocumentType]int, error) {
	if s.err != nil {
		return nil, s.err
	}
	return map[core.DocumentType]int{core.DocumentTypePlainText: len(s.hits)}, nil
}

const dealText = "Jane Doe is negotiating the TechCorp acquisition. The TechCorp board meets on 3/14/2023."

func dealHit() core.Hit {
	return core.Hit{
		DocumentID:     1,
		Title:          "acquisition.eml",
		Excerpt:        "Jane Doe is negotiating the TechCorp acquisition.",
		Context:        dealText,
		RelevanceScore: 0.6,
	}
}

func dealStore() *fakeStore {
	return &fakeStore{hits: map[string][]core.Hit{
		"negotiating": {dealHit()},
		"TechCorp":    {dealHit()},
		"techcorp":    {dealHit()},
		"acquisition": {dealHit()},
	}}
}

func searchOf(s *fakeStore) SearchFunc {
	return func(ctx context.Context, pattern string) ([]core.Hit, error) {
		return s.Search(ctx, pattern, DefaultPatternLimit, nil)
	}
}

func dealQuery() *core.Query {
	return &core.Query{
		ID:           "q-1",
		Text:         "who is negotiating the TechCorp acquisition",
		Scope:        core.ScopeFocused,
		Priority:     core.PriorityUrgent,
		ContextHints: []string{"board minutes"},
	}
}

// panicStrategy blows up while searching.
type panicStrategy struct{}

func (panicStrategy) Kind() core.ScoutKind { return core.ScoutSentimentAnalyzer }

func (panicStrategy) Patterns(q *core.Query, _ int) []string { return []string{"x"} }

func (panicStrategy) ProduceFindings(ctx context.Context, q *core.Query, pattern string, search SearchFunc) ([]core.Finding, error) {
	panic("boom")
}
