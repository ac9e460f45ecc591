package scout

import (
	"context"
	"slices"
	"sync"

	"github.com/poiesic/quarry/core"
)

// SearchFunc runs one pattern against the document store with the
// deployment's result limit applied.
type SearchFunc func(ctx context.Context, pattern string) ([]core.Hit, error)

// Strategy is one way of searching for evidence.
type Strategy interface {
	// Kind is the scout kind this strategy implements.
	Kind() core.ScoutKind

	// Patterns derives the search patterns for a worker. variant counts the
	// workers of the same kind already deployed for the query, starting at 0.
	Patterns(q *core.Query, variant int) []string

	// ProduceFindings searches for one pattern and converts the hits into
	// findings. An error means the pattern could not be searched at all.
	ProduceFindings(ctx context.Context, q *core.Query, pattern string, search SearchFunc) ([]core.Finding, error)
}

// Registry maps scout kinds to strategies. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	strategies map[core.ScoutKind]Strategy
}

// NewRegistry creates a registry holding strategies.
func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{strategies: make(map[core.ScoutKind]Strategy, len(strategies))}
	for _, s := range strategies {
		r.Register(s)
	}
	return r
}

// DefaultRegistry returns a registry with a strategy for every scout kind.
func DefaultRegistry() *Registry {
	return NewRegistry(
		KeywordHunter{},
		PatternDetector{},
		RelationshipMapper{},
		TimelineBuilder{},
		EntityExtractor{},
		AnomalySpotter{},
		ComplianceChecker{},
		SentimentAnalyzer{},
	)
}

// Register adds or replaces the strategy for s.Kind().
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.Kind()] = s
}

// Get returns the strategy for kind.
func (r *Registry) Get(kind core.ScoutKind) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[kind]
	return s, ok
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []core.ScoutKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]core.ScoutKind, 0, len(r.strategies))
	for k := range r.strategies {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}
