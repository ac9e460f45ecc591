package mock

import (
	"context"
	"fmt"
	"sync/atomic"
)

// MockQuerySuggester is a test double for ai.QuerySuggester.
type MockQuerySuggester struct {
	// SuggestQueriesFunc is called by SuggestQueries if set.
	// If nil, returns one "<query> <theme>" suggestion per theme.
	SuggestQueriesFunc func(ctx context.Context, query string, themes []string, limit int) ([]string, error)

	callCount atomic.Int64
}

// NewMockQuerySuggester creates a mock suggester with default behavior.
func NewMockQuerySuggester() *MockQuerySuggester {
	return &MockQuerySuggester{}
}

// WithSuggestQueriesFunc sets custom behavior and returns the mock for chaining.
func (m *MockQuerySuggester) WithSuggestQueriesFunc(fn func(ctx context.Context, query string, themes []string, limit int) ([]string, error)) *MockQuerySuggester {
	m.SuggestQueriesFunc = fn
	return m
}

// SuggestQueries returns deterministic suggestions.
func (m *MockQuerySuggester) SuggestQueries(ctx context.Context, query string, themes []string, limit int) ([]string, error) {
	m.callCount.Add(1)

	if m.SuggestQueriesFunc != nil {
		return m.SuggestQueriesFunc(ctx, query, themes, limit)
	}

	out := make([]string, 0, len(themes))
	for _, theme := range themes {
		if len(out) == limit {
			break
		}
		out = append(out, fmt.Sprintf("%s %s", query, theme))
	}
	return out, nil
}

// CallCount returns the number of times SuggestQueries was called.
func (m *MockQuerySuggester) CallCount() int {
	return int(m.callCount.Load())
}
