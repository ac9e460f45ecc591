package mock

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/poiesic/quarry/ai"
)

// MockIntentClassifier is a test double for ai.IntentClassifier.
// It allows custom behavior injection via function fields.
type MockIntentClassifier struct {
	// ClassifyQueryFunc is called by ClassifyQuery if set.
	// If nil, returns a FactFinding analysis built from the query words.
	ClassifyQueryFunc func(ctx context.Context, query string) (*ai.QueryAnalysis, error)

	callCount atomic.Int64
}

// NewMockIntentClassifier creates a mock classifier with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockIntentClassifier() *MockIntentClassifier {
	return &MockIntentClassifier{}
}

// WithClassifyQueryFunc sets custom behavior and returns the mock for chaining.
func (m *MockIntentClassifier) WithClassifyQueryFunc(fn func(ctx context.Context, query string) (*ai.QueryAnalysis, error)) *MockIntentClassifier {
	m.ClassifyQueryFunc = fn
	return m
}

// ClassifyQuery returns a canned analysis.
func (m *MockIntentClassifier) ClassifyQuery(ctx context.Context, query string) (*ai.QueryAnalysis, error) {
	m.callCount.Add(1)

	if m.ClassifyQueryFunc != nil {
		return m.ClassifyQueryFunc(ctx, query)
	}

	var keywords []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, ".,!?;:\"'()[]{}")
		if len(w) > 3 {
			keywords = append(keywords, w)
		}
	}
	return &ai.QueryAnalysis{
		Intent:     "FactFinding",
		Scope:      "Focused",
		Keywords:   keywords,
		Confidence: 1,
	}, nil
}

// CallCount returns the number of times ClassifyQuery was called.
func (m *MockIntentClassifier) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom functions.
func (m *MockIntentClassifier) Reset() {
	m.callCount.Store(0)
	m.ClassifyQueryFunc = nil
}
