package ai

import "context"

// IntentClassifier labels a free-text query with an intent and scope.
// Implementations must be thread-safe for concurrent use.
type IntentClassifier interface {
	// ClassifyQuery analyzes a query and returns its most likely intent,
	// scope, and salient keywords.
	// Returns an error if classification fails; callers are expected to
	// fall back to a heuristic classifier.
	ClassifyQuery(ctx context.Context, query string) (*QueryAnalysis, error)
}

// QueryAnalysis is the result of classifying a query.
type QueryAnalysis struct {
	// Intent is one of IntentLabels, or empty when the model abstained.
	Intent string

	// Scope is one of ScopeLabels, or empty when the model abstained.
	Scope string

	// Keywords are the terms the model considers central to the query,
	// lowercased.
	Keywords []string

	// Confidence is the model's self-reported confidence from 0 to 1.
	Confidence float64
}

// QuerySuggester proposes follow-up queries.
// Implementations must be thread-safe for concurrent use.
type QuerySuggester interface {
	// SuggestQueries returns up to limit follow-up queries related to query.
	// Themes are short phrases describing what the previous search found
	// and may be empty.
	// Returns an empty slice if nothing useful can be suggested.
	SuggestQueries(ctx context.Context, query string, themes []string, limit int) ([]string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// IntentClassifier returns the query classification service.
	IntentClassifier() IntentClassifier

	// QuerySuggester returns the related query service.
	QuerySuggester() QuerySuggester

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
