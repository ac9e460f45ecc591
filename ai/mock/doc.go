// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.IntentClassifier,
// ai.QuerySuggester and ai.AIProvider for use in unit tests. The mocks allow
// tests to run without external AI service dependencies and enable
// controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	analysis, err := mockProvider.IntentClassifier().ClassifyQuery(ctx, "test")
//
//	// Custom behavior injection
//	classifier := mock.NewMockIntentClassifier().
//	    WithClassifyQueryFunc(func(ctx context.Context, q string) (*ai.QueryAnalysis, error) {
//	        return &ai.QueryAnalysis{Intent: "RiskAssessment", Confidence: 0.9}, nil
//	    })
//
//	// Check call counts
//	count := classifier.CallCount()
//
// # Default Behavior
//
//   - MockIntentClassifier: FactFinding/Focused with the query's longer words as keywords
//   - MockQuerySuggester: one "<query> <theme>" suggestion per theme
//   - MockProvider: Aggregates mock classifier and suggester
package mock
