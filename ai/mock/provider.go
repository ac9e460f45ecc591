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


package mock

import "github.com/poiesic/quarry/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock classifier and suggester instances.
type MockProvider struct {
	classifier *MockIntentClassifier
	suggester  *MockQuerySuggester
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use GetMockClassifier()/GetMockSuggester() to access concrete types for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		classifier: NewMockIntentClassifier(),
		suggester:  NewMockQuerySuggester(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// This allows full control over the behavior of each service.
func NewMockProviderWithServices(classifier *MockIntentClassifier, suggester *MockQuerySuggester) ai.AIProvider {
	return &MockProvider{
		classifier: classifier,
		suggester:  suggester,
	}
}

// IntentClassifier returns the mock classifier.
func (p *MockProvider) IntentClassifier() ai.IntentClassifier {
	return p.classifier
}

// QuerySuggester returns the mock suggester.
func (p *MockProvider) QuerySuggester() ai.QuerySuggester {
	return p.suggester
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockClassifier returns the underlying mock classifier for test assertions.
func (p *MockProvider) GetMockClassifier() *MockIntentClassifier {
	return p.classifier
}

// GetMockSuggester returns the underlying mock suggester for test assertions.
func (p *MockProvider) GetMockSuggester() *MockQuerySuggester {
	return p.suggester
}
