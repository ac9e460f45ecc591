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


// Package ai provides abstractions for the optional AI services used by quarry.
//
// This package defines interfaces for LLM-assisted query classification and
// related-query suggestion. The engine works without them: every consumer
// falls back to a heuristic when no provider is configured or a call fails.
//
// # Design Principles
//
// The package is designed around three key interfaces:
//
//   - IntentClassifier: labels a query with an intent, scope and keywords
//   - QuerySuggester: proposes follow-up queries for a finished search
//   - AIProvider: aggregates AI services for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewIntentClassifier, etc.)
// return INTERFACE types. Test utility constructors
// (mock.NewMockIntentClassifier, mock.NewMockQuerySuggester) return CONCRETE
// types so tests can inject behavior and read call counts.
//
//	provider, err := openai.NewProvider(ai.DefaultConfig())  // returns ai.AIProvider
//	classifier := mock.NewMockIntentClassifier()            // returns *mock.MockIntentClassifier
//	count := classifier.CallCount()
//
// # Usage Example
//
//	provider, err := openai.NewProvider(ai.NewConfig(ai.WithModel("gpt-4o-mini")))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	analysis, err := provider.IntentClassifier().ClassifyQuery(ctx, "who signed the NDA?")
//	related, err := provider.QuerySuggester().SuggestQueries(ctx, "who signed the NDA?", nil, 5)
package ai
