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


package openai

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/quarry/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// IntentClassifier implements ai.IntentClassifier using OpenAI-compatible chat APIs.
type IntentClassifier struct {
	client llms.Model
	logger *slog.Logger
}

// classification is an internal type used for JSON unmarshaling.
// It matches the structure expected from the LLM.
type classification struct {
	Intent     string   `json:"intent"`
	Scope      string   `json:"scope"`
	Keywords   []string `json:"keywords"`
	Confidence float64  `json:"confidence"`
}

// newClient creates the chat client shared by the services.
// Use "none" as token for local OpenAI-compatible services that don't require authentication.
func newClient(config *ai.Config) (llms.Model, error) {
	return openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken("none"),
		openai.WithModel(config.Model),
	)
}

// newIntentClassifier is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newIntentClassifier(config *ai.Config) (*IntentClassifier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client, err := newClient(config)
	if err != nil {
		return nil, err
	}
	return &IntentClassifier{
		client: client,
		logger: slog.Default().With("component", "openai-classifier"),
	}, nil
}

// NewIntentClassifier creates a new intent classifier using the provided configuration.
//
// Returns ai.IntentClassifier interface to enforce abstraction.
func NewIntentClassifier(config *ai.Config) (ai.IntentClassifier, error) {
	return newIntentClassifier(config)
}

// ClassifyQuery asks the model for the query's intent, scope and keywords.
// Labels outside the known vocabularies are blanked rather than rejected.
func (c *IntentClassifier) ClassifyQuery(ctx context.Context, query string) (*ai.QueryAnalysis, error) {
	query = compactQuery(query)
	if query == "" {
		return &ai.QueryAnalysis{}, nil
	}

	var result classification
	ok, err := generateJSON(ctx, c.client, c.logger, buildClassificationPrompt(), query, &result)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &ai.QueryAnalysis{}, nil
	}

	analysis := &ai.QueryAnalysis{
		Intent:     matchLabel(result.Intent, ai.IntentLabels),
		Scope:      matchLabel(result.Scope, ai.ScopeLabels),
		Confidence: min(max(result.Confidence, 0), 1),
	}
	for _, k := range result.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && !slices.Contains(analysis.Keywords, k) {
			analysis.Keywords = append(analysis.Keywords, k)
		}
	}

	c.logger.Debug("classified query",
		"intent", analysis.Intent,
		"scope", analysis.Scope,
		"confidence", analysis.Confidence)
	return analysis, nil
}

// matchLabel returns the label equal to s ignoring case, or "".
func matchLabel(s string, labels []string) string {
	s = strings.TrimSpace(s)
	for _, l := range labels {
		if strings.EqualFold(s, l) {
			return l
		}
	}
	return ""
}
