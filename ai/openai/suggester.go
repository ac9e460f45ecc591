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
	"strings"

	"github.com/poiesic/quarry/ai"
	"github.com/tmc/langchaingo/llms"
)

// QuerySuggester implements ai.QuerySuggester using OpenAI-compatible chat APIs.
type QuerySuggester struct {
	client   llms.Model
	maxLimit int
	logger   *slog.Logger
}

type suggestions struct {
	Queries []string `json:"queries"`
}

func newQuerySuggester(config *ai.Config) (*QuerySuggester, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client, err := newClient(config)
	if err != nil {
		return nil, err
	}
	return &QuerySuggester{
		client:   client,
		maxLimit: config.MaxSuggestions,
		logger:   slog.Default().With("component", "openai-suggester"),
	}, nil
}

// NewQuerySuggester creates a new query suggester using the provided configuration.
//
// Returns ai.QuerySuggester interface to enforce abstraction.
func NewQuerySuggester(config *ai.Config) (ai.QuerySuggester, error) {
	return newQuerySuggester(config)
}

// SuggestQueries asks the model for follow-up queries. Suggestions equal to
// the original query or to each other (ignoring case) are dropped.
func (s *QuerySuggester) SuggestQueries(ctx context.Context, query string, themes []string, limit int) ([]string, error) {
	query = compactQuery(query)
	if query == "" || limit <= 0 {
		return []string{}, nil
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	var result suggestions
	ok, err := generateJSON(ctx, s.client, s.logger, buildSuggestionPrompt(limit), buildSuggestionInput(query, themes), &result)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []string{}, nil
	}

	seen := map[string]bool{strings.ToLower(query): true}
	out := make([]string, 0, limit)
	for _, q := range result.Queries {
		q = compactQuery(q)
		key := strings.ToLower(q)
		if q == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
		if len(out) == limit {
			break
		}
	}
	s.logger.Debug("suggested queries", "returned", len(result.Queries), "kept", len(out))
	return out, nil
}
