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


// Package search answers natural-language queries over the document corpus.
//
// The Orchestrator runs one query end to end: it consults the result
// cache, plans a deployment, runs the scouts under the query's time budget,
// aggregates their reports and caches complete results. Identical queries
// in flight at the same time under the same budget share one run; no caller
// waits on it past its own budget.
//
// The Searcher is the caller-facing layer. It classifies a SearchQuery,
// runs it through the Orchestrator, derives the response views (direct
// matches, insights, risk indicators, compliance flags, anomalies,
// recommendations) and records the query in the history off the request
// path.
//
// Failing to run a query at all is reported as an *OrchestrationError.
// A query that finds nothing is not an error.
package search
