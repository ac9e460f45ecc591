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


package core

import "time"

// Intent is what the caller is trying to learn from the corpus.
type Intent string

const (
	IntentFactFinding            Intent = "FactFinding"
	IntentRelationshipMapping    Intent = "RelationshipMapping"
	IntentTimelineAnalysis       Intent = "TimelineAnalysis"
	IntentRiskAssessment         Intent = "RiskAssessment"
	IntentEntityExtraction       Intent = "EntityExtraction"
	IntentDocumentClassification Intent = "DocumentClassification"
	IntentAnomalyDetection       Intent = "AnomalyDetection"
	IntentComplianceAudit        Intent = "ComplianceAudit"
)

// Intents lists every intent in declaration order.
var Intents = []Intent{
	IntentFactFinding,
	IntentRelationshipMapping,
	IntentTimelineAnalysis,
	IntentRiskAssessment,
	IntentEntityExtraction,
	IntentDocumentClassification,
	IntentAnomalyDetection,
	IntentComplianceAudit,
}

// Scope controls how much of the corpus a query may touch.
type Scope string

const (
	ScopeNarrow     Scope = "Narrow"
	ScopeFocused    Scope = "Focused"
	ScopeBroad      Scope = "Broad"
	ScopeExhaustive Scope = "Exhaustive"
)

// Priority is the latency class of a query.
type Priority string

const (
	PriorityUrgent     Priority = "Urgent"
	PriorityHigh       Priority = "High"
	PriorityNormal     Priority = "Normal"
	PriorityBackground Priority = "Background"
)

// Budget returns the wall-clock budget implied by the priority.
// Background has no bound and returns 0.
func (p Priority) Budget() time.Duration {
	switch p {
	case PriorityUrgent:
		return time.Second
	case PriorityHigh:
		return 5 * time.Second
	case PriorityNormal:
		return 30 * time.Second
	default:
		return 0
	}
}

// DefaultRelationshipDepth is used when the caller does not ask for one.
const DefaultRelationshipDepth = 2

// Query is a classified, immutable request to the orchestrator.
type Query struct {
	ID                string
	Text              string
	Intent            Intent
	Scope             Scope
	Priority          Priority
	ContextHints      []string
	RelationshipDepth int
	TimeLimitMs       int // 0 means use the priority budget
}

// Budget returns the effective time budget for the query.
// An explicit TimeLimitMs takes precedence over the priority budget.
// Zero means unbounded.
func (q *Query) Budget() time.Duration {
	if q.TimeLimitMs > 0 {
		return time.Duration(q.TimeLimitMs) * time.Millisecond
	}
	return q.Priority.Budget()
}
