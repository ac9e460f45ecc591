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


package planner

import (
	"github.com/poiesic/quarry/classify"
	"github.com/poiesic/quarry/core"
)

const (
	adaptiveWorkers        = 5
	maxAdaptiveClusters    = 10
	docsPerCluster         = 50
	docsPerExhaustiveGroup = 100
)

// urgentKinds is the fixed lineup for focused, urgent queries.
var urgentKinds = []core.ScoutKind{
	core.ScoutKeywordHunter,
	core.ScoutEntityExtractor,
	core.ScoutRelationshipMapper,
}

// contentKinds are added on the adaptive path, in this order, when the
// query mentions one of their triggers.
var contentKinds = []struct {
	kind     core.ScoutKind
	triggers []string
}{
	{core.ScoutEntityExtractor, classify.EntityTriggers},
	{core.ScoutTimelineBuilder, classify.TimelineTriggers},
	{core.ScoutRelationshipMapper, classify.RelationshipTriggers},
	{core.ScoutComplianceChecker, classify.ComplianceTriggers},
	{core.ScoutAnomalySpotter, classify.AnomalyTriggers},
}

// Plan builds the deployment plan for q. It never fails and never divides
// by a zero document count.
func Plan(q *core.Query, stats core.CorpusStats) core.DeploymentPlan {
	docs := max(stats.DocumentCount, 0)

	switch {
	case q.Scope == core.ScopeExhaustive && q.Priority == core.PriorityBackground:
		kinds := make([]core.ScoutKind, len(core.ScoutKinds))
		copy(kinds, core.ScoutKinds)
		return core.DeploymentPlan{
			WorkerCount:      len(kinds),
			Kinds:            kinds,
			TargetClusters:   max(1, docs/docsPerExhaustiveGroup),
			DeadEndAllowance: 2,
			Parallel:         true,
		}

	case q.Scope == core.ScopeFocused && q.Priority == core.PriorityUrgent:
		kinds := make([]core.ScoutKind, len(urgentKinds))
		copy(kinds, urgentKinds)
		return core.DeploymentPlan{
			WorkerCount:      len(kinds),
			Kinds:            kinds,
			TargetClusters:   1,
			DeadEndAllowance: 0,
			Parallel:         true,
		}
	}

	kinds := adaptiveKinds(q.Text)
	return core.DeploymentPlan{
		WorkerCount:      len(kinds),
		Kinds:            kinds,
		TargetClusters:   min(max(docs/docsPerCluster, 1), maxAdaptiveClusters),
		DeadEndAllowance: 1,
		Parallel:         true,
	}
}

// adaptiveKinds always starts with a KeywordHunter, adds triggered kinds in
// priority order, and pads with further KeywordHunters up to five.
func adaptiveKinds(text string) []core.ScoutKind {
	kinds := []core.ScoutKind{core.ScoutKeywordHunter}
	for _, ck := range contentKinds {
		if len(kinds) == adaptiveWorkers {
			break
		}
		if classify.Mentions(text, ck.triggers) {
			kinds = append(kinds, ck.kind)
		}
	}
	for len(kinds) < adaptiveWorkers {
		kinds = append(kinds, core.ScoutKeywordHunter)
	}
	return kinds
}
