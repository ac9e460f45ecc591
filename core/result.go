package core

import (
	"maps"
	"slices"
	"time"
)

// DeploymentPlan is the planner's decision for one query.
type DeploymentPlan struct {
	WorkerCount      int
	Kinds            []ScoutKind
	TargetClusters   int
	DeadEndAllowance int
	Parallel         bool
}

// AnalysisResult is the output of one orchestration run and the unit
// stored in the result cache.
type AnalysisResult struct {
	QueryID              string
	Query                string
	ProcessingTime       time.Duration
	ScoutsDeployed       int
	DocumentsAnalyzed    int
	Findings             []Finding
	Relationships        []Relationship
	Entities             []Entity
	Timeline             []TimelineEvent
	Clusters             []DocumentCluster
	Confidence           float32
	Recommendations      []string
	DeadEnds             int
	DeadEndPaths         []string
	ExpansionSuggestions []string
	Partial              bool
	Plan                 DeploymentPlan
}

// Clone returns a deep copy of r. Nothing in the copy shares memory with r.
func (r *AnalysisResult) Clone() *AnalysisResult {
	if r == nil {
		return nil
	}
	c := *r
	c.Findings = slices.Clone(r.Findings)
	for i := range c.Findings {
		f := &c.Findings[i]
		f.RelatedEntities = slices.Clone(f.RelatedEntities)
		f.Metadata = maps.Clone(f.Metadata)
	}
	c.Relationships = slices.Clone(r.Relationships)
	for i := range c.Relationships {
		c.Relationships[i].Documents = slices.Clone(c.Relationships[i].Documents)
	}
	c.Entities = slices.Clone(r.Entities)
	for i := range c.Entities {
		e := &c.Entities[i]
		e.Documents = slices.Clone(e.Documents)
		e.Aliases = slices.Clone(e.Aliases)
		e.Metadata = maps.Clone(e.Metadata)
	}
	c.Timeline = slices.Clone(r.Timeline)
	for i := range c.Timeline {
		ev := &c.Timeline[i]
		ev.Entities = slices.Clone(ev.Entities)
		ev.Documents = slices.Clone(ev.Documents)
	}
	c.Clusters = slices.Clone(r.Clusters)
	for i := range c.Clusters {
		cl := &c.Clusters[i]
		cl.Documents = slices.Clone(cl.Documents)
		cl.KeyConcepts = slices.Clone(cl.KeyConcepts)
		if cl.Span != nil {
			span := *cl.Span
			cl.Span = &span
		}
	}
	c.Recommendations = slices.Clone(r.Recommendations)
	c.DeadEndPaths = slices.Clone(r.DeadEndPaths)
	c.ExpansionSuggestions = slices.Clone(r.ExpansionSuggestions)
	c.Plan.Kinds = slices.Clone(r.Plan.Kinds)
	return &c
}
