package search

import (
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/scout"
)

// SearchMonitor provides hooks to observe a search.
// Implement this interface to track intermediate steps and results.
// When identical queries share a run, only the caller whose run executed
// sees Planned, Deployed and Aggregated.
type SearchMonitor interface {
	Start(q *core.Query)
	CacheHit(res *core.AnalysisResult)
	Planned(plan core.DeploymentPlan)
	Deployed(dep *scout.Deployment)
	Aggregated(res *core.AnalysisResult)
	Finish(resp *IntelligentSearchResponse)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ *core.Query)                 {}
func (n *noopMonitor) CacheHit(_ *core.AnalysisResult)     {}
func (n *noopMonitor) Planned(_ core.DeploymentPlan)       {}
func (n *noopMonitor) Deployed(_ *scout.Deployment)        {}
func (n *noopMonitor) Aggregated(_ *core.AnalysisResult)   {}
func (n *noopMonitor) Finish(_ *IntelligentSearchResponse) {}
