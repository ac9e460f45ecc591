package search

import (
	"testing"

	"github.com/poiesic/quarry/aggregate"
	"github.com/poiesic/quarry/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finding(doc core.ID, kind core.ScoutKind, t core.FindingType, conf float32, meta map[string]string) core.Finding {
	if meta == nil {
		meta = map[string]string{}
	}
	return core.Finding{
		DocumentID: doc,
		Scout:      kind,
		Type:       t,
		Confidence: conf,
		Excerpt:    "The merger was approved by the board.",
		Context:    "After a long debate the merger was approved by the board.",
		Metadata:   meta,
	}
}

func TestMatchTypeOf(t *testing.T) {
	tests := []struct {
		in   core.FindingType
		want MatchType
	}{
		{core.FindingDirectMatch, MatchExact},
		{core.FindingRelatedConcept, MatchConceptual},
		{core.FindingAnomaly, MatchPattern},
		{core.FindingComplianceFlag, MatchPattern},
		{core.FindingPersonMention, MatchEntity},
		{core.FindingCompanyReference, MatchEntity},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, MatchTypeOf(tt.in))
		})
	}
}

func TestDirectMatches(t *testing.T) {
	findings := []core.Finding{
		finding(2, core.ScoutKeywordHunter, core.FindingDirectMatch, 0.5, map[string]string{core.MetaPattern: "merger", core.MetaTitle: "minutes.txt"}),
		finding(2, core.ScoutKeywordHunter, core.FindingDirectMatch, 0.4, nil),
		finding(1, core.ScoutKeywordHunter, core.FindingDirectMatch, 0.6, map[string]string{core.MetaPattern: "board"}),
	}
	findings[2].Context = "The board met."

	got := DirectMatches("merger approved", findings)
	require.Len(t, got, 2)

	assert.Equal(t, core.ID(2), got[0].DocumentID)
	assert.InDelta(t, 0.8, got[0].RelevanceScore, 0.0001)
	assert.Equal(t, "minutes.txt", got[0].Title)
	assert.Equal(t, "The **merger** was approved by the board.", got[0].HighlightedText)
	assert.Equal(t, MatchExact, got[0].MatchType)
	assert.Equal(t, string(core.ScoutKeywordHunter), got[0].SourceType)

	assert.Equal(t, core.ID(1), got[1].DocumentID)
	assert.InDelta(t, 0.6, got[1].RelevanceScore, 0.0001)
}

func TestDirectMatches_BoostIsCapped(t *testing.T) {
	got := DirectMatches("merger", []core.Finding{finding(1, core.ScoutKeywordHunter, core.FindingDirectMatch, 0.9, nil)})
	require.Len(t, got, 1)
	assert.Equal(t, float32(1), got[0].RelevanceScore)
}

func TestHighlight(t *testing.T) {
	assert.Equal(t, "see **TechCorp** now", Highlight("see TechCorp now", "techcorp"))
	assert.Equal(t, "nothing here", Highlight("nothing here", "techcorp"))
	assert.Equal(t, "text", Highlight("text", ""))
}

func TestRelatedConcepts(t *testing.T) {
	res := &core.AnalysisResult{
		Findings: []core.Finding{
			finding(3, core.ScoutPatternDetector, core.FindingRelatedConcept, 0.5, map[string]string{core.MetaTerm: "INV-1", core.MetaCategory: "reference"}),
			finding(1, core.ScoutPatternDetector, core.FindingRelatedConcept, 0.7, map[string]string{core.MetaTerm: "inv-1", core.MetaCategory: "reference"}),
			finding(1, core.ScoutKeywordHunter, core.FindingDirectMatch, 0.9, nil),
		},
		Clusters: []core.DocumentCluster{{Theme: "merger", KeyConcepts: []string{"merger", "board"}, Documents: []core.ID{4, 5}, Relevance: 0.6}},
	}

	got := RelatedConcepts(res)
	require.Len(t, got, 3)
	assert.Equal(t, "INV-1", got[0].Concept)
	assert.Equal(t, "reference", got[0].RelationshipType)
	assert.Equal(t, float32(0.7), got[0].Confidence)
	assert.Equal(t, []core.ID{1, 3}, got[0].SupportingDocuments)
	assert.Equal(t, "merger", got[1].Concept)
	assert.Equal(t, "cluster:merger", got[1].RelationshipType)
	assert.Equal(t, []core.ID{4, 5}, got[2].SupportingDocuments)
}

func TestSeverityOf(t *testing.T) {
	tests := []struct {
		conf float32
		want Severity
	}{
		{0.95, SeverityCritical},
		{0.9, SeverityCritical},
		{0.85, SeverityHigh},
		{0.6, SeverityMedium},
		{0.3, SeverityLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, severityOf(tt.conf), "conf %v", tt.conf)
	}
}

func TestRiskIndicators(t *testing.T) {
	findings := []core.Finding{
		finding(2, core.ScoutComplianceChecker, core.FindingRiskIndicator, 0.7, map[string]string{core.MetaCategory: "Legal", core.MetaTerm: "litigation"}),
		finding(1, core.ScoutComplianceChecker, core.FindingRiskIndicator, 0.85, map[string]string{core.MetaCategory: "Legal", core.MetaTerm: "lawsuit"}),
		finding(1, core.ScoutComplianceChecker, core.FindingRiskIndicator, 0.5, map[string]string{core.MetaCategory: "Weather"}),
	}

	got := RiskIndicators(findings)
	require.Len(t, got, 2)
	assert.Equal(t, RiskLegal, got[0].Type)
	assert.Equal(t, SeverityHigh, got[0].Severity)
	assert.Equal(t, []core.ID{1, 2}, got[0].AffectedDocuments)
	assert.Equal(t, "Legal risk language (litigation, lawsuit) in 2 documents", got[0].Description)
	assert.NotEmpty(t, got[0].MitigationSuggestions)
	assert.Equal(t, RiskOperational, got[1].Type)
	assert.Equal(t, SeverityLow, got[1].Severity)
}

func TestComplianceFlags(t *testing.T) {
	findings := []core.Finding{
		finding(1, core.ScoutComplianceChecker, core.FindingComplianceFlag, 0.8, map[string]string{core.MetaCategory: "GDPR", core.MetaFlag: "Violation"}),
		finding(2, core.ScoutComplianceChecker, core.FindingComplianceFlag, 0.6, map[string]string{core.MetaCategory: "SOX", core.MetaFlag: ""}),
	}

	got := ComplianceFlags(findings)
	require.Len(t, got, 2)
	assert.Equal(t, "GDPR", got[0].Regulation)
	assert.Equal(t, FlagViolation, got[0].Type)
	assert.True(t, got[0].RemediationRequired)
	assert.Equal(t, "SOX", got[1].Regulation)
	assert.Equal(t, FlagRequirement, got[1].Type)
	assert.False(t, got[1].RemediationRequired)
}

func TestAnomalies(t *testing.T) {
	var findings []core.Finding
	for _, doc := range []core.ID{1, 2, 3} {
		findings = append(findings, finding(doc, core.ScoutAnomalySpotter, core.FindingAnomaly, 0.6,
			map[string]string{core.MetaCategory: "ContentAnomaly", core.MetaTerm: "discrepancy"}))
	}
	findings = append(findings, finding(4, core.ScoutAnomalySpotter, core.FindingAnomaly, 0.6, nil))

	got := Anomalies(findings)
	require.Len(t, got, 2)
	assert.Equal(t, AnomalyContent, got[0].Type)
	assert.Equal(t, SeverityHigh, got[0].Severity)
	assert.True(t, got[0].RequiresReview)
	assert.Equal(t, "lexicon", got[0].DetectionMethod)
	assert.Equal(t, AnomalyUnusualPattern, got[1].Type)
	assert.Equal(t, SeverityMedium, got[1].Severity)
	assert.False(t, got[1].RequiresReview)
}

func TestRecommendations(t *testing.T) {
	res := &core.AnalysisResult{
		Recommendations: []string{
			aggregate.RecommendBroaden + ": 3 dead ends.",
			aggregate.RecommendReview + " for legal risk.",
			"Something else entirely",
		},
		Findings: []core.Finding{
			finding(7, core.ScoutComplianceChecker, core.FindingRiskIndicator, 0.95, map[string]string{core.MetaCategory: "Privacy"}),
			finding(8, core.ScoutComplianceChecker, core.FindingComplianceFlag, 0.8, map[string]string{core.MetaCategory: "HIPAA", core.MetaFlag: "Gap"}),
		},
	}

	got := Recommendations(res)
	require.Len(t, got, 5)

	assert.Equal(t, RecommendQueryRefinement, got[0].Type)
	assert.Equal(t, PriorityHigh, got[0].Priority)
	assert.Equal(t, RecommendDocumentReview, got[1].Type)
	assert.Equal(t, []core.ID{7, 8}, got[1].RelatedDocuments)
	assert.Equal(t, RecommendAdditionalSearch, got[2].Type)

	assert.Equal(t, RecommendRiskMitigation, got[3].Type)
	assert.Equal(t, PriorityUrgent, got[3].Priority)
	assert.Equal(t, "Mitigate privacy risk", got[3].Description)
	assert.Equal(t, RecommendComplianceAction, got[4].Type)
	assert.Equal(t, "Remediate the HIPAA gap", got[4].Description)
}

func TestInsights(t *testing.T) {
	res := &core.AnalysisResult{
		Entities: []core.Entity{{Name: "Jane Doe"}, {Name: "TechCorp"}},
		Relationships: []core.Relationship{
			{From: "Jane Doe", To: "TechCorp", Type: core.RelationshipNegotiates, Confidence: 0.8},
		},
		Clusters: []core.DocumentCluster{{Theme: "merger", Documents: []core.ID{1, 2}, Relevance: 0.5}},
	}

	got := Insights(res)
	require.Len(t, got, 2)
	assert.Equal(t, InsightRelationshipMapping, got[0].Type)
	assert.Equal(t, "1 relationships link 2 entities", got[0].Description)
	assert.True(t, got[0].Actionable)
	assert.Equal(t, InsightPatternDiscovery, got[1].Type)
	assert.Equal(t, `2 documents share the theme "merger"`, got[1].Description)
}

func TestSearchDepth(t *testing.T) {
	res := &core.AnalysisResult{
		Findings:      []core.Finding{{}},
		Entities:      []core.Entity{{}},
		Relationships: []core.Relationship{{}},
		Timeline:      []core.TimelineEvent{{}},
	}
	assert.Equal(t, 3, SearchDepth(res, 0))
	assert.Equal(t, 2, SearchDepth(res, 1))
	assert.Equal(t, 4, SearchDepth(res, 5))
	assert.Equal(t, 0, SearchDepth(&core.AnalysisResult{}, 2))
}

func TestRespond(t *testing.T) {
	q := dealQuery()
	res := &core.AnalysisResult{
		QueryID:              q.ID,
		Findings:             []core.Finding{finding(1, core.ScoutKeywordHunter, core.FindingDirectMatch, 0.5, nil)},
		DeadEnds:             2,
		ExpansionSuggestions: []string{"who is connected to Jane Doe"},
		Recommendations:      []string{aggregate.RecommendRephrase + "."},
	}

	resp := Respond(q, res)
	assert.Equal(t, q.ID, resp.QueryID)
	assert.Len(t, resp.DirectMatches, 1)
	assert.Equal(t, 2, resp.DeadEndsEncountered)
	assert.Equal(t, 1, resp.SearchDepthAchieved)
	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, RecommendQueryRefinement, resp.Recommendations[0].Type)

	resp.RelatedQueries[0] = "changed"
	assert.Equal(t, "who is connected to Jane Doe", res.ExpansionSuggestions[0])
}
