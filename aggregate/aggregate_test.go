package aggregate

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/quarry/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dealText = "Jane Doe is negotiating the TechCorp acquisition. The TechCorp board meets on 3/14/2023."

func finding(doc core.ID, kind core.ScoutKind, t core.FindingType, entity string, conf float32, context string, related ...string) core.Finding {
	meta := map[string]string{core.MetaPattern: "p"}
	if entity != "" {
		meta[core.MetaEntity] = entity
	}
	return core.Finding{
		DocumentID:      doc,
		Scout:           kind,
		Type:            t,
		Confidence:      conf,
		Excerpt:         context,
		Context:         context,
		RelatedEntities: related,
		Metadata:        meta,
	}
}

func dealReports() []core.ScoutReport {
	return []core.ScoutReport{
		{
			Kind: core.ScoutKeywordHunter, Status: core.ScoutCompleted, Reported: true,
			Findings: []core.Finding{
				finding(1, core.ScoutKeywordHunter, core.FindingDirectMatch, "", 0.6, dealText, "negotiating"),
			},
		},
		{
			Kind: core.ScoutEntityExtractor, Status: core.ScoutCompleted, Reported: true,
			Findings: []core.Finding{
				finding(1, core.ScoutEntityExtractor, core.FindingPersonMention, "Jane Doe", 0.7, dealText, "Jane Doe", "TechCorp"),
				finding(1, core.ScoutEntityExtractor, core.FindingCompanyReference, "TechCorp", 0.75, dealText, "Jane Doe", "TechCorp"),
				finding(1, core.ScoutEntityExtractor, core.FindingDateReference, "3/14/2023", 0.85, dealText, "Jane Doe", "TechCorp"),
			},
		},
		{
			Kind: core.ScoutRelationshipMapper, Status: core.ScoutCompleted, Reported: true,
			Findings: []core.Finding{
				finding(1, core.ScoutRelationshipMapper, core.FindingRelatedConcept, "", 0.6, dealText, "Jane Doe", "TechCorp"),
			},
		},
	}
}

func dealQuery() *core.Query {
	return &core.Query{ID: "q-1", Text: "who is negotiating the TechCorp acquisition", Scope: core.ScopeFocused, Priority: core.PriorityUrgent}
}

func urgentPlan() core.DeploymentPlan {
	kinds := []core.ScoutKind{core.ScoutKeywordHunter, core.ScoutEntityExtractor, core.ScoutRelationshipMapper}
	return core.DeploymentPlan{WorkerCount: 3, Kinds: kinds, TargetClusters: 1, Parallel: true}
}

func newAggregator(t *testing.T, opts ...Option) *Aggregator {
	t.Helper()
	a, err := New(opts...)
	require.NoError(t, err)
	return a
}

// assertNoDangling checks that everything a result references is in the
// result's own entity and finding lists.
func assertNoDangling(t *testing.T, res *core.AnalysisResult) {
	t.Helper()
	names := make(map[string]bool)
	for _, e := range res.Entities {
		names[e.Name] = true
	}
	docs := make(map[core.ID]bool)
	for _, id := range DistinctDocuments(res.Findings) {
		docs[id] = true
	}

	for _, r := range res.Relationships {
		assert.True(t, names[r.From], "relationship from %q", r.From)
		assert.True(t, names[r.To], "relationship to %q", r.To)
		for _, id := range r.Documents {
			assert.True(t, docs[id], "relationship document %d", id)
		}
	}
	for _, ev := range res.Timeline {
		for _, n := range ev.Entities {
			assert.True(t, names[n], "event entity %q", n)
		}
		for _, id := range ev.Documents {
			assert.True(t, docs[id], "event document %d", id)
		}
	}
	for _, c := range res.Clusters {
		for _, id := range c.Documents {
			assert.True(t, docs[id], "cluster document %d", id)
		}
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(WithMinClusterSize(0))
	assert.ErrorIs(t, err, ErrInvalidClusterSize)

	_, err = New(WithMaxSuggestions(-1))
	assert.ErrorIs(t, err, ErrInvalidSuggestionLimit)
}

func TestAggregate_EmptyIsValid(t *testing.T) {
	res := newAggregator(t).Aggregate(Input{Query: dealQuery(), Plan: urgentPlan()})

	assert.Equal(t, "q-1", res.QueryID)
	assert.Equal(t, 3, res.ScoutsDeployed)
	assert.Zero(t, res.DocumentsAnalyzed)
	assert.Zero(t, res.Confidence)
	assert.Empty(t, res.Entities)
	assert.Empty(t, res.Relationships)
	assert.Empty(t, res.Timeline)
	assert.Empty(t, res.Clusters)
	require.Len(t, res.Recommendations, 1)
	assert.True(t, strings.HasPrefix(res.Recommendations[0], RecommendRephrase))
}

func TestAggregate_NilQuery(t *testing.T) {
	res := newAggregator(t).Aggregate(Input{})
	assert.NotNil(t, res)
	assert.Zero(t, res.ScoutsDeployed)
}

func TestAggregate_DealScenario(t *testing.T) {
	res := newAggregator(t).Aggregate(Input{Query: dealQuery(), Plan: urgentPlan(), Reports: dealReports()})

	assert.Equal(t, 3, res.ScoutsDeployed)
	assert.Equal(t, 1, res.DocumentsAnalyzed)
	assert.Len(t, res.Findings, 5)
	assert.InDelta(t, (0.6+0.7+0.75+0.85+0.6)/5, res.Confidence, 1e-4)

	require.Len(t, res.Entities, 3)
	assert.Equal(t, "3/14/2023", res.Entities[0].Name)
	assert.Equal(t, "TechCorp", res.Entities[1].Name)
	assert.Equal(t, "Jane Doe", res.Entities[2].Name)

	require.Len(t, res.Relationships, 1)
	rel := res.Relationships[0]
	assert.Equal(t, "Jane Doe", rel.From)
	assert.Equal(t, "TechCorp", rel.To)
	assert.Equal(t, core.RelationshipNegotiates, rel.Type)
	assert.Equal(t, "Jane Doe is negotiating the TechCorp", rel.Context)
	assert.InDelta(t, (0.7+0.75+0.85+0.6)/4, rel.Confidence, 1e-4)

	require.Len(t, res.Timeline, 1)
	assert.True(t, res.Timeline[0].Timestamp.Equal(time.Date(2023, 3, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, []string{"Jane Doe", "TechCorp"}, res.Timeline[0].Entities)

	// One document cannot form a cluster.
	assert.Empty(t, res.Clusters)
	assert.Empty(t, res.Recommendations)
	assert.Contains(t, res.ExpansionSuggestions, "who is connected to Jane Doe")
	assertNoDangling(t, res)
}

func TestAggregate_DeadEnds(t *testing.T) {
	reports := []core.ScoutReport{
		{Kind: core.ScoutKeywordHunter, DeadEnds: 1, DeadEndPaths: []string{"KeywordHunter:merger"}, Reported: true},
		{Kind: core.ScoutTimelineBuilder, DeadEnds: 1, DeadEndPaths: []string{"TimelineBuilder:*"}},
	}
	tests := []struct {
		name      string
		allowance int
		broaden   bool
	}{
		{"over allowance", 1, true},
		{"at allowance", 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := core.DeploymentPlan{Kinds: []core.ScoutKind{core.ScoutKeywordHunter, core.ScoutTimelineBuilder}, DeadEndAllowance: tt.allowance}
			res := newAggregator(t).Aggregate(Input{Query: dealQuery(), Plan: plan, Reports: reports})

			assert.Equal(t, 2, res.DeadEnds)
			assert.Equal(t, []string{"KeywordHunter:merger", "TimelineBuilder:*"}, res.DeadEndPaths)
			assert.Equal(t, tt.broaden, hasRecommendation(res, RecommendBroaden))
		})
	}
}

func TestAggregate_PartialRecommendsRetry(t *testing.T) {
	reports := dealReports()
	reports[2] = core.ScoutReport{Kind: core.ScoutRelationshipMapper, Status: core.ScoutFailed, DeadEnds: 1}
	res := newAggregator(t).Aggregate(Input{Query: dealQuery(), Plan: urgentPlan(), Reports: reports, Partial: true})

	assert.True(t, res.Partial)
	assert.True(t, hasRecommendation(res, RecommendRetry))
	assert.True(t, hasRecommendation(res, RecommendBroaden))
	assert.True(t, hasRecommendation(res, RecommendRelationship))
	assertNoDangling(t, res)
}

func TestAggregate_FlaggedDocumentsRecommendReview(t *testing.T) {
	reports := []core.ScoutReport{{
		Kind:     core.ScoutComplianceChecker,
		Reported: true,
		Findings: []core.Finding{
			finding(4, core.ScoutComplianceChecker, core.FindingComplianceFlag, "", 0.75, "GDPR consent is required."),
			finding(5, core.ScoutComplianceChecker, core.FindingRiskIndicator, "", 0.7, "The lawsuit is pending."),
		},
	}}
	res := newAggregator(t).Aggregate(Input{Query: dealQuery(), Plan: urgentPlan(), Reports: reports})
	assert.True(t, hasRecommendation(res, RecommendReview))
}

func hasRecommendation(res *core.AnalysisResult, prefix string) bool {
	for _, r := range res.Recommendations {
		if strings.HasPrefix(r, prefix) {
			return true
		}
	}
	return false
}

func TestEntities_MergeKeepsMaxConfidence(t *testing.T) {
	findings := []core.Finding{
		finding(1, core.ScoutEntityExtractor, core.FindingPersonMention, "Jane Doe", 0.9, "Jane Doe signed."),
		finding(2, core.ScoutRelationshipMapper, core.FindingPersonMention, "jane  doe", 0.6, "jane doe called."),
		finding(2, core.ScoutKeywordHunter, core.FindingDirectMatch, "Jane Doe", 1, "Jane Doe"),
	}
	findings[1].Metadata[core.MetaTitle] = "call.eml"

	entities := Entities(findings)
	require.Len(t, entities, 1)
	e := entities[0]
	assert.Equal(t, "Jane Doe", e.Name)
	assert.Equal(t, core.EntityPerson, e.Type)
	assert.InDelta(t, 0.9, e.Confidence, 1e-6)
	assert.Equal(t, []core.ID{1, 2}, e.Documents)
	assert.Equal(t, []string{"jane doe"}, e.Aliases)
	assert.Equal(t, "call.eml", e.Metadata[core.MetaTitle])
	assert.Equal(t, string(core.ScoutEntityExtractor), e.Metadata[MetaSource])
	assert.NotContains(t, e.Metadata, core.MetaPattern)
}

func TestEntities_IndependentOfOrder(t *testing.T) {
	findings := []core.Finding{
		finding(1, core.ScoutEntityExtractor, core.FindingPersonMention, "JANE DOE", 0.8, ""),
		finding(2, core.ScoutRelationshipMapper, core.FindingCompanyReference, "Jane Doe", 0.8, ""),
		finding(3, core.ScoutEntityExtractor, core.FindingCompanyReference, "TechCorp", 0.75, ""),
	}
	findings[1].Metadata[core.MetaTitle] = "call.eml"

	forward := Entities(findings)
	reversed := slices.Clone(findings)
	slices.Reverse(reversed)
	assert.Equal(t, forward, Entities(reversed))

	require.Len(t, forward, 2)
	e := forward[0]
	assert.Equal(t, "JANE DOE", e.Name)
	assert.Equal(t, core.EntityPerson, e.Type)
	assert.Equal(t, []string{"Jane Doe"}, e.Aliases)
	assert.Equal(t, []core.ID{1, 2}, e.Documents)
	assert.Equal(t, "call.eml", e.Metadata[core.MetaTitle])
	assert.Equal(t, string(core.ScoutEntityExtractor), e.Metadata[MetaSource])
}

func TestEntities_Ordering(t *testing.T) {
	findings := []core.Finding{
		finding(1, core.ScoutEntityExtractor, core.FindingPersonMention, "Zoe Adams", 0.7, ""),
		finding(1, core.ScoutEntityExtractor, core.FindingMonetaryAmount, "$5,000", 0.9, ""),
		finding(1, core.ScoutEntityExtractor, core.FindingPersonMention, "Adam Zane", 0.7, ""),
		finding(1, core.ScoutEntityExtractor, core.FindingPersonMention, "", 0.7, ""),
	}
	var names []string
	for _, e := range Entities(findings) {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"$5,000", "Adam Zane", "Zoe Adams"}, names)
}

func TestClassifyLink(t *testing.T) {
	tests := []struct {
		text     string
		a, b     string
		from, to string
		kind     core.RelationshipType
		ok       bool
	}{
		{"Jane Doe works for Globex Corporation.", "Jane Doe", "Globex Corporation", "Jane Doe", "Globex Corporation", core.RelationshipWorksFor, true},
		{"Jane Doe reports to John Smith.", "Jane Doe", "John Smith", "Jane Doe", "John Smith", core.RelationshipReportsTo, true},
		{"TechCorp paid Jane Doe $5,000.", "Jane Doe", "TechCorp", "TechCorp", "Jane Doe", core.RelationshipFinancial, true},
		{"Jane Doe sued TechCorp last year.", "Jane Doe", "TechCorp", "Jane Doe", "TechCorp", core.RelationshipLegal, true},
		{"Globex competes with TechCorp.", "Globex", "TechCorp", "Globex", "TechCorp", core.RelationshipCompetes, true},
		{"Alice Brown and Bob Green were seen.", "Alice Brown", "Bob Green", "", "", "", false},
		{"Jane Doe called.", "Jane Doe", "TechCorp", "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			from, to, kind, _, ok := ClassifyLink(tt.text, tt.a, tt.b)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.from, from)
			assert.Equal(t, tt.to, to)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestRelationships(t *testing.T) {
	people := []core.Finding{
		finding(1, core.ScoutEntityExtractor, core.FindingPersonMention, "John Smith", 0.7, ""),
		finding(1, core.ScoutEntityExtractor, core.FindingCompanyReference, "Globex Corporation", 0.75, ""),
		finding(1, core.ScoutEntityExtractor, core.FindingPersonMention, "Alice Brown", 0.7, ""),
		finding(1, core.ScoutEntityExtractor, core.FindingPersonMention, "Bob Green", 0.7, ""),
	}

	t.Run("highest ranked rule wins", func(t *testing.T) {
		findings := append([]core.Finding{
			finding(1, core.ScoutRelationshipMapper, core.FindingRelatedConcept, "", 0.5, "John Smith met Globex Corporation staff.", "John Smith", "Globex Corporation"),
			finding(2, core.ScoutRelationshipMapper, core.FindingRelatedConcept, "", 0.9, "John Smith works for Globex Corporation.", "John Smith", "Globex Corporation"),
		}, people...)
		rels := Relationships(findings, Entities(findings))
		require.Len(t, rels, 1)
		assert.Equal(t, core.RelationshipWorksFor, rels[0].Type)
		assert.Equal(t, "John Smith works for Globex Corporation", rels[0].Context)
		assert.Equal(t, []core.ID{1, 2}, rels[0].Documents)
		assert.InDelta(t, 0.7, rels[0].Confidence, 1e-6)
	})

	t.Run("unresolved pair is not linked", func(t *testing.T) {
		findings := append([]core.Finding{
			finding(1, core.ScoutRelationshipMapper, core.FindingRelatedConcept, "", 0.5, "Alice Brown and Bob Green were seen.", "Alice Brown", "Bob Green"),
		}, people...)
		assert.Empty(t, Relationships(findings, Entities(findings)))
	})

	t.Run("names outside the entity list are ignored", func(t *testing.T) {
		findings := append([]core.Finding{
			finding(1, core.ScoutRelationshipMapper, core.FindingRelatedConcept, "", 0.5, "John Smith works for Ghost Holdings.", "John Smith", "Ghost Holdings"),
		}, people...)
		assert.Empty(t, Relationships(findings, Entities(findings)))
	})
}

func TestTimeline(t *testing.T) {
	meeting := "The TechCorp board meets on 3/14/2023."
	closing := "The deal closed on 2023-06-01."
	findings := []core.Finding{
		finding(1, core.ScoutEntityExtractor, core.FindingCompanyReference, "TechCorp", 0.75, meeting),
		finding(2, core.ScoutTimelineBuilder, core.FindingDateReference, "2023-06-01", 0.85, closing, "TechCorp", "Ghost Holdings"),
		finding(1, core.ScoutEntityExtractor, core.FindingDateReference, "3/14/2023", 0.7, meeting, "TechCorp"),
		finding(1, core.ScoutTimelineBuilder, core.FindingDateReference, "3/14/2023", 0.85, meeting, "TechCorp"),
		finding(3, core.ScoutTimelineBuilder, core.FindingDateReference, "next tuesday", 0.4, "See you next tuesday."),
	}
	findings[1].Metadata[core.MetaCategory] = "Closing"
	findings[3].Metadata[core.MetaCategory] = "Meeting"

	events := Timeline(findings, Entities(findings))
	require.Len(t, events, 2)

	first, second := events[0], events[1]
	assert.True(t, first.Timestamp.Equal(time.Date(2023, 3, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Meeting", first.EventType)
	assert.Equal(t, meeting, first.Summary)
	assert.InDelta(t, 0.85, first.Importance, 1e-6)
	assert.Equal(t, []core.ID{1}, first.Documents)
	assert.Equal(t, []string{"TechCorp"}, first.Entities)

	assert.True(t, second.Timestamp.Equal(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Closing", second.EventType)
	assert.Equal(t, []string{"TechCorp"}, second.Entities)

	// IDs are stable across runs.
	again := Timeline(findings, Entities(findings))
	assert.Equal(t, first.ID, again[0].ID)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestTimeline_WithoutCategoryUsesDefault(t *testing.T) {
	findings := []core.Finding{
		finding(1, core.ScoutEntityExtractor, core.FindingDateReference, "March 5, 2024", 0.85, "Due March 5, 2024."),
	}
	events := Timeline(findings, nil)
	require.Len(t, events, 1)
	assert.Equal(t, DefaultEventType, events[0].EventType)
	assert.Empty(t, events[0].Entities)
}

func TestClusters(t *testing.T) {
	findings := []core.Finding{
		finding(1, core.ScoutKeywordHunter, core.FindingDirectMatch, "", 0.8, "merger merger talks"),
		finding(2, core.ScoutKeywordHunter, core.FindingDirectMatch, "", 0.6, "merger merger vote"),
		finding(3, core.ScoutKeywordHunter, core.FindingDirectMatch, "", 0.9, "audit audit findings"),
		finding(2, core.ScoutTimelineBuilder, core.FindingDateReference, "2023-06-01", 0.6, "merger merger vote"),
		finding(1, core.ScoutTimelineBuilder, core.FindingDateReference, "3/14/2023", 0.8, "merger merger talks"),
	}

	clusters := Clusters(findings, 2, 0)
	require.Len(t, clusters, 1)
	c := clusters[0]
	assert.Equal(t, "merger", c.Theme)
	assert.Equal(t, []core.ID{1, 2}, c.Documents)
	assert.Equal(t, []string{"merger", "talks", "vote"}, c.KeyConcepts)
	assert.InDelta(t, 0.7, c.Relevance, 1e-6)
	require.NotNil(t, c.Span)
	assert.True(t, c.Span.Start.Equal(time.Date(2023, 3, 14, 0, 0, 0, 0, time.UTC)))
	assert.True(t, c.Span.End.Equal(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.NotEmpty(t, c.ID)

	all := Clusters(findings, 1, 0)
	require.Len(t, all, 2)
	assert.Equal(t, "audit", all[0].Theme)
	assert.Nil(t, all[0].Span)

	limited := Clusters(findings, 1, 1)
	require.Len(t, limited, 1)
	assert.Equal(t, "audit", limited[0].Theme)
}

func TestExpansionSuggestions(t *testing.T) {
	res := &core.AnalysisResult{
		Entities: []core.Entity{
			{Name: "TechCorp", Type: core.EntityCompany},
			{Name: "3/14/2023", Type: core.EntityDate},
			{Name: "Jane Doe", Type: core.EntityPerson},
		},
		Clusters: []core.DocumentCluster{{Theme: "acquisition", KeyConcepts: []string{"acquisition", "board"}}},
	}
	q := dealQuery()

	assert.Equal(t, []string{
		"who is connected to Jane Doe",
		"who is negotiating the TechCorp acquisition board",
	}, ExpansionSuggestions(q, res, 5))
	assert.Equal(t, []string{"who is connected to Jane Doe"}, ExpansionSuggestions(q, res, 1))
	assert.Nil(t, ExpansionSuggestions(q, res, 0))
}
