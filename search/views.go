package search

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/poiesic/quarry/aggregate"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/extract"
)

const (
	// verbatimBoost is added to a match whose context holds every query word.
	verbatimBoost = 0.3

	maxDirectMatches = 50
	maxEvidence      = 3
)

// Respond builds the response for res, deriving every view from it.
func Respond(q *core.Query, res *core.AnalysisResult) *IntelligentSearchResponse {
	return &IntelligentSearchResponse{
		AnalysisResult:      *res,
		DirectMatches:       DirectMatches(q.Text, res.Findings),
		RelatedConcepts:     RelatedConcepts(res),
		Insights:            Insights(res),
		RiskIndicators:      RiskIndicators(res.Findings),
		ComplianceFlags:     ComplianceFlags(res.Findings),
		Anomalies:           Anomalies(res.Findings),
		Recommendations:     Recommendations(res),
		RelatedQueries:      slices.Clone(res.ExpansionSuggestions),
		DeadEndsEncountered: res.DeadEnds,
		SearchDepthAchieved: SearchDepth(res, q.RelationshipDepth),
	}
}

// MatchTypeOf maps a finding type onto the match type reported to callers.
func MatchTypeOf(t core.FindingType) MatchType {
	switch t {
	case core.FindingDirectMatch:
		return MatchExact
	case core.FindingRelatedConcept:
		return MatchConceptual
	case core.FindingRiskIndicator, core.FindingComplianceFlag, core.FindingAnomaly:
		return MatchPattern
	}
	if _, ok := t.EntityType(); ok {
		return MatchEntity
	}
	return MatchSemantic
}

// DirectMatches reports the most confident finding of each document,
// strongest first. Matches whose context holds every word of the query
// get a verbatim boost.
func DirectMatches(query string, findings []core.Finding) []DirectMatch {
	best := make(map[core.ID]core.Finding)
	for _, f := range findings {
		if cur, ok := best[f.DocumentID]; !ok || f.Confidence > cur.Confidence {
			best[f.DocumentID] = f
		}
	}

	out := make([]DirectMatch, 0, len(best))
	for id, f := range best {
		context := f.Context
		if context == "" {
			context = f.Excerpt
		}
		score := f.Confidence
		if extract.ContainsAllWords(context, query) {
			score = min(score+verbatimBoost, 1)
		}
		out = append(out, DirectMatch{
			DocumentID:      id,
			Title:           f.Metadata[core.MetaTitle],
			Excerpt:         f.Excerpt,
			RelevanceScore:  score,
			MatchType:       MatchTypeOf(f.Type),
			HighlightedText: Highlight(f.Excerpt, highlightTerm(f)),
			ContextWindow:   context,
			SourceType:      string(f.Scout),
		})
	}
	slices.SortFunc(out, func(a, b DirectMatch) int {
		if c := cmp.Compare(b.RelevanceScore, a.RelevanceScore); c != 0 {
			return c
		}
		return cmp.Compare(a.DocumentID, b.DocumentID)
	})
	if len(out) > maxDirectMatches {
		out = out[:maxDirectMatches]
	}
	return out
}

func highlightTerm(f core.Finding) string {
	for _, k := range []string{core.MetaEntity, core.MetaTerm, core.MetaPattern} {
		if v := f.Metadata[k]; v != "" {
			return v
		}
	}
	return ""
}

// Highlight wraps the first case-insensitive occurrence of term in text
// with double asterisks.
func Highlight(text, term string) string {
	if term == "" {
		return text
	}
	i := strings.Index(strings.ToLower(text), strings.ToLower(term))
	if i < 0 || i+len(term) > len(text) {
		return text
	}
	return text[:i] + "**" + text[i:i+len(term)] + "**" + text[i+len(term):]
}

// RelatedConcepts collects the concepts of RelatedConcept findings and the
// key concepts of clusters. A concept seen several times keeps its best
// confidence and the union of its documents.
func RelatedConcepts(res *core.AnalysisResult) []RelatedConcept {
	byName := make(map[string]*RelatedConcept)
	var order []string
	add := func(name, relation string, conf float32, docs ...core.ID) {
		key := strings.ToLower(name)
		rc, ok := byName[key]
		if !ok {
			rc = &RelatedConcept{Concept: name, RelationshipType: relation}
			byName[key] = rc
			order = append(order, key)
		}
		rc.Confidence = max(rc.Confidence, conf)
		rc.RelevanceScore = max(rc.RelevanceScore, conf)
		for _, id := range docs {
			if !slices.Contains(rc.SupportingDocuments, id) {
				rc.SupportingDocuments = append(rc.SupportingDocuments, id)
			}
		}
	}

	for _, f := range res.Findings {
		if f.Type != core.FindingRelatedConcept {
			continue
		}
		if term := f.Metadata[core.MetaTerm]; term != "" {
			add(term, f.Metadata[core.MetaCategory], f.Confidence, f.DocumentID)
		}
	}
	for _, c := range res.Clusters {
		for _, concept := range c.KeyConcepts {
			add(concept, "cluster:"+c.Theme, c.Relevance, c.Documents...)
		}
	}

	out := make([]RelatedConcept, 0, len(order))
	for _, key := range order {
		rc := byName[key]
		slices.Sort(rc.SupportingDocuments)
		out = append(out, *rc)
	}
	slices.SortStableFunc(out, func(a, b RelatedConcept) int {
		return cmp.Compare(b.RelevanceScore, a.RelevanceScore)
	})
	return out
}

// severityOf grades a confidence.
func severityOf(conf float32) Severity {
	switch {
	case conf >= 0.9:
		return SeverityCritical
	case conf >= 0.8:
		return SeverityHigh
	case conf >= 0.6:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

type findingGroup struct {
	key   string
	terms []string
	docs  []core.ID
	conf  float32
}

// groupFindings buckets findings of type t by keyOf, in first-seen order.
func groupFindings(findings []core.Finding, t core.FindingType, keyOf func(core.Finding) string) []*findingGroup {
	byKey := make(map[string]*findingGroup)
	var out []*findingGroup
	for _, f := range findings {
		if f.Type != t {
			continue
		}
		key := keyOf(f)
		g, ok := byKey[key]
		if !ok {
			g = &findingGroup{key: key}
			byKey[key] = g
			out = append(out, g)
		}
		if term := f.Metadata[core.MetaTerm]; term != "" && !slices.Contains(g.terms, term) {
			g.terms = append(g.terms, term)
		}
		if !slices.Contains(g.docs, f.DocumentID) {
			g.docs = append(g.docs, f.DocumentID)
		}
		g.conf = max(g.conf, f.Confidence)
	}
	for _, g := range out {
		slices.Sort(g.docs)
	}
	return out
}

var riskMitigations = map[RiskType][]string{
	RiskLegal:        {"Have counsel review the affected documents", "Preserve related records"},
	RiskCompliance:   {"Confirm the applicable controls with the compliance team"},
	RiskFinancial:    {"Reconcile the amounts involved with finance"},
	RiskOperational:  {"Identify the process owner and confirm current status"},
	RiskReputational: {"Brief communications on the affected matters"},
	RiskRegulatory:   {"Check filing and reporting obligations"},
	RiskPrivacy:      {"Assess whether personal data was exposed", "Check breach notification duties"},
}

// RiskIndicators summarizes RiskIndicator findings per risk type.
func RiskIndicators(findings []core.Finding) []RiskIndicator {
	groups := groupFindings(findings, core.FindingRiskIndicator, func(f core.Finding) string {
		return f.Metadata[core.MetaCategory]
	})
	out := make([]RiskIndicator, 0, len(groups))
	for _, g := range groups {
		rt := RiskType(g.key)
		if _, ok := riskMitigations[rt]; !ok {
			rt = RiskOperational
		}
		out = append(out, RiskIndicator{
			Type:                  rt,
			Severity:              severityOf(g.conf),
			Description:           fmt.Sprintf("%s risk language (%s) in %d documents", rt, strings.Join(g.terms, ", "), len(g.docs)),
			AffectedDocuments:     g.docs,
			MitigationSuggestions: riskMitigations[rt],
			Confidence:            g.conf,
		})
	}
	return out
}

// ComplianceFlags summarizes ComplianceFlag findings per regulation and flag type.
func ComplianceFlags(findings []core.Finding) []ComplianceFlag {
	groups := groupFindings(findings, core.FindingComplianceFlag, func(f core.Finding) string {
		return f.Metadata[core.MetaCategory] + "\x00" + f.Metadata[core.MetaFlag]
	})
	out := make([]ComplianceFlag, 0, len(groups))
	for _, g := range groups {
		regulation, flag, _ := strings.Cut(g.key, "\x00")
		ft := ComplianceFlagType(flag)
		switch ft {
		case FlagViolation, FlagRisk, FlagGap, FlagRequirement:
		default:
			ft = FlagRequirement
		}
		out = append(out, ComplianceFlag{
			Regulation:          regulation,
			Type:                ft,
			Description:         fmt.Sprintf("%s %s in %d documents", regulation, strings.ToLower(string(ft)), len(g.docs)),
			AffectedDocuments:   g.docs,
			RemediationRequired: ft == FlagViolation || ft == FlagGap,
			Confidence:          g.conf,
		})
	}
	return out
}

// Anomalies summarizes Anomaly findings per anomaly type.
func Anomalies(findings []core.Finding) []Anomaly {
	groups := groupFindings(findings, core.FindingAnomaly, func(f core.Finding) string {
		return f.Metadata[core.MetaCategory]
	})
	out := make([]Anomaly, 0, len(groups))
	for _, g := range groups {
		at := AnomalyType(g.key)
		if at == "" {
			at = AnomalyUnusualPattern
		}
		sev := severityOf(g.conf)
		if len(g.docs) > 2 && sev == SeverityMedium {
			sev = SeverityHigh
		}
		out = append(out, Anomaly{
			Type:              at,
			Description:       fmt.Sprintf("%s (%s) in %d documents", at, strings.Join(g.terms, ", "), len(g.docs)),
			Severity:          sev,
			AffectedDocuments: g.docs,
			DetectionMethod:   "lexicon",
			RequiresReview:    sev == SeverityHigh || sev == SeverityCritical,
		})
	}
	return out
}

// Insights describes what the result shows as a whole.
func Insights(res *core.AnalysisResult) []Insight {
	var out []Insight

	if n := len(res.Relationships); n > 0 {
		var sum float32
		var evidence []string
		for i, r := range res.Relationships {
			sum += r.Confidence
			if i < maxEvidence {
				evidence = append(evidence, fmt.Sprintf("%s %s %s", r.From, r.Type, r.To))
			}
		}
		out = append(out, Insight{
			Type:               InsightRelationshipMapping,
			Description:        fmt.Sprintf("%d relationships link %d entities", n, len(res.Entities)),
			Confidence:         sum / float32(n),
			SupportingEvidence: evidence,
			Actionable:         true,
			Priority:           InsightMedium,
		})
	}

	if n := len(res.Timeline); n > 1 {
		first, last := res.Timeline[0], res.Timeline[n-1]
		out = append(out, Insight{
			Type: InsightTrendAnalysis,
			Description: fmt.Sprintf("%d dated events from %s to %s", n,
				first.Timestamp.Format("2006-01-02"), last.Timestamp.Format("2006-01-02")),
			Confidence:         (first.Importance + last.Importance) / 2,
			SupportingEvidence: []string{first.Summary, last.Summary},
			Priority:           InsightInformational,
		})
	}

	for _, c := range res.Clusters {
		out = append(out, Insight{
			Type:               InsightPatternDiscovery,
			Description:        fmt.Sprintf("%d documents share the theme %q", len(c.Documents), c.Theme),
			Confidence:         c.Relevance,
			SupportingEvidence: c.KeyConcepts,
			Priority:           InsightLow,
		})
	}

	for _, r := range RiskIndicators(res.Findings) {
		out = append(out, Insight{
			Type:        InsightRiskAssessment,
			Description: r.Description,
			Confidence:  r.Confidence,
			Actionable:  true,
			Priority:    InsightPriority(r.Severity),
		})
	}

	for _, f := range ComplianceFlags(res.Findings) {
		if !f.RemediationRequired {
			continue
		}
		out = append(out, Insight{
			Type:        InsightComplianceGap,
			Description: f.Description,
			Confidence:  f.Confidence,
			Actionable:  true,
			Priority:    InsightHigh,
		})
	}

	for _, a := range Anomalies(res.Findings) {
		out = append(out, Insight{
			Type:        InsightAnomalyDetection,
			Description: a.Description,
			Actionable:  a.RequiresReview,
			Priority:    InsightPriority(a.Severity),
		})
	}

	var positive []core.ID
	var best float32
	for _, f := range res.Findings {
		if f.Scout == core.ScoutSentimentAnalyzer && f.Metadata[core.MetaTerm] == "positive sentiment" {
			if !slices.Contains(positive, f.DocumentID) {
				positive = append(positive, f.DocumentID)
			}
			best = max(best, f.Confidence)
		}
	}
	if len(positive) > 0 {
		out = append(out, Insight{
			Type:        InsightOpportunityIdentification,
			Description: fmt.Sprintf("%d documents read positively", len(positive)),
			Confidence:  best,
			Priority:    InsightLow,
		})
	}
	return out
}

// Recommendations structures the result's recommendations and adds one per
// serious risk, compliance flag needing remediation and anomaly needing review.
func Recommendations(res *core.AnalysisResult) []Recommendation {
	var out []Recommendation
	for _, text := range res.Recommendations {
		r := Recommendation{Description: text, Effort: EffortMinimal, Priority: PriorityMedium}
		switch {
		case strings.HasPrefix(text, aggregate.RecommendBroaden):
			r.Type, r.Priority, r.EstimatedImpact = RecommendQueryRefinement, PriorityHigh, "More documents reach the scouts"
		case strings.HasPrefix(text, aggregate.RecommendRelationship):
			r.Type, r.EstimatedImpact = RecommendAdditionalSearch, "Confirms how the entities found are connected"
		case strings.HasPrefix(text, aggregate.RecommendRetry):
			r.Type, r.EstimatedImpact = RecommendQueryRefinement, "Lets every scout report"
		case strings.HasPrefix(text, aggregate.RecommendRephrase):
			r.Type, r.Priority, r.EstimatedImpact = RecommendQueryRefinement, PriorityHigh, "Finds evidence the current wording misses"
		case strings.HasPrefix(text, aggregate.RecommendReview):
			r.Type, r.Priority, r.Effort, r.EstimatedImpact = RecommendDocumentReview, PriorityHigh, EffortMedium, "Confirms flagged issues"
			r.RelatedDocuments = flaggedDocuments(res.Findings)
		default:
			r.Type = RecommendAdditionalSearch
		}
		out = append(out, r)
	}

	for _, risk := range RiskIndicators(res.Findings) {
		if risk.Severity != SeverityHigh && risk.Severity != SeverityCritical {
			continue
		}
		priority := PriorityHigh
		if risk.Severity == SeverityCritical {
			priority = PriorityUrgent
		}
		out = append(out, Recommendation{
			Type:             RecommendRiskMitigation,
			Description:      fmt.Sprintf("Mitigate %s risk", strings.ToLower(string(risk.Type))),
			Priority:         priority,
			EstimatedImpact:  "Reduces exposure",
			Effort:           EffortMedium,
			RelatedDocuments: risk.AffectedDocuments,
		})
	}
	for _, flag := range ComplianceFlags(res.Findings) {
		if !flag.RemediationRequired {
			continue
		}
		out = append(out, Recommendation{
			Type:             RecommendComplianceAction,
			Description:      fmt.Sprintf("Remediate the %s %s", flag.Regulation, strings.ToLower(string(flag.Type))),
			Priority:         PriorityHigh,
			EstimatedImpact:  "Closes a compliance gap",
			Effort:           EffortHigh,
			RelatedDocuments: flag.AffectedDocuments,
		})
	}
	for _, a := range Anomalies(res.Findings) {
		if !a.RequiresReview {
			continue
		}
		out = append(out, Recommendation{
			Type:             RecommendInvestigationRequired,
			Description:      fmt.Sprintf("Investigate the %s", a.Type),
			Priority:         PriorityMedium,
			EstimatedImpact:  "Explains unexpected activity",
			Effort:           EffortMedium,
			RelatedDocuments: a.AffectedDocuments,
		})
	}
	return out
}

func flaggedDocuments(findings []core.Finding) []core.ID {
	var ids []core.ID
	for _, f := range findings {
		switch f.Type {
		case core.FindingRiskIndicator, core.FindingComplianceFlag, core.FindingAnomaly:
			if !slices.Contains(ids, f.DocumentID) {
				ids = append(ids, f.DocumentID)
			}
		}
	}
	slices.Sort(ids)
	return ids
}

// SearchDepth counts the aggregation layers that produced output (findings,
// entities, relationships, timeline, clusters), capped at depth+1. A
// non-positive depth uses core.DefaultRelationshipDepth.
func SearchDepth(res *core.AnalysisResult, depth int) int {
	if depth <= 0 {
		depth = core.DefaultRelationshipDepth
	}
	layers := 0
	for _, n := range []int{len(res.Findings), len(res.Entities), len(res.Relationships), len(res.Timeline), len(res.Clusters)} {
		if n > 0 {
			layers++
		}
	}
	return min(layers, depth+1)
}
