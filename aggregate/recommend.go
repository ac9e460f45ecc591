package aggregate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/extract"
)

// Recommendation prefixes. Callers match on them to classify the text.
const (
	RecommendBroaden      = "Broaden the search scope"
	RecommendRelationship = "Run a relationship-focused follow-up query"
	RecommendRetry        = "Results are partial"
	RecommendRephrase     = "No evidence was found"
	RecommendReview       = "Review the flagged documents"
)

// Recommendations derives follow-up advice from the gaps in a result.
func Recommendations(plan core.DeploymentPlan, reports []core.ScoutReport, res *core.AnalysisResult) []string {
	var out []string

	if res.DeadEnds > plan.DeadEndAllowance {
		out = append(out, fmt.Sprintf("%s: %d search paths dead-ended, more than the %d allowed.",
			RecommendBroaden, res.DeadEnds, plan.DeadEndAllowance))
	}

	if name, ok := uncorroboratedEntity(reports, res.Entities); ok {
		out = append(out, fmt.Sprintf("%s, such as %q.", RecommendRelationship, "who is connected to "+name))
	}

	if res.Partial {
		missing := 0
		for _, r := range reports {
			if !r.Reported {
				missing++
			}
		}
		out = append(out, fmt.Sprintf("%s: %d scouts did not report in time. Retry with a lower priority or a longer time limit.",
			RecommendRetry, missing))
	}

	if len(res.Findings) == 0 {
		out = append(out, RecommendRephrase+"; rephrase the query or try different keywords.")
	}

	var flagged []core.ID
	for _, f := range res.Findings {
		switch f.Type {
		case core.FindingRiskIndicator, core.FindingComplianceFlag, core.FindingAnomaly:
			flagged = addID(flagged, f.DocumentID)
		}
	}
	if len(flagged) > 0 {
		out = append(out, fmt.Sprintf("%s: %d documents carry risk, compliance or anomaly findings.", RecommendReview, len(flagged)))
	}
	return out
}

// uncorroboratedEntity returns the best person or company the
// EntityExtractor found when no RelationshipMapper finding backs it up.
func uncorroboratedEntity(reports []core.ScoutReport, entities []core.Entity) (string, bool) {
	extracted := make(map[string]bool)
	for _, r := range reports {
		switch r.Kind {
		case core.ScoutRelationshipMapper:
			if len(r.Findings) > 0 {
				return "", false
			}
		case core.ScoutEntityExtractor:
			for _, f := range r.Findings {
				if f.Type == core.FindingPersonMention || f.Type == core.FindingCompanyReference {
					_, key := extract.NormalizeName(f.Metadata[core.MetaEntity])
					extracted[key] = true
				}
			}
		}
	}
	for _, e := range entities {
		_, key := extract.NormalizeName(e.Name)
		if extracted[key] {
			return e.Name, true
		}
	}
	return "", false
}

// ExpansionSuggestions proposes up to limit follow-up queries: one per
// prominent person or company the query does not already name, then the
// query narrowed by cluster concepts it does not already use.
func ExpansionSuggestions(q *core.Query, res *core.AnalysisResult, limit int) []string {
	if limit <= 0 {
		return nil
	}
	text := strings.ToLower(q.Text)
	words := extract.Words(q.Text)

	var out []string
	add := func(s string) bool {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
		return len(out) >= limit
	}

	for _, e := range res.Entities {
		if e.Type != core.EntityPerson && e.Type != core.EntityCompany {
			continue
		}
		if strings.Contains(text, strings.ToLower(e.Name)) {
			continue
		}
		if add("who is connected to " + e.Name) {
			return out
		}
	}

	base := strings.Join(strings.Fields(q.Text), " ")
	if base == "" {
		return out
	}
	for _, c := range res.Clusters {
		for _, concept := range c.KeyConcepts {
			if slices.Contains(words, concept) {
				continue
			}
			if add(base + " " + concept) {
				return out
			}
		}
	}
	return out
}
