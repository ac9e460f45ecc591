package aggregate

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	"github.com/poiesic/quarry/core"
)

type relationRule struct {
	kind    core.RelationshipType
	pattern *regexp.Regexp
}

// relationRules are tried in order against the text joining two names.
// The first rule that matches decides the relationship.
var relationRules = []relationRule{
	{core.RelationshipWorksFor, regexp.MustCompile(`(?i)\b(?:works? (?:for|at)|working (?:for|at)|employed by|employee of|hired by|joined)\b`)},
	{core.RelationshipReportsTo, regexp.MustCompile(`(?i)\b(?:reports? to|reporting to|managed by|supervised by)\b`)},
	{core.RelationshipNegotiates, regexp.MustCompile(`(?i)\bnegotiat\w*`)},
	{core.RelationshipContractsWith, regexp.MustCompile(`(?i)\b(?:contract\w*|agreement|signed|vendor|supplier)\b`)},
	{core.RelationshipOwns, regexp.MustCompile(`(?i)\b(?:owns?|owned by|acquir\w*|acquisition|subsidiary|parent company)\b`)},
	{core.RelationshipLegal, regexp.MustCompile(`(?i)\b(?:lawsuit|litigation|sued|sues|suing|court|settlement|plaintiff|defendant)\b`)},
	{core.RelationshipRegulatory, regexp.MustCompile(`(?i)\b(?:regulat\w*|filed with|complian\w*|audit\w*)\b`)},
	{core.RelationshipFinancial, regexp.MustCompile(`(?i)\b(?:paid|pays?|payment|invoice\w*|loans?|invest\w*|fund\w*|financ\w*)\b`)},
	{core.RelationshipCompetes, regexp.MustCompile(`(?i)\b(?:compet\w*|rivals?)\b`)},
	{core.RelationshipCommunicates, regexp.MustCompile(`(?i)\b(?:emailed|email|called|met|meets|meeting|spoke|wrote|discussed|told|memo)\b`)},
}

func ruleRank(kind core.RelationshipType) int {
	return slices.IndexFunc(relationRules, func(r relationRule) bool { return r.kind == kind })
}

// ClassifyLink returns the relationship the text between the first
// mentions of a and b describes, oriented in reading order. It reports
// false when either name is missing or no rule matches.
func ClassifyLink(text, a, b string) (from, to string, kind core.RelationshipType, span string, ok bool) {
	lower := strings.ToLower(text)
	ia := strings.Index(lower, strings.ToLower(a))
	ib := strings.Index(lower, strings.ToLower(b))
	if ia < 0 || ib < 0 {
		return "", "", "", "", false
	}

	from, to = a, b
	start, firstEnd, secondStart, end := ia, ia+len(a), ib, ib+len(b)
	if ib < ia {
		from, to = b, a
		start, firstEnd, secondStart, end = ib, ib+len(b), ia, ia+len(a)
	}
	if secondStart < firstEnd || end > len(text) {
		return "", "", "", "", false
	}

	span = text[start:end]
	between := text[firstEnd:secondStart]
	for _, r := range relationRules {
		if r.pattern.MatchString(between) {
			return from, to, r.kind, span, true
		}
	}
	return "", "", "", "", false
}

type linkEvidence struct {
	from, to string
	kind     core.RelationshipType
	context  string
	resolved bool
	sum      float32
	n        int
	docs     []core.ID
}

// Relationships links every pair of entities that co-occur in a finding's
// related entities. The pair's type comes from the highest ranked rule
// matched by any of its findings; pairs no rule resolves are not linked.
// Confidence is the mean confidence of every finding listing the pair.
// Names not in entities are ignored, so no relationship dangles.
func Relationships(findings []core.Finding, entities []core.Entity) []core.Relationship {
	names := entityNames(entities)
	byPair := make(map[string]*linkEvidence)
	var order []string

	for _, f := range findings {
		related := resolveNames(f.RelatedEntities, names)
		if len(related) < 2 {
			continue
		}
		text := f.Context
		if text == "" {
			text = f.Excerpt
		}
		for i := range related {
			for j := i + 1; j < len(related); j++ {
				key := pairKey(related[i], related[j])
				ev, ok := byPair[key]
				if !ok {
					ev = &linkEvidence{from: related[i], to: related[j]}
					byPair[key] = ev
					order = append(order, key)
				}
				ev.sum += f.Confidence
				ev.n++
				ev.docs = addID(ev.docs, f.DocumentID)

				from, to, kind, span, ok := ClassifyLink(text, related[i], related[j])
				if ok && (!ev.resolved || ruleRank(kind) < ruleRank(ev.kind)) {
					ev.from, ev.to, ev.kind, ev.context, ev.resolved = from, to, kind, span, true
				}
			}
		}
	}

	var out []core.Relationship
	for _, key := range order {
		ev := byPair[key]
		if !ev.resolved {
			continue
		}
		slices.Sort(ev.docs)
		out = append(out, core.Relationship{
			From:       ev.from,
			To:         ev.to,
			Type:       ev.kind,
			Confidence: ev.sum / float32(ev.n),
			Documents:  ev.docs,
			Context:    ev.context,
		})
	}
	slices.SortStableFunc(out, func(a, b core.Relationship) int {
		if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
			return c
		}
		if c := cmp.Compare(a.From, b.From); c != 0 {
			return c
		}
		return cmp.Compare(a.To, b.To)
	})
	return out
}

func pairKey(a, b string) string {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if b < a {
		a, b = b, a
	}
	return a + "\x00" + b
}
