package scout

import (
	"context"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/extract"
)

// EntityExtractor recognises people, companies, dates, amounts and legal
// terms in the documents matching the query.
type EntityExtractor struct{}

var _ Strategy = EntityExtractor{}

func (EntityExtractor) Kind() core.ScoutKind {
	return core.ScoutEntityExtractor
}

func (EntityExtractor) Patterns(q *core.Query, _ int) []string {
	return orQuery(namesThenKeywords(q.Text), q)
}

func (EntityExtractor) ProduceFindings(ctx context.Context, q *core.Query, pattern string, search SearchFunc) ([]core.Finding, error) {
	hits, err := search(ctx, pattern)
	if err != nil {
		return nil, err
	}
	var out []core.Finding
	for _, h := range hits {
		text := hitText(h)
		mentions := append(extract.Entities(text), extract.LegalTerms(text)...)
		out = append(out, mentionFindings(core.ScoutEntityExtractor, h, pattern, mentions, 1)...)
	}
	return out, nil
}

// RelationshipMapper looks for documents in which several people or
// companies appear together.
type RelationshipMapper struct{}

var _ Strategy = RelationshipMapper{}

func (RelationshipMapper) Kind() core.ScoutKind {
	return core.ScoutRelationshipMapper
}

// Patterns pairs up the names in the query when there are at least two,
// so every search asks for a co-occurrence directly.
func (RelationshipMapper) Patterns(q *core.Query, _ int) []string {
	names := extract.Names(q.Text)
	if len(names) < 2 {
		return orQuery(namesThenKeywords(q.Text), q)
	}
	var out []string
	for i := range names {
		for j := i + 1; j < len(names); j++ {
			out = append(out, names[i]+" "+names[j])
		}
	}
	return out
}

// ProduceFindings emits a RelatedConcept finding for each hit naming two
// or more parties, plus the person and company mentions that make it up.
func (RelationshipMapper) ProduceFindings(ctx context.Context, q *core.Query, pattern string, search SearchFunc) ([]core.Finding, error) {
	hits, err := search(ctx, pattern)
	if err != nil {
		return nil, err
	}
	var out []core.Finding
	for _, h := range hits {
		text := hitText(h)
		names := extract.Names(text)
		if len(names) < 2 {
			continue
		}
		f := newFinding(core.ScoutRelationshipMapper, core.FindingRelatedConcept, max(h.RelevanceScore, 0.5), h, pattern)
		f.Context = text
		f.RelatedEntities = names
		f.Metadata[core.MetaCategory] = "co-occurrence"
		out = append(out, f)

		var parties []extract.Mention
		for _, m := range extract.Entities(text) {
			if m.Type == core.FindingPersonMention || m.Type == core.FindingCompanyReference {
				parties = append(parties, m)
			}
		}
		out = append(out, mentionFindings(core.ScoutRelationshipMapper, h, pattern, parties, 0.8)...)
	}
	return out, nil
}

// namesOnly returns the names mentioned in text.
func namesOnly(text string) []string {
	return extract.Names(text)
}
