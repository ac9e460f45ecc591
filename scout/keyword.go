package scout

import (
	"context"
	"strings"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/extract"
)

// KeywordHunter looks for direct keyword matches.
//
// The first hunter of a query searches every query word longer than three
// characters, stop words included. Further hunters take progressively
// different angles on the same query, built from its stop-word-free
// keywords: adjacent keyword phrases, context-hint keywords, all keywords
// together, then the names the query mentions.
type KeywordHunter struct{}

var _ Strategy = KeywordHunter{}

func (KeywordHunter) Kind() core.ScoutKind {
	return core.ScoutKeywordHunter
}

func (KeywordHunter) Patterns(q *core.Query, variant int) []string {
	words := keywords(q.Text)
	switch variant {
	case 0:
		return extract.QueryKeywords(q.Text, minKeywordLength)
	case 1:
		return bigrams(words)
	case 2:
		return hintKeywords(q)
	case 3:
		if len(words) > 2 {
			return []string{strings.Join(words, " ")}
		}
		return nil
	default:
		return namesOnly(q.Text)
	}
}

// ProduceFindings turns every hit into a DirectMatch at the store's relevance.
func (KeywordHunter) ProduceFindings(ctx context.Context, q *core.Query, pattern string, search SearchFunc) ([]core.Finding, error) {
	hits, err := search(ctx, pattern)
	if err != nil {
		return nil, err
	}
	out := make([]core.Finding, 0, len(hits))
	for _, h := range hits {
		f := newFinding(core.ScoutKeywordHunter, core.FindingDirectMatch, h.RelevanceScore, h, pattern)
		f.RelatedEntities = []string{pattern}
		out = append(out, f)
	}
	return out, nil
}
