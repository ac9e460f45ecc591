package scout

import (
	"context"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/extract"
)

// Confidence scale applied to dates that cannot be parsed into a timestamp.
const unparsedDateScale = 0.5

// TimelineBuilder collects dated statements from matching documents.
type TimelineBuilder struct{}

var _ Strategy = TimelineBuilder{}

func (TimelineBuilder) Kind() core.ScoutKind {
	return core.ScoutTimelineBuilder
}

func (TimelineBuilder) Patterns(q *core.Query, _ int) []string {
	return orQuery(keywords(q.Text), q)
}

// ProduceFindings emits a DateReference for every date in a hit. The
// finding's excerpt is the sentence holding the date and its category is
// the kind of event that sentence describes, when one is recognised.
func (TimelineBuilder) ProduceFindings(ctx context.Context, q *core.Query, pattern string, search SearchFunc) ([]core.Finding, error) {
	hits, err := search(ctx, pattern)
	if err != nil {
		return nil, err
	}
	var out []core.Finding
	for _, h := range hits {
		text := hitText(h)
		for _, m := range extract.Dates(text) {
			scale := float32(1)
			if _, ok := extract.ParseDate(m.Text); !ok {
				scale = unparsedDateScale
			}
			f := mentionFindings(core.ScoutTimelineBuilder, h, pattern, []extract.Mention{m}, scale)[0]
			f.RelatedEntities = extract.Names(f.Excerpt)
			if events := extract.EventTerms.Find(f.Excerpt); len(events) > 0 {
				f.Metadata[core.MetaCategory] = events[0].Category
			}
			out = append(out, f)
		}
	}
	return out, nil
}
