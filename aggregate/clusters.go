package aggregate

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/extract"
)

// keyConcepts is the number of key concepts kept per cluster.
const keyConcepts = 5

type docEvidence struct {
	texts []string
	seen  map[string]bool
	sum   float32
	n     int
	dates []time.Time
}

// Clusters buckets documents by the most frequent keyword across their
// findings. Buckets with fewer than minSize documents are discarded. The
// rest are ordered by relevance, the mean confidence of their findings,
// and truncated to limit when limit is positive.
func Clusters(findings []core.Finding, minSize, limit int) []core.DocumentCluster {
	docs := make(map[core.ID]*docEvidence)
	for _, f := range findings {
		d, ok := docs[f.DocumentID]
		if !ok {
			d = &docEvidence{seen: make(map[string]bool)}
			docs[f.DocumentID] = d
		}
		text := f.Context
		if text == "" {
			text = f.Excerpt
		}
		if text != "" && !d.seen[text] {
			d.seen[text] = true
			d.texts = append(d.texts, text)
		}
		d.sum += f.Confidence
		d.n++
		if f.Type == core.FindingDateReference {
			if ts, ok := extract.ParseDate(f.Metadata[core.MetaEntity]); ok {
				d.dates = append(d.dates, ts)
			}
		}
	}

	buckets := make(map[string][]core.ID)
	for id, d := range docs {
		top := extract.TopKeywords(strings.Join(d.texts, " "), 1)
		if len(top) == 0 {
			continue
		}
		buckets[top[0]] = append(buckets[top[0]], id)
	}

	var out []core.DocumentCluster
	for theme, ids := range buckets {
		if len(ids) < minSize {
			continue
		}
		slices.Sort(ids)

		var texts []string
		var sum float32
		var n int
		var span *core.TimeSpan
		for _, id := range ids {
			d := docs[id]
			texts = append(texts, d.texts...)
			sum += d.sum
			n += d.n
			for _, ts := range d.dates {
				span = widen(span, ts)
			}
		}

		out = append(out, core.DocumentCluster{
			ID:          uuid.NewSHA1(uuid.NameSpaceOID, []byte("cluster\x00"+theme)).String(),
			Theme:       theme,
			Documents:   ids,
			KeyConcepts: extract.TopKeywords(strings.Join(texts, " "), keyConcepts),
			Span:        span,
			Relevance:   sum / float32(n),
		})
	}

	slices.SortFunc(out, func(a, b core.DocumentCluster) int {
		if c := cmp.Compare(b.Relevance, a.Relevance); c != 0 {
			return c
		}
		return cmp.Compare(a.Theme, b.Theme)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func widen(span *core.TimeSpan, ts time.Time) *core.TimeSpan {
	if span == nil {
		return &core.TimeSpan{Start: ts, End: ts}
	}
	if ts.Before(span.Start) {
		span.Start = ts
	}
	if ts.After(span.End) {
		span.End = ts
	}
	return span
}
