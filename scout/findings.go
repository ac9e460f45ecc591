package scout

import (
	"strconv"
	"strings"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/extract"
)

// hitText is the widest text a hit carries.
func hitText(h core.Hit) string {
	if h.Context != "" {
		return h.Context
	}
	return h.Excerpt
}

func clamp01(f float32) float32 {
	return min(max(f, 0), 1)
}

// newFinding fills the fields every finding built from a store hit shares.
func newFinding(kind core.ScoutKind, t core.FindingType, confidence float32, h core.Hit, pattern string) core.Finding {
	meta := map[string]string{core.MetaPattern: pattern}
	if h.Title != "" {
		meta[core.MetaTitle] = h.Title
	}
	return core.Finding{
		DocumentID: h.DocumentID,
		Scout:      kind,
		Type:       t,
		Confidence: clamp01(confidence),
		Excerpt:    h.Excerpt,
		Context:    h.Context,
		Metadata:   meta,
	}
}

// findingKey identifies duplicate evidence within one worker.
func findingKey(f core.Finding) string {
	parts := []string{
		strconv.FormatUint(uint64(f.DocumentID), 10),
		string(f.Type),
		strings.ToLower(f.Metadata[core.MetaEntity]),
		strings.ToLower(f.Metadata[core.MetaTerm]),
		f.Metadata[core.MetaCategory],
		f.Excerpt,
	}
	if f.Type == core.FindingDirectMatch {
		parts = append(parts, f.Metadata[core.MetaPattern])
	}
	return strings.Join(parts, "\x00")
}

// Base confidence of an entity mention by finding type.
var mentionConfidence = map[core.FindingType]float32{
	core.FindingPersonMention:    0.7,
	core.FindingCompanyReference: 0.75,
	core.FindingDateReference:    0.85,
	core.FindingMonetaryAmount:   0.9,
	core.FindingLegalTerm:        0.8,
}

// mentionFindings converts entity mentions in a hit into findings. Every
// finding carries all person and company names of the hit so co-occurrence
// can be recovered later.
func mentionFindings(kind core.ScoutKind, h core.Hit, pattern string, mentions []extract.Mention, scale float32) []core.Finding {
	text := hitText(h)
	names := extract.Names(text)
	out := make([]core.Finding, 0, len(mentions))
	for _, m := range mentions {
		display, _ := extract.NormalizeName(m.Text)
		f := newFinding(kind, m.Type, mentionConfidence[m.Type]*scale, h, pattern)
		f.Excerpt = sentenceAround(text, m.Start, m.End)
		f.Context = text
		f.RelatedEntities = names
		f.Metadata[core.MetaEntity] = display
		out = append(out, f)
	}
	return out
}

// dedupe drops findings whose key was already seen.
func dedupe(findings []core.Finding, seen map[string]bool) []core.Finding {
	out := findings[:0]
	for _, f := range findings {
		k := findingKey(f)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, f)
	}
	return out
}
