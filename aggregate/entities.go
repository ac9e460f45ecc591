package aggregate

import (
	"cmp"
	"slices"
	"strings"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/extract"
)

// MetaSource is the entity metadata key naming the scout that last reported it.
const MetaSource = "source"

// Entities merges entity-bearing findings by normalized name. A merged
// entity keeps the highest confidence seen and the union of documents and
// aliases. Its name, type and source come from its strongest mention, and
// each metadata key takes its value from the strongest mention carrying it,
// so the result does not depend on the order of findings. Entities are
// ordered by confidence, then name.
func Entities(findings []core.Finding) []core.Entity {
	byKey := make(map[string][]mention)
	for i := range findings {
		f := &findings[i]
		et, ok := f.Type.EntityType()
		if !ok {
			continue
		}
		display, key := extract.NormalizeName(f.Metadata[core.MetaEntity])
		if key == "" {
			continue
		}
		byKey[key] = append(byKey[key], mention{display: display, typ: et, f: f})
	}

	out := make([]core.Entity, 0, len(byKey))
	for _, ms := range byKey {
		out = append(out, mergeMentions(ms))
	}
	slices.SortFunc(out, func(a, b core.Entity) int {
		if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
			return c
		}
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return out
}

// mention is one finding naming an entity.
type mention struct {
	display string
	typ     core.EntityType
	f       *core.Finding
}

// compareMentions orders stronger mentions first: higher confidence, then
// the smaller name, type, scout and document.
func compareMentions(a, b mention) int {
	if c := cmp.Compare(b.f.Confidence, a.f.Confidence); c != 0 {
		return c
	}
	if c := cmp.Compare(a.display, b.display); c != 0 {
		return c
	}
	if c := cmp.Compare(a.typ, b.typ); c != 0 {
		return c
	}
	if c := cmp.Compare(a.f.Scout, b.f.Scout); c != 0 {
		return c
	}
	return cmp.Compare(a.f.DocumentID, b.f.DocumentID)
}

func mergeMentions(ms []mention) core.Entity {
	slices.SortFunc(ms, compareMentions)
	best := ms[0]
	e := core.Entity{
		Name:       best.display,
		Type:       best.typ,
		Confidence: best.f.Confidence,
		Metadata:   map[string]string{MetaSource: string(best.f.Scout)},
	}
	for _, m := range ms {
		e.Documents = addID(e.Documents, m.f.DocumentID)
		if m.display != e.Name && !slices.Contains(e.Aliases, m.display) {
			e.Aliases = append(e.Aliases, m.display)
		}
		for k, v := range m.f.Metadata {
			if k == core.MetaEntity || k == core.MetaPattern {
				continue
			}
			if _, ok := e.Metadata[k]; !ok {
				e.Metadata[k] = v
			}
		}
	}
	slices.Sort(e.Documents)
	slices.Sort(e.Aliases)
	return e
}

// entityNames maps normalized keys to the canonical entity names.
func entityNames(entities []core.Entity) map[string]string {
	names := make(map[string]string, len(entities))
	for _, e := range entities {
		_, key := extract.NormalizeName(e.Name)
		names[key] = e.Name
	}
	return names
}

// resolveNames maps raw names onto canonical entity names, dropping names
// that are not entities and repeats.
func resolveNames(raw []string, names map[string]string) []string {
	var out []string
	for _, r := range raw {
		_, key := extract.NormalizeName(r)
		name, ok := names[key]
		if !ok || slices.Contains(out, name) {
			continue
		}
		out = append(out, name)
	}
	return out
}
