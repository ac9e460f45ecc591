package aggregate

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/extract"
)

// DefaultEventType tags events whose sentence names no known kind of event.
const DefaultEventType = "Mention"

// Timeline turns DateReference findings into events sorted by timestamp.
// Findings whose date does not parse are dropped. Mentions of one date in
// the same sentence of the same document collapse into a single event
// carrying the highest confidence as its importance.
func Timeline(findings []core.Finding, entities []core.Entity) []core.TimelineEvent {
	names := entityNames(entities)
	byKey := make(map[string]*core.TimelineEvent)
	for _, f := range findings {
		if f.Type != core.FindingDateReference {
			continue
		}
		ts, ok := extract.ParseDate(f.Metadata[core.MetaEntity])
		if !ok {
			continue
		}

		key := strings.Join([]string{
			strconv.FormatInt(ts.Unix(), 10),
			strconv.FormatUint(uint64(f.DocumentID), 10),
			f.Excerpt,
		}, "\x00")
		ev, ok := byKey[key]
		if !ok {
			ev = &core.TimelineEvent{
				ID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte("event\x00"+key)).String(),
				Timestamp: ts,
				EventType: DefaultEventType,
				Summary:   f.Excerpt,
				Documents: []core.ID{f.DocumentID},
			}
			byKey[key] = ev
		}
		if cat := f.Metadata[core.MetaCategory]; cat != "" && ev.EventType == DefaultEventType {
			ev.EventType = cat
		}
		ev.Importance = max(ev.Importance, f.Confidence)
		for _, name := range resolveNames(f.RelatedEntities, names) {
			if !slices.Contains(ev.Entities, name) {
				ev.Entities = append(ev.Entities, name)
			}
		}
	}

	out := make([]core.TimelineEvent, 0, len(byKey))
	for _, ev := range byKey {
		out = append(out, *ev)
	}
	slices.SortFunc(out, func(a, b core.TimelineEvent) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
