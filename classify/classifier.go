package classify

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/extract"
)

const (
	maxContextHints = 5
	minHintLength   = 4 // context hint words must be longer than this
)

// Hints are the optional caller-supplied overrides for a query.
type Hints struct {
	Context           string
	Intent            string
	Scope             string
	Priority          string
	RelationshipDepth int
	TimeLimitMs       int
}

// Classifier builds a query from raw text. Implementations never fail;
// every field has a default.
type Classifier interface {
	Classify(ctx context.Context, text string, hints Hints) *core.Query
}

// Heuristic classifies queries by hint lookup and trigger words.
type Heuristic struct{}

var _ Classifier = (*Heuristic)(nil)

// NewHeuristic creates a heuristic classifier.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Classify resolves intent, scope and priority from hints first and falls
// back to trigger words (intent) or defaults (Focused, Normal).
func (h *Heuristic) Classify(ctx context.Context, text string, hints Hints) *core.Query {
	q := &core.Query{
		ID:                uuid.NewString(),
		Text:              text,
		Scope:             core.ScopeFocused,
		Priority:          core.PriorityNormal,
		RelationshipDepth: core.DefaultRelationshipDepth,
	}

	if in, ok := ParseIntent(hints.Intent); ok {
		q.Intent = in
	} else {
		q.Intent = InferIntent(text)
	}
	if sc, ok := ParseScope(hints.Scope); ok {
		q.Scope = sc
	}
	if pr, ok := ParsePriority(hints.Priority); ok {
		q.Priority = pr
	}
	if hints.RelationshipDepth > 0 {
		q.RelationshipDepth = hints.RelationshipDepth
	}
	if hints.TimeLimitMs > 0 {
		q.TimeLimitMs = hints.TimeLimitMs
	}

	if c := strings.TrimSpace(hints.Context); c != "" {
		q.ContextHints = []string{c}
	} else {
		q.ContextHints = ContextHints(text)
	}
	return q
}

// ContextHints returns the five longest distinct words of text that are
// longer than four characters, lowercased. Equal lengths keep query order.
func ContextHints(text string) []string {
	var words []string
	for _, w := range extract.Words(text) {
		if len(w) > minHintLength && !slices.Contains(words, w) {
			words = append(words, w)
		}
	}
	slices.SortStableFunc(words, func(a, b string) int {
		return len(b) - len(a)
	})
	if len(words) > maxContextHints {
		words = words[:maxContextHints]
	}
	return words
}
