package classify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/quarry/ai"
	"github.com/poiesic/quarry/core"
)

const defaultMinConfidence = 0.6

// Assisted classifies intent with a language model and falls back to the
// heuristic classifier when the model cannot be trusted.
type Assisted struct {
	model         ai.IntentClassifier
	fallback      Classifier
	minConfidence float64
	logger        *slog.Logger
}

var _ Classifier = (*Assisted)(nil)

// Option configures an Assisted classifier.
type Option func(*Assisted) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assisted) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// WithMinConfidence sets the model confidence below which the heuristic
// intent is kept. Default is 0.6.
func WithMinConfidence(c float64) Option {
	return func(a *Assisted) error {
		if c < 0 || c > 1 {
			return ErrInvalidMinConfidence
		}
		a.minConfidence = c
		return nil
	}
}

// WithFallback replaces the heuristic fallback classifier.
func WithFallback(c Classifier) Option {
	return func(a *Assisted) error {
		if c != nil {
			a.fallback = c
		}
		return nil
	}
}

// NewAssisted creates a model-assisted classifier.
func NewAssisted(model ai.IntentClassifier, opts ...Option) (*Assisted, error) {
	if model == nil {
		return nil, ErrIntentClassifierRequired
	}
	a := &Assisted{
		model:         model,
		fallback:      NewHeuristic(),
		minConfidence: defaultMinConfidence,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	a.logger = a.logger.With("component", "classifier")
	return a, nil
}

// Classify starts from the fallback classification. Unless the caller gave
// an explicit intent hint, it asks the model and adopts its intent (and its
// scope and keywords where the caller gave none) when the model is confident.
// The model gets no longer than the fallback query's budget.
func (a *Assisted) Classify(ctx context.Context, text string, hints Hints) *core.Query {
	q := a.fallback.Classify(ctx, text, hints)
	if _, ok := ParseIntent(hints.Intent); ok {
		return q
	}

	if b := q.Budget(); b > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b)
		defer cancel()
	}
	analysis, err := a.model.ClassifyQuery(ctx, text)
	if err != nil {
		a.logger.Warn("model classification failed, using heuristic", "err", err)
		return q
	}
	if analysis == nil || analysis.Confidence < a.minConfidence {
		a.logger.Debug("model classification below threshold", "query_id", q.ID)
		return q
	}
	intent, ok := ParseIntent(analysis.Intent)
	if !ok {
		a.logger.Debug("model returned unknown intent", "intent", analysis.Intent)
		return q
	}

	q.Intent = intent
	if _, ok := ParseScope(hints.Scope); !ok {
		if sc, ok := ParseScope(analysis.Scope); ok {
			q.Scope = sc
		}
	}
	if strings.TrimSpace(hints.Context) == "" && len(analysis.Keywords) > 0 {
		kw := analysis.Keywords
		if len(kw) > maxContextHints {
			kw = kw[:maxContextHints]
		}
		q.ContextHints = kw
	}
	a.logger.Debug("model classification adopted", "query_id", q.ID, "intent", q.Intent, "confidence", analysis.Confidence)
	return q
}
