package aggregate

import (
	"log/slog"
	"slices"

	"github.com/poiesic/quarry/core"
)

const (
	// DefaultMinClusterSize is the smallest cluster kept.
	DefaultMinClusterSize = 2

	// DefaultMaxSuggestions caps the query expansion suggestions.
	DefaultMaxSuggestions = 5
)

// Input is what one deployment hands to the aggregator.
type Input struct {
	Query   *core.Query
	Plan    core.DeploymentPlan
	Reports []core.ScoutReport
	// Partial is set when some scouts never reported.
	Partial bool
}

// Aggregator builds analysis results from scout reports.
type Aggregator struct {
	minClusterSize int
	maxSuggestions int
	logger         *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator) error

// WithMinClusterSize sets the smallest number of documents a cluster needs.
// Default is DefaultMinClusterSize.
func WithMinClusterSize(n int) Option {
	return func(a *Aggregator) error {
		if n < 1 {
			return ErrInvalidClusterSize
		}
		a.minClusterSize = n
		return nil
	}
}

// WithMaxSuggestions caps the expansion suggestions. Zero disables them.
// Default is DefaultMaxSuggestions.
func WithMaxSuggestions(n int) Option {
	return func(a *Aggregator) error {
		if n < 0 {
			return ErrInvalidSuggestionLimit
		}
		a.maxSuggestions = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// New creates an Aggregator.
func New(opts ...Option) (*Aggregator, error) {
	a := &Aggregator{
		minClusterSize: DefaultMinClusterSize,
		maxSuggestions: DefaultMaxSuggestions,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	a.logger = a.logger.With("component", "aggregator")
	return a, nil
}

// Aggregate merges the reports of one deployment. It never fails: a
// deployment without findings yields an empty but valid result.
func (a *Aggregator) Aggregate(in Input) *core.AnalysisResult {
	q := in.Query
	if q == nil {
		q = &core.Query{}
	}

	findings := Flatten(in.Reports)
	entities := Entities(findings)
	res := &core.AnalysisResult{
		QueryID:           q.ID,
		Query:             q.Text,
		ScoutsDeployed:    len(in.Plan.Kinds),
		DocumentsAnalyzed: len(DistinctDocuments(findings)),
		Findings:          findings,
		Entities:          entities,
		Relationships:     Relationships(findings, entities),
		Timeline:          Timeline(findings, entities),
		Clusters:          Clusters(findings, a.minClusterSize, in.Plan.TargetClusters),
		Confidence:        Confidence(findings),
		Partial:           in.Partial,
		Plan:              in.Plan,
	}
	for _, r := range in.Reports {
		res.DeadEnds += r.DeadEnds
		res.DeadEndPaths = append(res.DeadEndPaths, r.DeadEndPaths...)
	}
	res.Recommendations = Recommendations(in.Plan, in.Reports, res)
	res.ExpansionSuggestions = ExpansionSuggestions(q, res, a.maxSuggestions)

	a.logger.Debug("aggregated", "query_id", q.ID, "findings", len(findings), "entities", len(entities),
		"relationships", len(res.Relationships), "events", len(res.Timeline), "clusters", len(res.Clusters),
		"dead_ends", res.DeadEnds)
	return res
}

// Flatten concatenates the findings of every report in report order.
func Flatten(reports []core.ScoutReport) []core.Finding {
	n := 0
	for _, r := range reports {
		n += len(r.Findings)
	}
	out := make([]core.Finding, 0, n)
	for _, r := range reports {
		out = append(out, r.Findings...)
	}
	return out
}

// DistinctDocuments returns the documents the findings touch, ascending.
func DistinctDocuments(findings []core.Finding) []core.ID {
	var ids []core.ID
	for _, f := range findings {
		ids = addID(ids, f.DocumentID)
	}
	slices.Sort(ids)
	return ids
}

// Confidence is the mean finding confidence, 0 without findings.
func Confidence(findings []core.Finding) float32 {
	if len(findings) == 0 {
		return 0
	}
	var sum float32
	for _, f := range findings {
		sum += f.Confidence
	}
	return sum / float32(len(findings))
}

func addID(ids []core.ID, id core.ID) []core.ID {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}
