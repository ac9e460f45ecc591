package scout

import (
	"context"
	"slices"
	"strconv"
	"unicode"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/extract"
)

const (
	structuredConfidence  = 0.7
	conceptConfidence     = 0.5
	conceptsPerHit        = 3
	anomalyConfidence     = 0.7
	complianceConfidence  = 0.75
	riskConfidence        = 0.7
	defaultComplianceFlag = "Requirement"
)

// PatternDetector surfaces recurring structure in matching documents:
// emails, phone numbers, percentages, reference codes, and the dominant
// concepts of each hit that the query did not ask about.
type PatternDetector struct{}

var _ Strategy = PatternDetector{}

func (PatternDetector) Kind() core.ScoutKind {
	return core.ScoutPatternDetector
}

func (PatternDetector) Patterns(q *core.Query, _ int) []string {
	return orQuery(keywords(q.Text), q)
}

func (PatternDetector) ProduceFindings(ctx context.Context, q *core.Query, pattern string, search SearchFunc) ([]core.Finding, error) {
	hits, err := search(ctx, pattern)
	if err != nil {
		return nil, err
	}
	asked := keywords(q.Text)
	var out []core.Finding
	for _, h := range hits {
		text := hitText(h)
		for _, p := range extract.StructuredPatterns(text) {
			f := newFinding(core.ScoutPatternDetector, core.FindingRelatedConcept, structuredConfidence, h, pattern)
			f.Metadata[core.MetaCategory] = p.Kind
			f.Metadata[core.MetaTerm] = p.Text
			out = append(out, f)
		}
		for _, kw := range extract.TopKeywords(text, conceptsPerHit+len(asked)) {
			if slices.Contains(asked, kw) || !isWord(kw) {
				continue
			}
			f := newFinding(core.ScoutPatternDetector, core.FindingRelatedConcept, conceptConfidence, h, pattern)
			f.Metadata[core.MetaCategory] = "concept"
			f.Metadata[core.MetaTerm] = kw
			out = append(out, f)
		}
	}
	return out, nil
}

// AnomalySpotter flags language describing irregularities.
type AnomalySpotter struct{}

var _ Strategy = AnomalySpotter{}

func (AnomalySpotter) Kind() core.ScoutKind {
	return core.ScoutAnomalySpotter
}

func (AnomalySpotter) Patterns(q *core.Query, _ int) []string {
	return orQuery(keywords(q.Text), q)
}

func (AnomalySpotter) ProduceFindings(ctx context.Context, q *core.Query, pattern string, search SearchFunc) ([]core.Finding, error) {
	hits, err := search(ctx, pattern)
	if err != nil {
		return nil, err
	}
	var out []core.Finding
	for _, h := range hits {
		out = append(out, lexiconFindings(core.ScoutAnomalySpotter, core.FindingAnomaly, anomalyConfidence, h, pattern, extract.AnomalyTerms)...)
	}
	return out, nil
}

// ComplianceChecker flags regulatory vocabulary and risk language.
type ComplianceChecker struct{}

var _ Strategy = ComplianceChecker{}

func (ComplianceChecker) Kind() core.ScoutKind {
	return core.ScoutComplianceChecker
}

func (ComplianceChecker) Patterns(q *core.Query, _ int) []string {
	return orQuery(keywords(q.Text), q)
}

// ProduceFindings emits a ComplianceFlag per regulation mentioned, typed by
// the severity words in the same sentence, and a RiskIndicator per risk term.
func (ComplianceChecker) ProduceFindings(ctx context.Context, q *core.Query, pattern string, search SearchFunc) ([]core.Finding, error) {
	hits, err := search(ctx, pattern)
	if err != nil {
		return nil, err
	}
	var out []core.Finding
	for _, h := range hits {
		for _, f := range lexiconFindings(core.ScoutComplianceChecker, core.FindingComplianceFlag, complianceConfidence, h, pattern, extract.ComplianceTerms) {
			f.Metadata[core.MetaFlag] = defaultComplianceFlag
			if sev := extract.ComplianceSeverity.Find(f.Excerpt); len(sev) > 0 {
				f.Metadata[core.MetaFlag] = sev[0].Category
			}
			out = append(out, f)
		}
		out = append(out, lexiconFindings(core.ScoutComplianceChecker, core.FindingRiskIndicator, riskConfidence, h, pattern, extract.RiskTerms)...)
	}
	return out, nil
}

// SentimentAnalyzer scores the tone of matching documents. Negative tone is
// reported as a reputational risk indicator, anything else as a concept.
type SentimentAnalyzer struct{}

var _ Strategy = SentimentAnalyzer{}

func (SentimentAnalyzer) Kind() core.ScoutKind {
	return core.ScoutSentimentAnalyzer
}

func (SentimentAnalyzer) Patterns(q *core.Query, _ int) []string {
	return orQuery(keywords(q.Text), q)
}

func (SentimentAnalyzer) ProduceFindings(ctx context.Context, q *core.Query, pattern string, search SearchFunc) ([]core.Finding, error) {
	hits, err := search(ctx, pattern)
	if err != nil {
		return nil, err
	}
	var out []core.Finding
	for _, h := range hits {
		terms := extract.SentimentTerms.Find(hitText(h))
		if len(terms) == 0 {
			continue
		}
		score := SentimentScore(terms)
		confidence := 0.5 + 0.4*abs32(score)

		var f core.Finding
		switch {
		case score < 0:
			f = newFinding(core.ScoutSentimentAnalyzer, core.FindingRiskIndicator, confidence, h, pattern)
			f.Metadata[core.MetaCategory] = extract.RiskReputational
			f.Metadata[core.MetaTerm] = "negative sentiment"
		case score > 0:
			f = newFinding(core.ScoutSentimentAnalyzer, core.FindingRelatedConcept, confidence, h, pattern)
			f.Metadata[core.MetaCategory] = "sentiment"
			f.Metadata[core.MetaTerm] = "positive sentiment"
		default:
			f = newFinding(core.ScoutSentimentAnalyzer, core.FindingRelatedConcept, confidence, h, pattern)
			f.Metadata[core.MetaCategory] = "sentiment"
			f.Metadata[core.MetaTerm] = "mixed sentiment"
		}
		f.Metadata[core.MetaScore] = strconv.FormatFloat(float64(score), 'f', 2, 32)
		out = append(out, f)
	}
	return out, nil
}

// SentimentScore is (positive - negative) / total over sentiment terms,
// in [-1, 1].
func SentimentScore(terms []extract.Term) float32 {
	if len(terms) == 0 {
		return 0
	}
	var pos, neg int
	for _, t := range terms {
		switch t.Category {
		case "positive":
			pos++
		case "negative":
			neg++
		}
	}
	return float32(pos-neg) / float32(len(terms))
}

// lexiconFindings emits one finding per lexicon term found in a hit, with
// the term's sentence as excerpt.
func lexiconFindings(kind core.ScoutKind, t core.FindingType, confidence float32, h core.Hit, pattern string, lex *extract.Lexicon) []core.Finding {
	text := hitText(h)
	var out []core.Finding
	for _, term := range lex.Find(text) {
		f := newFinding(kind, t, confidence, h, pattern)
		f.Excerpt = sentenceAround(text, term.Start, term.Start+len(term.Term))
		f.Context = text
		f.RelatedEntities = extract.Names(f.Excerpt)
		f.Metadata[core.MetaTerm] = term.Term
		f.Metadata[core.MetaCategory] = term.Category
		out = append(out, f)
	}
	return out
}

// isWord reports whether s consists of letters only.
func isWord(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
