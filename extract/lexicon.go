package extract

import (
	"regexp"
	"sort"
	"strings"
)

// Term is a lexicon hit in a piece of text.
type Term struct {
	Term     string // the lexicon entry that matched
	Category string // what the entry indicates, lexicon specific
	Start    int
}

// Lexicon maps lowercase terms (single words or phrases) to a category.
type Lexicon struct {
	entries map[string]string
	re      *regexp.Regexp
}

// NewLexicon compiles a lexicon. Terms are matched case-insensitively on
// word boundaries; a term ending in "*" matches any word with that prefix.
func NewLexicon(entries map[string]string) *Lexicon {
	terms := make([]string, 0, len(entries))
	for t := range entries {
		terms = append(terms, t)
	}
	// Longest first so phrases win over their component words.
	sort.Slice(terms, func(i, j int) bool {
		if len(terms[i]) != len(terms[j]) {
			return len(terms[i]) > len(terms[j])
		}
		return terms[i] < terms[j]
	})
	alts := make([]string, len(terms))
	for i, t := range terms {
		if strings.HasSuffix(t, "*") {
			alts[i] = regexp.QuoteMeta(strings.TrimSuffix(t, "*")) + `\w*`
		} else {
			alts[i] = regexp.QuoteMeta(t)
		}
	}
	return &Lexicon{
		entries: entries,
		re:      regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)\b`),
	}
}

// Find returns every lexicon hit in text, in order of appearance.
func (l *Lexicon) Find(text string) []Term {
	locs := l.re.FindAllStringIndex(text, -1)
	out := make([]Term, 0, len(locs))
	for _, loc := range locs {
		matched := strings.ToLower(text[loc[0]:loc[1]])
		out = append(out, Term{Term: matched, Category: l.category(matched), Start: loc[0]})
	}
	return out
}

// Patterns returns the plain search words of the lexicon, sorted.
// Prefix entries are returned without their "*".
func (l *Lexicon) Patterns() []string {
	out := make([]string, 0, len(l.entries))
	for t := range l.entries {
		out = append(out, strings.TrimSuffix(t, "*"))
	}
	sort.Strings(out)
	return out
}

func (l *Lexicon) category(matched string) string {
	if c, ok := l.entries[matched]; ok {
		return c
	}
	for t, c := range l.entries {
		if strings.HasSuffix(t, "*") && strings.HasPrefix(matched, strings.TrimSuffix(t, "*")) {
			return c
		}
	}
	return ""
}

// Risk categories mirror the risk types reported to callers.
const (
	RiskLegal        = "Legal"
	RiskCompliance   = "Compliance"
	RiskFinancial    = "Financial"
	RiskOperational  = "Operational"
	RiskReputational = "Reputational"
	RiskRegulatory   = "Regulatory"
	RiskPrivacy      = "Privacy"
)

// RiskTerms flags language that signals exposure of some kind.
var RiskTerms = NewLexicon(map[string]string{
	"lawsuit":        RiskLegal,
	"litigation":     RiskLegal,
	"breach":         RiskLegal,
	"liability":      RiskLegal,
	"non-compliance": RiskCompliance,
	"violation":      RiskCompliance,
	"fraud":          RiskFinancial,
	"default":        RiskFinancial,
	"bankruptcy":     RiskFinancial,
	"insolvency":     RiskFinancial,
	"write-off":      RiskFinancial,
	"loss":           RiskFinancial,
	"outage":         RiskOperational,
	"shortage":       RiskOperational,
	"delay":          RiskOperational,
	"failure":        RiskOperational,
	"scandal":        RiskReputational,
	"complaint":      RiskReputational,
	"negative press": RiskReputational,
	"sanction":       RiskRegulatory,
	"penalty":        RiskRegulatory,
	"fine":           RiskRegulatory,
	"investigation":  RiskRegulatory,
	"data breach":    RiskPrivacy,
	"personal data":  RiskPrivacy,
	"leak":           RiskPrivacy,
})

// ComplianceTerms maps regulatory vocabulary to the regulation it concerns.
var ComplianceTerms = NewLexicon(map[string]string{
	"gdpr":                    "GDPR",
	"hipaa":                   "HIPAA",
	"sox":                     "SOX",
	"sarbanes-oxley":          "SOX",
	"sec":                     "SEC",
	"securities and exchange": "SEC",
	"fcpa":                    "FCPA",
	"anti-money laundering":   "AML",
	"aml":                     "AML",
	"kyc":                     "KYC",
	"pci":                     "PCI-DSS",
	"ccpa":                    "CCPA",
	"iso 27001":               "ISO 27001",
	"compliance":              "General",
	"regulation":              "General",
	"regulatory":              "General",
	"audit":                   "General",
})

// ComplianceSeverity maps words near a compliance term to a flag type.
var ComplianceSeverity = NewLexicon(map[string]string{
	"violation":      "Violation",
	"violated":       "Violation",
	"non-compliance": "Violation",
	"noncompliant":   "Violation",
	"risk":           "Risk",
	"exposure":       "Risk",
	"missing":        "Gap",
	"gap":            "Gap",
	"lacks":          "Gap",
	"required":       "Requirement",
	"must":           "Requirement",
	"shall":          "Requirement",
})

// AnomalyTerms flags language describing something out of the ordinary.
var AnomalyTerms = NewLexicon(map[string]string{
	"unusual":      "UnusualPattern",
	"irregular*":   "UnusualPattern",
	"suspicious":   "UnusualPattern",
	"anomal*":      "UnusualPattern",
	"unexpected":   "ContentAnomaly",
	"discrepanc*":  "ContentAnomaly",
	"inconsistent": "ContentAnomaly",
	"outlier":      "OutlierValue",
	"spike":        "VolumeAnomaly",
	"surge":        "VolumeAnomaly",
	"backdated":    "TemporalAnomaly",
	"overdue":      "TemporalAnomaly",
})

// SentimentTerms scores words as positive or negative.
var SentimentTerms = NewLexicon(map[string]string{
	"pleased":      "positive",
	"excellent":    "positive",
	"success*":     "positive",
	"agree*":       "positive",
	"approve*":     "positive",
	"growth":       "positive",
	"profit*":      "positive",
	"concern*":     "negative",
	"disappoint*":  "negative",
	"dispute*":     "negative",
	"angry":        "negative",
	"terminate*":   "negative",
	"reject*":      "negative",
	"threat*":      "negative",
	"unacceptable": "negative",
})

var (
	emailPattern     = regexp.MustCompile(`\b[\w.+-]+@[\w-]+\.[\w.]+\b`)
	phonePattern     = regexp.MustCompile(`\(?\b\d{3}\)?[-. ]\d{3}[-. ]\d{4}\b`)
	percentPattern   = regexp.MustCompile(`\b\d+(?:\.\d+)?%`)
	referencePattern = regexp.MustCompile(`\b[A-Z]{2,5}-\d{3,}\b`)
)

// StructuredPattern is a recurring structured token such as an email address.
type StructuredPattern struct {
	Kind string
	Text string
}

// StructuredPatterns returns email addresses, phone numbers, percentages
// and reference codes in text, in order of kind then appearance.
func StructuredPatterns(text string) []StructuredPattern {
	var out []StructuredPattern
	for _, p := range []struct {
		kind string
		re   *regexp.Regexp
	}{
		{"email", emailPattern},
		{"phone", phonePattern},
		{"percentage", percentPattern},
		{"reference", referencePattern},
	} {
		for _, m := range p.re.FindAllString(text, -1) {
			out = append(out, StructuredPattern{Kind: p.kind, Text: m})
		}
	}
	return out
}

// EventTerms maps words that describe something happening to a timeline
// event type.
var EventTerms = NewLexicon(map[string]string{
	"signed":    "Signing",
	"signing":   "Signing",
	"executed":  "Signing",
	"meeting":   "Meeting",
	"met":       "Meeting",
	"meets":     "Meeting",
	"paid":      "Payment",
	"payment":   "Payment",
	"invoice*":  "Payment",
	"deadline":  "Deadline",
	"due":       "Deadline",
	"filed":     "Filing",
	"filing":    "Filing",
	"approved":  "Approval",
	"approval":  "Approval",
	"closed":    "Closing",
	"closing":   "Closing",
	"announced": "Announcement",
	"launch*":   "Announcement",
})
