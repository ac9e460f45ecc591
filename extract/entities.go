package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/poiesic/quarry/core"
)

var (
	moneyPattern   = regexp.MustCompile(`\$[\d,]+(?:\.\d{2})?`)
	personPattern  = regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z][a-z]+\b`)
	slashDate      = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)
	isoDate        = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	longDate       = regexp.MustCompile(`\b(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\.? \d{1,2}, \d{4}\b`)
	companySuffix  = regexp.MustCompile(`\b(?:[A-Z][A-Za-z0-9&]*\s){0,3}[A-Z][A-Za-z0-9&]*,?\s(?:Inc|Corp|Corporation|LLC|Ltd|LLP|Holdings|Group|Company)\b`)
	companyCamel   = regexp.MustCompile(`\b[A-Z][a-z]+(?:[A-Z][a-z0-9]+)+\b`)
	legalPattern   = regexp.MustCompile(`(?i)\b(?:non-disclosure agreement|nda|contract|agreement|lawsuit|litigation|indemnif\w*|breach|liabilit\w*|settlement|subpoena|arbitration|injunction|warranty|clause)\b`)
	leadingNoise   = map[string]bool{"The": true, "This": true, "That": true, "In": true, "On": true, "At": true, "Dear": true, "From": true, "To": true, "Subject": true, "Re": true, "And": true, "But": true, "For": true, "If": true, "When": true, "Our": true, "Their": true, "Best": true, "Kind": true}
	companyKeyword = regexp.MustCompile(`\b(?:Inc|Corp|Corporation|LLC|Ltd|LLP|Holdings|Group|Company)\.?$`)
)

// Mention is an entity-like span recognised in text.
type Mention struct {
	Text  string
	Type  core.FindingType
	Start int
	End   int
}

// Money returns the monetary amounts in text.
func Money(text string) []Mention {
	return collect(text, moneyPattern, core.FindingMonetaryAmount)
}

// People returns capitalised two-word names in text.
func People(text string) []Mention {
	var out []Mention
	for _, m := range collect(text, personPattern, core.FindingPersonMention) {
		first := strings.Fields(m.Text)[0]
		if leadingNoise[first] {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Dates returns date-like spans in text in numeric, ISO, and long forms.
func Dates(text string) []Mention {
	var out []Mention
	out = append(out, collect(text, slashDate, core.FindingDateReference)...)
	out = append(out, collect(text, isoDate, core.FindingDateReference)...)
	out = append(out, collect(text, longDate, core.FindingDateReference)...)
	return sortMentions(out)
}

// Companies returns organisation names ending in a corporate suffix, and
// CamelCase brand names such as "TechCorp".
func Companies(text string) []Mention {
	var out []Mention
	out = append(out, collect(text, companySuffix, core.FindingCompanyReference)...)
	out = append(out, collect(text, companyCamel, core.FindingCompanyReference)...)
	return dedupeOverlaps(sortMentions(out))
}

// LegalTerms returns contract and litigation vocabulary in text.
func LegalTerms(text string) []Mention {
	return collect(text, legalPattern, core.FindingLegalTerm)
}

// Entities returns every recognised mention in text, ordered by position.
// Person matches that are really company names are reported as companies.
func Entities(text string) []Mention {
	var all []Mention
	all = append(all, Money(text)...)
	all = append(all, Dates(text)...)
	all = append(all, Companies(text)...)
	for _, p := range People(text) {
		if companyKeyword.MatchString(p.Text) {
			continue
		}
		all = append(all, p)
	}
	return dedupeOverlaps(sortMentions(all))
}

// Names returns the distinct texts of the person and company mentions in
// text, in order of first appearance.
func Names(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range Entities(text) {
		if m.Type != core.FindingPersonMention && m.Type != core.FindingCompanyReference {
			continue
		}
		_, key := NormalizeName(m.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m.Text)
	}
	return out
}

func collect(text string, re *regexp.Regexp, t core.FindingType) []Mention {
	locs := re.FindAllStringIndex(text, -1)
	out := make([]Mention, 0, len(locs))
	for _, loc := range locs {
		out = append(out, Mention{
			Text:  strings.TrimSpace(strings.TrimRight(text[loc[0]:loc[1]], ",")),
			Type:  t,
			Start: loc[0],
			End:   loc[1],
		})
	}
	return out
}

func sortMentions(ms []Mention) []Mention {
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].Start != ms[j].Start {
			return ms[i].Start < ms[j].Start
		}
		return ms[i].End > ms[j].End
	})
	return ms
}

// dedupeOverlaps keeps the first (longest at a given start) of any
// overlapping mentions. Input must be sorted.
func dedupeOverlaps(ms []Mention) []Mention {
	out := ms[:0]
	end := -1
	for _, m := range ms {
		if m.Start < end {
			continue
		}
		out = append(out, m)
		end = m.End
	}
	return out
}
