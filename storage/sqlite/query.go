package sqlite

import (
	"strings"
	"unicode"
)

// strictFTSQuery quotes every term so FTS5 operators and punctuation in
// user input are taken literally; adjacent strings are ANDed.
func strictFTSQuery(terms []string) string {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		quoted = append(quoted, `"`+strings.ReplaceAll(t, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}

// fuzzyFTSQuery builds an OR of prefix terms from the alphanumeric runs
// of terms. Runs shorter than two characters are dropped.
func fuzzyFTSQuery(terms []string) string {
	var parts []string
	for _, t := range terms {
		for _, run := range strings.FieldsFunc(t, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}) {
			if len(run) >= 2 {
				parts = append(parts, run+"*")
			}
		}
	}
	return strings.Join(parts, " OR ")
}
