package extract

import (
	"sort"
	"strings"
)

// Stop words to filter out of keyword sets
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "were": true, "been": true, "has": true, "had": true,
	"will": true, "would": true, "could": true, "should": true, "about": true,
	"which": true, "their": true, "there": true, "them": true, "they": true,
	"what": true, "when": true, "where": true, "into": true, "than": true,
	"then": true, "these": true, "those": true, "some": true, "such": true,
}

const trimSet = ".,!?;:'\"-()[]{}<>*_`"

// IsStopWord reports whether a lowercased word carries no search value.
func IsStopWord(word string) bool {
	return stopWords[word]
}

// Words splits text on whitespace, lowercases, and trims punctuation.
// Empty tokens are dropped; stop words are kept.
func Words(text string) []string {
	fields := strings.Fields(text)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.ToLower(strings.Trim(f, trimSet))
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

// Tokenize splits text into words, lowercases, trims punctuation, and removes stop words
func Tokenize(text string) []string {
	words := Words(text)
	filtered := words[:0]
	for _, w := range words {
		if !stopWords[w] {
			filtered = append(filtered, w)
		}
	}
	return filtered
}

// QueryKeywords returns the distinct lowercased words of a query that are
// longer than minLen characters, in first-seen order.
func QueryKeywords(query string, minLen int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, w := range Words(query) {
		if len(w) <= minLen || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// TopKeywords returns up to n of the most frequent non-stop-words longer
// than three characters. Ties are broken alphabetically.
func TopKeywords(text string, n int) []string {
	counts := make(map[string]int)
	for _, w := range Tokenize(text) {
		if len(w) > 3 {
			counts[w]++
		}
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// ContainsAllWords checks if all query words (after filtering) appear in the document
func ContainsAllWords(document, query string) bool {
	queryWords := Tokenize(query)
	if len(queryWords) == 0 {
		return false
	}

	docWords := Tokenize(document)
	docWordSet := make(map[string]bool, len(docWords))
	for _, word := range docWords {
		docWordSet[word] = true
	}

	for _, qWord := range queryWords {
		if !docWordSet[qWord] {
			return false
		}
	}

	return true
}

// HasAnyWord reports whether any of the words appears as a token of text.
// A trailing plural "s" on the token is tolerated.
func HasAnyWord(text string, words ...string) bool {
	tokens := Words(text)
	for _, tok := range tokens {
		for _, w := range words {
			if tok == w || tok == w+"s" {
				return true
			}
		}
	}
	return false
}

// NormalizeName collapses whitespace in a name and returns it with its
// case-folded merge key.
func NormalizeName(name string) (display, key string) {
	display = strings.Join(strings.Fields(strings.Trim(name, trimSet+" ")), " ")
	return display, strings.ToLower(display)
}

// IndexTerms returns the distinct words of text as stored in a term index:
// lowercased, punctuation trimmed, possessive suffix removed.
func IndexTerms(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, w := range Words(text) {
		w = strings.TrimSuffix(strings.TrimSuffix(w, "'s"), "’s")
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
