package scout

import (
	"slices"
	"strings"
	"unicode"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/extract"
)

// Query words must be longer than this to become keyword patterns.
const minKeywordLength = 3

// keywords tokenizes text into lowercase, deduplicated words longer than
// three characters, skipping stop words.
func keywords(text string) []string {
	var out []string
	for _, w := range extract.QueryKeywords(text, minKeywordLength) {
		if !extract.IsStopWord(w) {
			out = append(out, w)
		}
	}
	return out
}

// bigrams joins adjacent keywords into two-word phrases.
func bigrams(words []string) []string {
	var out []string
	for i := 0; i+1 < len(words); i++ {
		out = append(out, words[i]+" "+words[i+1])
	}
	return out
}

// hintKeywords returns the keywords of the query's context hints that the
// query text itself does not already contribute.
func hintKeywords(q *core.Query) []string {
	own := keywords(q.Text)
	var out []string
	for _, hint := range q.ContextHints {
		for _, w := range keywords(hint) {
			if !slices.Contains(own, w) && !slices.Contains(out, w) {
				out = append(out, w)
			}
		}
	}
	return out
}

// namesThenKeywords returns the names mentioned in the query followed by
// the keywords not already part of a name.
func namesThenKeywords(text string) []string {
	names := extract.Names(text)
	covered := make(map[string]bool)
	for _, n := range names {
		for _, w := range extract.Words(n) {
			covered[w] = true
		}
	}
	out := names
	for _, w := range keywords(text) {
		if !covered[w] {
			out = append(out, w)
		}
	}
	return out
}

// orQuery falls back to the whole query text when no pattern was derived.
func orQuery(patterns []string, q *core.Query) []string {
	if len(patterns) > 0 {
		return patterns
	}
	if text := strings.TrimSpace(q.Text); text != "" {
		return []string{text}
	}
	return nil
}

// sentenceAround returns the sentence of text containing [start, end).
func sentenceAround(text string, start, end int) string {
	from := 0
	for i := start - 1; i >= 0; i-- {
		if isSentenceEnd(text, i) {
			from = i + 1
			break
		}
	}
	to := len(text)
	for i := end; i < len(text); i++ {
		if isSentenceEnd(text, i) {
			to = i + 1
			break
		}
	}
	return strings.TrimSpace(text[from:to])
}

func isSentenceEnd(text string, i int) bool {
	switch text[i] {
	case '\n':
		return true
	case '.', '!', '?':
		return i+1 == len(text) || unicode.IsSpace(rune(text[i+1]))
	}
	return false
}
