package storage

import (
	"strings"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/extract"
)

const (
	excerptWindow = 10 // words scanned at a time for the pattern
	excerptBefore = 5  // words kept before the matching window
	excerptAfter  = 15 // words kept after the start of the matching window
	contextBefore = 25
	contextAfter  = 40
)

// Excerpt locates the first run of excerptWindow words containing pattern
// (case-insensitive) and returns a short excerpt around it plus a wider
// context window. It reports false when the pattern does not occur.
func Excerpt(text, pattern string) (excerpt, context string, ok bool) {
	needle := strings.ToLower(strings.TrimSpace(pattern))
	if needle == "" {
		return "", "", false
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return "", "", false
	}

	size := excerptWindow
	if len(words) < size {
		size = len(words)
	}
	for i := 0; i+size <= len(words); i++ {
		window := strings.ToLower(strings.Join(words[i:i+size], " "))
		if !strings.Contains(window, needle) {
			continue
		}
		excerpt = strings.Join(words[clampLow(i-excerptBefore):clampHigh(i+excerptAfter, len(words))], " ")
		context = strings.Join(words[clampLow(i-contextBefore):clampHigh(i+contextAfter, len(words))], " ")
		return excerpt, context, true
	}
	return "", "", false
}

// CountOccurrences counts case-insensitive, non-overlapping occurrences of
// pattern in text.
func CountOccurrences(text, pattern string) int {
	needle := strings.ToLower(strings.TrimSpace(pattern))
	if needle == "" {
		return 0
	}
	return strings.Count(strings.ToLower(text), needle)
}

// RelevanceFromCount maps a match count to a score in (0,1].
func RelevanceFromCount(n int) float32 {
	if n <= 0 {
		return 0
	}
	score := 0.5 + 0.1*float32(n)
	if score > 1 {
		score = 1
	}
	return score
}

func clampLow(i int) int {
	if i < 0 {
		return 0
	}
	return i
}

func clampHigh(i, n int) int {
	if i > n {
		return n
	}
	return i
}

// SearchTerms returns the index terms for a pattern, preferring content
// words and falling back to stop words for stop-word-only patterns.
func SearchTerms(pattern string) []string {
	all := extract.IndexTerms(pattern)
	var terms []string
	for _, t := range all {
		if !extract.IsStopWord(t) {
			terms = append(terms, t)
		}
	}
	if len(terms) == 0 {
		return all
	}
	return terms
}

// HitFor builds a hit for doc. Phrase matches score by phrase occurrences;
// otherwise the hit is anchored on the first term found and scored at a
// discount. It reports false when neither the phrase nor any term occurs.
func HitFor(doc *core.Document, pattern string, terms []string) (core.Hit, bool) {
	hit := core.Hit{DocumentID: doc.ID, Title: DocumentTitle(doc)}

	if excerpt, context, ok := Excerpt(doc.Content, pattern); ok {
		hit.Excerpt = excerpt
		hit.Context = context
		hit.RelevanceScore = RelevanceFromCount(CountOccurrences(doc.Content, pattern))
		return hit, true
	}

	total := 0
	for _, term := range terms {
		total += CountOccurrences(doc.Content, term)
	}
	for _, term := range terms {
		if excerpt, context, ok := Excerpt(doc.Content, term); ok {
			hit.Excerpt = excerpt
			hit.Context = context
			hit.RelevanceScore = RelevanceFromCount(total) * 0.8
			return hit, true
		}
	}
	return core.Hit{}, false
}

// DocumentTitle returns the display title of doc: its title, else its
// path, else the start of its content.
func DocumentTitle(doc *core.Document) string {
	if doc.Title != "" {
		return doc.Title
	}
	if doc.Path != "" {
		return doc.Path
	}
	words := strings.Fields(doc.Content)
	if len(words) > 8 {
		words = words[:8]
	}
	return strings.Join(words, " ")
}
