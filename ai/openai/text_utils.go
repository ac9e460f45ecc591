package openai

import "strings"

// maxQueryRunes bounds the query text sent to the model.
const maxQueryRunes = 512

// compactQuery collapses whitespace and truncates overly long input.
func compactQuery(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > maxQueryRunes {
		s = string(r[:maxQueryRunes])
	}
	return s
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
