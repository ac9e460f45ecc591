package classify

import (
	"strings"

	"github.com/poiesic/quarry/core"
)

// ParseIntent resolves an intent name or alias, case-insensitively.
func ParseIntent(s string) (core.Intent, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	for _, in := range core.Intents {
		if strings.ToLower(string(in)) == s {
			return in, true
		}
	}
	in, ok := intentAliases[s]
	return in, ok
}

// ParseScope resolves a scope name, case-insensitively.
func ParseScope(s string) (core.Scope, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "narrow":
		return core.ScopeNarrow, true
	case "focused":
		return core.ScopeFocused, true
	case "broad":
		return core.ScopeBroad, true
	case "exhaustive":
		return core.ScopeExhaustive, true
	}
	return "", false
}

// ParsePriority resolves a priority name, case-insensitively.
func ParsePriority(s string) (core.Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "urgent":
		return core.PriorityUrgent, true
	case "high":
		return core.PriorityHigh, true
	case "normal":
		return core.PriorityNormal, true
	case "background":
		return core.PriorityBackground, true
	}
	return "", false
}
