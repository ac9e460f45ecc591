package aggregate

import "errors"

var (
	// ErrInvalidClusterSize is returned when the minimum cluster size is below one.
	ErrInvalidClusterSize = errors.New("minimum cluster size must be at least 1")

	// ErrInvalidSuggestionLimit is returned when the suggestion limit is negative.
	ErrInvalidSuggestionLimit = errors.New("suggestion limit cannot be negative")
)
