package classify

import "errors"

var (
	// ErrIntentClassifierRequired is returned when an assisted classifier is built without a model.
	ErrIntentClassifierRequired = errors.New("intent classifier required")

	// ErrInvalidMinConfidence is returned for a confidence threshold outside [0,1].
	ErrInvalidMinConfidence = errors.New("min confidence must be between 0 and 1")
)
