package bulk

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrIngesterRequired is returned when a loader has nothing to ingest into.
	ErrIngesterRequired = errors.New("ingester required")

	// ErrNotDirectory is returned when the load root is not a directory.
	ErrNotDirectory = errors.New("not a directory")

	// ErrUnsupportedFile is returned when a file's extension has no parser.
	ErrUnsupportedFile = errors.New("unsupported file type")
)
