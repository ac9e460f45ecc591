package ingestion

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrPipelineReleased is returned by Ingest after Release.
	ErrPipelineReleased = errors.New("pipeline released")
)
