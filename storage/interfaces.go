package storage

import (
	"context"
	"time"

	"github.com/poiesic/quarry/core"
)

// DocumentStore is the read side the orchestrator depends on.
// Implementations must be thread-safe and support concurrent reads
// from many workers without external locking.
type DocumentStore interface {
	// Search finds documents matching pattern and returns at most limit
	// hits, best first. A nil filters value applies no filtering.
	// Cancelling ctx must abandon the search promptly.
	Search(ctx context.Context, pattern string, limit int, filters *core.SearchFilters) ([]core.Hit, error)

	// DocumentCount returns the number of stored documents.
	DocumentCount(ctx context.Context) (int, error)

	// DocumentTypeDistribution returns the number of documents per type.
	DocumentTypeDistribution(ctx context.Context) (map[core.DocumentType]int, error)
}

// DocumentRepository provides operations for managing documents.
type DocumentRepository interface {
	DocumentStore

	// AddDocuments stores one or more documents.
	// Documents with ID=0 get a content-derived ID (core.IDFromContent).
	// Re-adding a document with the same ID replaces it and its index entries.
	// Sets InsertedAt and UpdatedAt.
	// Returns the documents with IDs and timestamps populated.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// UpdateDocuments replaces existing documents and refreshes their index entries.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any document doesn't exist.
	UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// DeleteDocuments removes documents and their index entries.
	// Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, ids ...core.ID) error

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing documents).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// Close releases resources held by the repository.
	Close() error
}

// HistoryRepository is the append-only query log.
type HistoryRepository interface {
	// AppendQuery records an executed query. Entries are never rewritten.
	AppendQuery(ctx context.Context, entry *core.HistoricalQuery) error

	// RecentQueries returns up to limit entries, newest first.
	RecentQueries(ctx context.Context, limit int) ([]*core.HistoricalQuery, error)

	// QueriesByUser returns up to limit entries for a user, newest first.
	QueriesByUser(ctx context.Context, userID string, limit int) ([]*core.HistoricalQuery, error)

	// QueriesByDateRange returns entries where start <= Timestamp < end, oldest first.
	QueriesByDateRange(ctx context.Context, start, end time.Time) ([]*core.HistoricalQuery, error)

	// Close releases resources held by the repository.
	Close() error
}
