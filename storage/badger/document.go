package badger

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/extract"
	"github.com/poiesic/quarry/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
// Search is served from an inverted term index kept alongside each document.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	return &DocumentRepository{
		backend: backend,
	}, nil
}

// Close releases resources. DocumentRepository has no resources to release.
func (r *DocumentRepository) Close() error {
	return nil
}

// AddDocuments adds one or more documents to storage.
func (r *DocumentRepository) AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	for _, doc := range docs {
		if err := core.ValidateDocument(doc); err != nil {
			return nil, err
		}
	}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			// Use content-based ID if not set
			if doc.ID == 0 {
				doc.ID = core.IDFromContent(doc.Content)
			}

			// Re-adding replaces the old index entries
			old, err := readDocument(tx, makeDocumentKey(doc.ID))
			if err != nil {
				return err
			}
			if old != nil {
				if err := deleteIndexes(tx, old); err != nil {
					return err
				}
			}

			doc.InsertedAt = time.Now().UTC()
			doc.UpdatedAt = doc.InsertedAt
			if err := writeDocument(tx, doc); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// UpdateDocuments updates existing documents.
func (r *DocumentRepository) UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	for _, doc := range docs {
		if err := core.ValidateDocument(doc); err != nil {
			return nil, err
		}
	}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			old, err := readDocument(tx, makeDocumentKey(doc.ID))
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}
			if err := deleteIndexes(tx, old); err != nil {
				return err
			}

			doc.InsertedAt = old.InsertedAt
			doc.UpdatedAt = time.Now().UTC()
			if err := writeDocument(tx, doc); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// DeleteDocuments removes documents by their IDs.
func (r *DocumentRepository) DeleteDocuments(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeDocumentKey(id)
			doc, err := readDocument(tx, key)
			if err != nil {
				return err
			}
			if doc == nil {
				return storage.ErrNotFound
			}
			if err := deleteIndexes(tx, doc); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetDocuments retrieves multiple documents by their IDs.
func (r *DocumentRepository) GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error) {
	var result []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			doc, err := readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc != nil {
				result = append(result, doc)
			}
		}
		return nil
	}, false)
	return result, err
}

// DocumentCount returns the number of stored documents.
func (r *DocumentRepository) DocumentCount(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.scanPrefix(ctx, documentScanPrefix(), false, func(_, _ []byte) error {
		count++
		return nil
	})
	return count, err
}

// DocumentTypeDistribution counts documents per type from the type index.
func (r *DocumentRepository) DocumentTypeDistribution(ctx context.Context) (map[core.DocumentType]int, error) {
	dist := make(map[core.DocumentType]int)
	err := r.backend.scanPrefix(ctx, typeScanPrefix(), false, func(key, _ []byte) error {
		if t := parseTypeKey(key); t != "" {
			dist[t]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dist, nil
}

// Search finds documents containing every non-stop-word of pattern.
// Documents containing the whole pattern as a phrase rank above those
// that only contain its words.
func (r *DocumentRepository) Search(ctx context.Context, pattern string, limit int, filters *core.SearchFilters) ([]core.Hit, error) {
	terms := storage.SearchTerms(pattern)
	if len(terms) == 0 {
		return nil, nil
	}

	var hits []core.Hit
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		candidates, err := matchingIDs(ctx, tx, terms)
		if err != nil {
			return err
		}

		for _, id := range candidates {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc == nil || !filters.Matches(doc) {
				continue
			}
			if hit, ok := storage.HitFor(doc, pattern, terms); ok {
				hits = append(hits, hit)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(hits, func(a, b core.Hit) int {
		if a.RelevanceScore != b.RelevanceScore {
			if a.RelevanceScore > b.RelevanceScore {
				return -1
			}
			return 1
		}
		if a.DocumentID < b.DocumentID {
			return -1
		}
		if a.DocumentID > b.DocumentID {
			return 1
		}
		return 0
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	r.backend.logger.Debug("search", "pattern", pattern, "hits", len(hits))
	return hits, nil
}

// Helper methods

// matchingIDs intersects the term index postings for terms, returning IDs
// in ascending order.
func matchingIDs(ctx context.Context, tx *badger.Txn, terms []string) ([]core.ID, error) {
	var result map[core.ID]bool
	for _, term := range terms {
		postings := make(map[core.ID]bool)
		prefix := makePartialTermKey(term)

		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				iter.Close()
				return nil, err
			}
			id, err := storage.UnmarshalID(iter.Item().Key()[len(prefix):])
			if err != nil {
				iter.Close()
				return nil, err
			}
			if result == nil || result[id] {
				postings[id] = true
			}
		}
		iter.Close()

		result = postings
		if len(result) == 0 {
			return nil, nil
		}
	}

	ids := make([]core.ID, 0, len(result))
	for id := range result {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// writeDocument stores the primary record and its index entries.
func writeDocument(tx *badger.Txn, doc *core.Document) error {
	value, err := storage.MarshalDocument(doc)
	if err != nil {
		return err
	}
	if err := tx.Set(makeDocumentKey(doc.ID), value); err != nil {
		return err
	}
	for _, term := range extract.IndexTerms(doc.Content) {
		if err := tx.Set(makeTermKey(term, doc.ID), nil); err != nil {
			return err
		}
	}
	return tx.Set(makeTypeKey(doc.Type, doc.ID), nil)
}

// deleteIndexes removes the index entries written for doc.
func deleteIndexes(tx *badger.Txn, doc *core.Document) error {
	for _, term := range extract.IndexTerms(doc.Content) {
		if err := tx.Delete(makeTermKey(term, doc.ID)); err != nil {
			return err
		}
	}
	return tx.Delete(makeTypeKey(doc.Type, doc.ID))
}

// readDocument reads a document from the transaction.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalDocument(val)
		return err
	})
	return doc, err
}
