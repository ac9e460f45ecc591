package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/extract"
	"github.com/poiesic/quarry/storage"
)

// DefaultKeywordCount is the number of keywords kept per document.
const DefaultKeywordCount = 8

// keywordProcessor fills in a document's keywords and entity names.
type keywordProcessor struct {
	documents storage.DocumentRepository
	keywords  int
	logger    *slog.Logger
}

var _ processor = (*keywordProcessor)(nil)

func newKeywordProcessor(documents storage.DocumentRepository, keywords int, logger *slog.Logger) (processor, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if keywords < 1 {
		keywords = DefaultKeywordCount
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &keywordProcessor{
		documents: documents,
		keywords:  keywords,
		logger:    logger.With("processor", "keywords"),
	}, nil
}

// process enriches the specified documents. Documents deleted since they
// were ingested are skipped.
func (kp *keywordProcessor) process(ctx context.Context, ids ...core.ID) error {
	kp.logger.Debug("enriching documents", "documents", len(ids))

	docs, err := kp.documents.GetDocuments(ctx, ids...)
	if err != nil {
		return fmt.Errorf("loading documents: %w", err)
	}

	var changed []*core.Document
	for _, doc := range docs {
		if enrich(doc, kp.keywords) {
			changed = append(changed, doc)
		}
	}
	if len(changed) == 0 {
		return nil
	}

	var errs []error
	for _, doc := range changed {
		if _, err := kp.documents.UpdateDocuments(ctx, doc); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			errs = append(errs, fmt.Errorf("document %d: %w", doc.ID, err))
		}
	}
	return errors.Join(errs...)
}

// enrich merges the top keywords of doc into its Keywords, keeping any the
// caller supplied first, and records the entity names it mentions. It
// reports whether doc changed.
func enrich(doc *core.Document, n int) bool {
	changed := false
	for _, kw := range extract.TopKeywords(doc.Content, n) {
		if !slices.Contains(doc.Keywords, kw) {
			doc.Keywords = append(doc.Keywords, kw)
			changed = true
		}
	}

	if names := extract.Names(doc.Content); len(names) > 0 {
		joined := strings.Join(names, "; ")
		if doc.Metadata[core.DocMetaEntities] != joined {
			if doc.Metadata == nil {
				doc.Metadata = make(map[string]string)
			}
			doc.Metadata[core.DocMetaEntities] = joined
			changed = true
		}
	}
	return changed
}
