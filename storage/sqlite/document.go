package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
)

// DocumentRepository implements storage.DocumentRepository on SQLite,
// searching through an FTS5 index ranked by bm25.
type DocumentRepository struct {
	db            *DB
	fuzzyFallback bool
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// DocumentOption configures a DocumentRepository.
type DocumentOption func(*DocumentRepository)

// WithFuzzyFallback retries a multi-term search that found nothing as an
// OR of prefix terms.
func WithFuzzyFallback(enabled bool) DocumentOption {
	return func(r *DocumentRepository) {
		r.fuzzyFallback = enabled
	}
}

// NewDocumentRepository creates a DocumentRepository over db.
func NewDocumentRepository(db *DB, opts ...DocumentOption) *DocumentRepository {
	r := &DocumentRepository{db: db}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Close releases resources. The underlying DB is closed separately.
func (r *DocumentRepository) Close() error {
	return nil
}

// AddDocuments stores documents, replacing any with the same ID.
func (r *DocumentRepository) AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	for _, doc := range docs {
		if err := core.ValidateDocument(doc); err != nil {
			return nil, err
		}
	}
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		for _, doc := range docs {
			if doc.ID == 0 {
				doc.ID = core.IDFromContent(doc.Content)
			}
			doc.InsertedAt = time.Now().UTC()
			doc.UpdatedAt = doc.InsertedAt
			if err := deleteRow(ctx, tx, doc.ID); err != nil {
				return err
			}
			if err := insertRow(ctx, tx, doc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// UpdateDocuments replaces existing documents.
func (r *DocumentRepository) UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	for _, doc := range docs {
		if err := core.ValidateDocument(doc); err != nil {
			return nil, err
		}
	}
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		for _, doc := range docs {
			old, err := readRow(ctx, tx, doc.ID)
			if err != nil {
				return err
			}
			doc.InsertedAt = old.InsertedAt
			doc.UpdatedAt = time.Now().UTC()
			if err := deleteRow(ctx, tx, doc.ID); err != nil {
				return err
			}
			if err := insertRow(ctx, tx, doc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// DeleteDocuments removes documents by ID.
func (r *DocumentRepository) DeleteDocuments(ctx context.Context, ids ...core.ID) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			if _, err := readRow(ctx, tx, id); err != nil {
				return err
			}
			if err := deleteRow(ctx, tx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	return readRow(ctx, r.db.db, id)
}

// GetDocuments retrieves the documents that exist among ids.
func (r *DocumentRepository) GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error) {
	var out []*core.Document
	for _, id := range ids {
		doc, err := readRow(ctx, r.db.db, id)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// DocumentCount returns the number of stored documents.
func (r *DocumentRepository) DocumentCount(ctx context.Context) (int, error) {
	var n int
	if err := r.db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count documents: %w", err)
	}
	return n, nil
}

// DocumentTypeDistribution returns the number of documents per type.
func (r *DocumentRepository) DocumentTypeDistribution(ctx context.Context) (map[core.DocumentType]int, error) {
	rows, err := r.db.db.QueryContext(ctx, `SELECT doc_type, COUNT(*) FROM documents GROUP BY doc_type`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: type distribution: %w", err)
	}
	defer func() { _ = rows.Close() }()

	dist := make(map[core.DocumentType]int)
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		dist[core.DocumentType(t)] = n
	}
	return dist, rows.Err()
}

// Search runs pattern against the FTS5 index. Every content word of the
// pattern must match; with fuzzy fallback enabled an empty result for a
// multi-term pattern is retried as an OR of prefix terms. Hits come back in
// bm25 order and are scored like the other backends' hits.
func (r *DocumentRepository) Search(ctx context.Context, pattern string, limit int, filters *core.SearchFilters) ([]core.Hit, error) {
	terms := storage.SearchTerms(pattern)
	if len(terms) == 0 {
		return nil, nil
	}

	hits, err := r.search(ctx, strictFTSQuery(terms), pattern, terms, limit, filters)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 && r.fuzzyFallback && len(terms) > 1 {
		if relaxed := fuzzyFTSQuery(terms); relaxed != "" {
			return r.search(ctx, relaxed, pattern, terms, limit, filters)
		}
	}
	return hits, nil
}

func (r *DocumentRepository) search(ctx context.Context, match, pattern string, terms []string, limit int, filters *core.SearchFilters) ([]core.Hit, error) {
	query := strings.Builder{}
	query.WriteString(`
		SELECT d.body, bm25(documents_fts) AS score
		FROM documents_fts
		JOIN documents d ON d.id = documents_fts.rowid
		WHERE documents_fts MATCH ?`)
	args := []any{match}

	if filters != nil {
		if len(filters.DocumentTypes) > 0 {
			query.WriteString(` AND d.doc_type IN (?` + strings.Repeat(`, ?`, len(filters.DocumentTypes)-1) + `)`)
			for _, t := range filters.DocumentTypes {
				args = append(args, string(t))
			}
		}
		if !filters.Since.IsZero() {
			query.WriteString(` AND d.ts >= ?`)
			args = append(args, filters.Since.UnixMicro())
		}
		if !filters.Until.IsZero() {
			query.WriteString(` AND d.ts < ?`)
			args = append(args, filters.Until.UnixMicro())
		}
	}
	if limit <= 0 {
		limit = -1
	}
	query.WriteString(` ORDER BY score LIMIT ?`)
	args = append(args, limit)

	rows, err := r.db.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: search MATCH %q: %w", match, err)
	}
	defer func() { _ = rows.Close() }()

	var hits []core.Hit
	for rows.Next() {
		var body []byte
		var score float64
		if err := rows.Scan(&body, &score); err != nil {
			return nil, fmt.Errorf("sqlite: search scan: %w", err)
		}
		doc, err := storage.UnmarshalDocument(body)
		if err != nil {
			return nil, err
		}
		hit, ok := storage.HitFor(doc, pattern, terms)
		if !ok {
			// prefix matches may not occur verbatim in the content
			hit = core.Hit{DocumentID: doc.ID, Title: storage.DocumentTitle(doc), Excerpt: leadingWords(doc.Content, 20)}
			hit.RelevanceScore = bm25Relevance(score)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.db.logger.Debug("search", "match", match, "hits", len(hits))
	return hits, nil
}

func (r *DocumentRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readRow(ctx context.Context, q queryer, id core.ID) (*core.Document, error) {
	var body []byte
	err := q.QueryRowContext(ctx, `SELECT body FROM documents WHERE id = ?`, int64(id)).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return storage.UnmarshalDocument(body)
}

func insertRow(ctx context.Context, tx *sql.Tx, doc *core.Document) error {
	body, err := storage.MarshalDocument(doc)
	if err != nil {
		return err
	}
	ts := doc.CreatedAt
	if ts.IsZero() {
		ts = doc.InsertedAt
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (id, doc_type, ts, body) VALUES (?, ?, ?, ?)`,
		int64(doc.ID), string(doc.Type), ts.UnixMicro(), body); err != nil {
		return fmt.Errorf("sqlite: insert document: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents_fts (rowid, title, content, keywords, entities) VALUES (?, ?, ?, ?, ?)`,
		int64(doc.ID), doc.Title, doc.Content, strings.Join(doc.Keywords, " "), doc.Metadata[core.DocMetaEntities]); err != nil {
		return fmt.Errorf("sqlite: index document: %w", err)
	}
	return nil
}

func deleteRow(ctx context.Context, tx *sql.Tx, id core.ID) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, int64(id)); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM documents_fts WHERE rowid = ?`, int64(id))
	return err
}

func leadingWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// bm25Relevance maps an FTS5 bm25 score (lower is better, usually
// negative) into (0,1).
func bm25Relevance(score float64) float32 {
	s := -score
	if s <= 0 {
		return 0.01
	}
	return float32(s / (1 + s))
}
