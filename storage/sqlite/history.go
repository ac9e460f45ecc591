package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
)

// HistoryRepository implements storage.HistoryRepository on SQLite.
type HistoryRepository struct {
	db *DB
}

var _ storage.HistoryRepository = (*HistoryRepository)(nil)

// NewHistoryRepository creates a HistoryRepository over db.
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Close releases resources. The underlying DB is closed separately.
func (r *HistoryRepository) Close() error {
	return nil
}

// AppendQuery records an executed query.
func (r *HistoryRepository) AppendQuery(ctx context.Context, entry *core.HistoricalQuery) error {
	if entry == nil {
		return storage.ErrInvalidQuery
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	body, err := storage.MarshalHistoricalQuery(entry)
	if err != nil {
		return err
	}
	_, err = r.db.db.ExecContext(ctx,
		`INSERT INTO query_history (ts, user_id, body) VALUES (?, ?, ?)`,
		entry.Timestamp.UnixMicro(), entry.UserID, body)
	if err != nil {
		return fmt.Errorf("sqlite: append query: %w", err)
	}
	return nil
}

// RecentQueries returns up to limit entries, newest first.
func (r *HistoryRepository) RecentQueries(ctx context.Context, limit int) ([]*core.HistoricalQuery, error) {
	if limit <= 0 {
		return nil, nil
	}
	return r.query(ctx, `SELECT body FROM query_history ORDER BY ts DESC, seq DESC LIMIT ?`, limit)
}

// QueriesByUser returns up to limit entries for a user, newest first.
func (r *HistoryRepository) QueriesByUser(ctx context.Context, userID string, limit int) ([]*core.HistoricalQuery, error) {
	if limit <= 0 || userID == "" {
		return nil, nil
	}
	return r.query(ctx,
		`SELECT body FROM query_history WHERE user_id = ? ORDER BY ts DESC, seq DESC LIMIT ?`,
		userID, limit)
}

// QueriesByDateRange returns entries where start <= Timestamp < end, oldest first.
func (r *HistoryRepository) QueriesByDateRange(ctx context.Context, start, end time.Time) ([]*core.HistoricalQuery, error) {
	if !start.Before(end) {
		return nil, nil
	}
	return r.query(ctx,
		`SELECT body FROM query_history WHERE ts >= ? AND ts < ? ORDER BY ts ASC, seq ASC`,
		start.UnixMicro(), end.UnixMicro())
}

func (r *HistoryRepository) query(ctx context.Context, q string, args ...any) ([]*core.HistoricalQuery, error) {
	rows, err := r.db.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: history query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanHistory(rows)
}

func scanHistory(rows *sql.Rows) ([]*core.HistoricalQuery, error) {
	var out []*core.HistoricalQuery
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		entry, err := storage.UnmarshalHistoricalQuery(body)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
