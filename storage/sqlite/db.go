package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

// schema creates the document table, its FTS5 index and the query log.
// The FTS table is standalone and keyed by document rowid; repositories
// keep it in step with documents inside each write transaction.
const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id          INTEGER PRIMARY KEY,
	doc_type    TEXT    NOT NULL,
	ts          INTEGER NOT NULL,
	body        BLOB    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_type ON documents(doc_type);
CREATE INDEX IF NOT EXISTS idx_documents_ts ON documents(ts);

CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
	title,
	content,
	keywords,
	entities
);

CREATE TABLE IF NOT EXISTS query_history (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	ts         INTEGER NOT NULL,
	user_id    TEXT    NOT NULL DEFAULT '',
	body       BLOB    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_ts ON query_history(ts);
CREATE INDEX IF NOT EXISTS idx_history_user ON query_history(user_id, ts);
`

// DB wraps a SQLite database holding documents and query history.
type DB struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenDB opens (creating if needed) a SQLite database at dsn and applies the schema.
// Use ":memory:" for a private in-memory database.
func OpenDB(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer; a single connection also
	// keeps ":memory:" databases from splitting across connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if dsn != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &DB{
		db:     db,
		logger: slog.Default().With("component", "sqlite"),
	}, nil
}

// Close checkpoints the WAL and closes the database.
func (d *DB) Close() error {
	if _, err := d.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		d.logger.Warn("wal checkpoint failed", "err", err)
	}
	return d.db.Close()
}

// NewMemoryRepositories opens an in-memory database with document and
// history repositories for testing. Caller must close the DB when done.
func NewMemoryRepositories() (*DocumentRepository, *HistoryRepository, *DB, error) {
	db, err := OpenDB(":memory:")
	if err != nil {
		return nil, nil, nil, err
	}
	return NewDocumentRepository(db), NewHistoryRepository(db), db, nil
}
