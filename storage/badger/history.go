package badger

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
)

// HistoryRepository implements storage.HistoryRepository for BadgerDB.
// Entries are keyed by timestamp so range scans come back in order.
type HistoryRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.HistoryRepository = (*HistoryRepository)(nil)

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(backend *Backend) (*HistoryRepository, error) {
	idSeq, err := backend.GetSequence(historyIDSeq)
	if err != nil {
		return nil, err
	}

	return &HistoryRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *HistoryRepository) Close() error {
	return r.idSeq.Release()
}

// AppendQuery records an executed query.
func (r *HistoryRepository) AppendQuery(ctx context.Context, entry *core.HistoricalQuery) error {
	if entry == nil {
		return storage.ErrInvalidQuery
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		seq, err := r.idSeq.Next()
		if err != nil {
			return err
		}

		value, err := storage.MarshalHistoricalQuery(entry)
		if err != nil {
			return err
		}
		key := makeHistoryKey(entry.Timestamp, seq)
		if err := tx.Set(key, value); err != nil {
			return err
		}

		if entry.UserID != "" {
			userKey := makeHistoryUserKey(entry.UserID, entry.Timestamp, seq)
			if err := tx.Set(userKey, key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// RecentQueries returns up to limit entries, newest first.
func (r *HistoryRepository) RecentQueries(ctx context.Context, limit int) ([]*core.HistoricalQuery, error) {
	if limit <= 0 {
		return nil, nil
	}

	var results []*core.HistoricalQuery
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Use reverse iterator to get most recent entries first
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = historyScanPrefix()
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(reverseSeekKey(opts.Prefix)); iter.Valid() && len(results) < limit; iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			entry, err := readHistoryItem(iter.Item())
			if err != nil {
				return err
			}
			results = append(results, entry)
		}
		return nil
	}, false)

	return results, err
}

// QueriesByUser returns up to limit entries for a user, newest first.
func (r *HistoryRepository) QueriesByUser(ctx context.Context, userID string, limit int) ([]*core.HistoricalQuery, error) {
	if limit <= 0 || userID == "" {
		return nil, nil
	}

	var results []*core.HistoricalQuery
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = makePartialHistoryUserKey(userID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(reverseSeekKey(opts.Prefix)); iter.Valid() && len(results) < limit; iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			// The index value is the primary key
			primary, err := iter.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			item, err := tx.Get(primary)
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					continue
				}
				return err
			}
			entry, err := readHistoryItem(item)
			if err != nil {
				return err
			}
			results = append(results, entry)
		}
		return nil
	}, false)

	return results, err
}

// QueriesByDateRange returns entries where start <= Timestamp < end, oldest first.
func (r *HistoryRepository) QueriesByDateRange(ctx context.Context, start, end time.Time) ([]*core.HistoricalQuery, error) {
	if !start.Before(end) {
		return nil, nil
	}

	var results []*core.HistoricalQuery
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialHistoryKey(start)
		endKey := makePartialHistoryKey(end)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = historyScanPrefix()
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if slices.Compare(iter.Item().Key(), endKey) >= 0 {
				break
			}
			entry, err := readHistoryItem(iter.Item())
			if err != nil {
				return err
			}
			results = append(results, entry)
		}
		return nil
	}, false)

	return results, err
}

func readHistoryItem(item *badger.Item) (*core.HistoricalQuery, error) {
	var entry *core.HistoricalQuery
	err := item.Value(func(val []byte) error {
		var err error
		entry, err = storage.UnmarshalHistoricalQuery(val)
		return err
	})
	return entry, err
}
