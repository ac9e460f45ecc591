package search

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
	"github.com/poiesic/quarry/storage/badger"
	"github.com/stretchr/testify/require"
)

const dealText = "Jane Doe is negotiating the TechCorp acquisition. The TechCorp board meets on 3/14/2023."

// countingStore counts searches and can hold them until release closes.
type countingStore struct {
	storage.DocumentStore
	searches atomic.Int64
	release  chan struct{}
}

func (s *countingStore) Search(ctx context.Context, pattern string, limit int, filters *core.SearchFilters) ([]core.Hit, error) {
	s.searches.Add(1)
	if s.release != nil {
		<-s.release
		return nil, ctx.Err()
	}
	return s.DocumentStore.Search(ctx, pattern, limit, filters)
}

// stallingStore holds every search until its context ends.
type stallingStore struct {
	storage.DocumentStore
	searches atomic.Int64
}

func (s *stallingStore) Search(ctx context.Context, pattern string, limit int, filters *core.SearchFilters) ([]core.Hit, error) {
	s.searches.Add(1)
	<-ctx.Done()
	return nil, ctx.Err()
}

// slowStatsStore holds the document count until its context ends.
type slowStatsStore struct {
	storage.DocumentStore
}

func (s *slowStatsStore) DocumentCount(ctx context.Context) (int, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

// newDealRepos returns in-memory repositories holding the acquisition email
// and an unrelated memo.
func newDealRepos(t *testing.T) (storage.DocumentRepository, storage.HistoryRepository) {
	t.Helper()
	docs, history, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		history.Close()
		docs.Close()
		backend.Close()
	})

	_, err = docs.AddDocuments(context.Background(),
		&core.Document{Title: "acquisition.eml", Type: core.DocumentTypeEmail, Content: dealText},
		&core.Document{Title: "lunch.txt", Type: core.DocumentTypePlainText, Content: "The cafeteria menu changes on Friday."},
	)
	require.NoError(t, err)
	return docs, history
}

func dealQuery() *core.Query {
	return &core.Query{
		ID:                "q-1",
		Text:              "who is negotiating the TechCorp acquisition",
		Intent:            core.IntentRelationshipMapping,
		Scope:             core.ScopeFocused,
		Priority:          core.PriorityUrgent,
		RelationshipDepth: core.DefaultRelationshipDepth,
	}
}
