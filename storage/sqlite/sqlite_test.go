package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepos(t *testing.T) (*DocumentRepository, *HistoryRepository, *DB) {
	t.Helper()
	docs, history, db, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return docs, history, db
}

func sampleDocuments() []*core.Document {
	return []*core.Document{
		{
			Title:     "acquisition.eml",
			Type:      core.DocumentTypeEmail,
			Content:   "Jane Doe is negotiating the TechCorp acquisition. The TechCorp board meets on 3/14/2023.",
			CreatedAt: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			Title:     "audit.txt",
			Type:      core.DocumentTypePlainText,
			Content:   "The quarterly audit found a discrepancy in the TechCorp ledger.",
			CreatedAt: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			Title:     "minutes.md",
			Type:      core.DocumentTypeMarkdown,
			Content:   "Board minutes: the acquisitions committee approved the plan.",
			CreatedAt: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestDocumentLifecycle(t *testing.T) {
	docs, _, _ := newTestRepos(t)
	ctx := context.Background()

	added, err := docs.AddDocuments(ctx, sampleDocuments()...)
	require.NoError(t, err)
	require.Len(t, added, 3)

	got, err := docs.GetDocument(ctx, added[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "acquisition.eml", got.Title)

	got.Content = "Settlement reached with Globex Corporation."
	_, err = docs.UpdateDocuments(ctx, got)
	require.NoError(t, err)

	hits, err := docs.Search(ctx, "settlement", 10, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, added[0].ID, hits[0].DocumentID)

	require.NoError(t, docs.DeleteDocuments(ctx, added[0].ID))
	_, err = docs.GetDocument(ctx, added[0].ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, docs.DeleteDocuments(ctx, added[0].ID), storage.ErrNotFound)

	_, err = docs.UpdateDocuments(ctx, &core.Document{ID: 5, Type: core.DocumentTypeEmail, Content: "x"})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	some, err := docs.GetDocuments(ctx, added[0].ID, added[1].ID)
	require.NoError(t, err)
	assert.Len(t, some, 1)
}

func TestSearch(t *testing.T) {
	docs, _, _ := newTestRepos(t)
	ctx := context.Background()
	_, err := docs.AddDocuments(ctx, sampleDocuments()...)
	require.NoError(t, err)

	tests := []struct {
		name    string
		pattern string
		filters *core.SearchFilters
		want    []string
	}{
		{"single term", "TechCorp", nil, []string{"acquisition.eml", "audit.txt"}},
		{"all terms", "techcorp acquisition", nil, []string{"acquisition.eml"}},
		{"operators are literal", `techcorp AND "ledger`, nil, []string{"audit.txt"}},
		{"no match", "bankruptcy", nil, nil},
		{"type filter", "techcorp", &core.SearchFilters{DocumentTypes: []core.DocumentType{core.DocumentTypePlainText}}, []string{"audit.txt"}},
		{"date filter", "techcorp", &core.SearchFilters{Since: time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)}, []string{"audit.txt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := docs.Search(ctx, tt.pattern, 10, tt.filters)
			require.NoError(t, err)
			var titles []string
			for _, h := range hits {
				titles = append(titles, h.Title)
				assert.Greater(t, h.RelevanceScore, float32(0))
				assert.NotEmpty(t, h.Excerpt)
			}
			assert.ElementsMatch(t, tt.want, titles)
		})
	}
}

func TestSearch_FuzzyFallback(t *testing.T) {
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	strict := NewDocumentRepository(db)
	fuzzy := NewDocumentRepository(db, WithFuzzyFallback(true))
	_, err = strict.AddDocuments(ctx, sampleDocuments()...)
	require.NoError(t, err)

	hits, err := strict.Search(ctx, "acquisition minutes", 10, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = fuzzy.Search(ctx, "acquisition minutes", 10, nil)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestDocumentStats(t *testing.T) {
	docs, _, _ := newTestRepos(t)
	ctx := context.Background()
	_, err := docs.AddDocuments(ctx, sampleDocuments()...)
	require.NoError(t, err)

	n, err := docs.DocumentCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	dist, err := docs.DocumentTypeDistribution(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, dist[core.DocumentTypeEmail])
	assert.Equal(t, 1, dist[core.DocumentTypeMarkdown])
}

func TestHistory(t *testing.T) {
	_, history, _ := newTestRepos(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		user := "alice"
		if i%2 == 1 {
			user = "bob"
		}
		require.NoError(t, history.AppendQuery(ctx, &core.HistoricalQuery{
			QueryID:   fmt.Sprint(i),
			UserID:    user,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	recent, err := history.RecentQueries(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "3", recent[0].QueryID)
	assert.Equal(t, "2", recent[1].QueryID)

	alice, err := history.QueriesByUser(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, alice, 2)
	assert.Equal(t, "2", alice[0].QueryID)

	ranged, err := history.QueriesByDateRange(ctx, base.Add(time.Hour), base.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, ranged, 2)
	assert.Equal(t, "1", ranged[0].QueryID)
	assert.Equal(t, "2", ranged[1].QueryID)

	assert.ErrorIs(t, history.AppendQuery(ctx, nil), storage.ErrInvalidQuery)
}

func TestFTSQueryBuilders(t *testing.T) {
	assert.Equal(t, `"techcorp" "acquisition"`, strictFTSQuery([]string{"techcorp", "acquisition"}))
	assert.Equal(t, `"a""b"`, strictFTSQuery([]string{`a"b`}))
	assert.Equal(t, "techcorp* OR 14* OR 2023*", fuzzyFTSQuery([]string{"techcorp", "3/14/2023"}))
}

func TestBM25Relevance(t *testing.T) {
	assert.InDelta(t, 0.5, bm25Relevance(-1), 0.0001)
	assert.InDelta(t, 0.01, bm25Relevance(0.3), 0.0001)
	assert.Less(t, bm25Relevance(-1), bm25Relevance(-4))
}
