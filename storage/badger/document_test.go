package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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
			Content:   "Board minutes: the acquisition was approved after negotiation.",
			CreatedAt: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		},
	}
}

func newTestRepos(t *testing.T) (storage.DocumentRepository, storage.HistoryRepository) {
	t.Helper()
	docs, history, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		history.Close()
		docs.Close()
		backend.Close()
	})
	return docs, history
}

func TestAddAndGetDocument(t *testing.T) {
	docs, _ := newTestRepos(t)
	ctx := context.Background()

	added, err := docs.AddDocuments(ctx, sampleDocuments()...)
	require.NoError(t, err)
	require.Len(t, added, 3)

	for _, doc := range added {
		assert.NotZero(t, doc.ID)
		assert.Equal(t, core.IDFromContent(doc.Content), doc.ID)
		assert.False(t, doc.InsertedAt.IsZero())
	}

	got, err := docs.GetDocument(ctx, added[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "audit.txt", got.Title)

	_, err = docs.GetDocument(ctx, 12345)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAddDocuments_Invalid(t *testing.T) {
	docs, _ := newTestRepos(t)
	_, err := docs.AddDocuments(context.Background(), &core.Document{Type: core.DocumentTypeEmail, Content: "  "})
	assert.ErrorIs(t, err, core.ErrInvalidDocument)
}

func TestAddDocuments_ReAddReplacesIndex(t *testing.T) {
	docs, _ := newTestRepos(t)
	ctx := context.Background()

	doc := &core.Document{ID: 9, Type: core.DocumentTypePlainText, Content: "alpha merger"}
	_, err := docs.AddDocuments(ctx, doc)
	require.NoError(t, err)

	replacement := &core.Document{ID: 9, Type: core.DocumentTypeEmail, Content: "beta settlement"}
	_, err = docs.AddDocuments(ctx, replacement)
	require.NoError(t, err)

	hits, err := docs.Search(ctx, "merger", 10, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = docs.Search(ctx, "settlement", 10, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	dist, err := docs.DocumentTypeDistribution(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[core.DocumentType]int{core.DocumentTypeEmail: 1}, dist)
}

func TestUpdateDocuments(t *testing.T) {
	docs, _ := newTestRepos(t)
	ctx := context.Background()

	added, err := docs.AddDocuments(ctx, sampleDocuments()...)
	require.NoError(t, err)

	doc := added[1]
	doc.Content = "The ledger was reconciled without issue."
	_, err = docs.UpdateDocuments(ctx, doc)
	require.NoError(t, err)

	hits, err := docs.Search(ctx, "discrepancy", 10, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = docs.Search(ctx, "reconciled", 10, nil)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	_, err = docs.UpdateDocuments(ctx, &core.Document{ID: 404, Type: core.DocumentTypeEmail, Content: "x"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteDocuments(t *testing.T) {
	docs, _ := newTestRepos(t)
	ctx := context.Background()

	added, err := docs.AddDocuments(ctx, sampleDocuments()...)
	require.NoError(t, err)

	require.NoError(t, docs.DeleteDocuments(ctx, added[0].ID))

	count, err := docs.DocumentCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	hits, err := docs.Search(ctx, "negotiating", 10, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)

	assert.ErrorIs(t, docs.DeleteDocuments(ctx, added[0].ID), storage.ErrNotFound)
}

func TestGetDocuments_SkipsMissing(t *testing.T) {
	docs, _ := newTestRepos(t)
	ctx := context.Background()

	added, err := docs.AddDocuments(ctx, sampleDocuments()...)
	require.NoError(t, err)

	got, err := docs.GetDocuments(ctx, added[0].ID, 999, added[2].ID)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSearch(t *testing.T) {
	docs, _ := newTestRepos(t)
	ctx := context.Background()
	_, err := docs.AddDocuments(ctx, sampleDocuments()...)
	require.NoError(t, err)

	tests := []struct {
		name    string
		pattern string
		filters *core.SearchFilters
		want    []string
	}{
		{"single term", "techcorp", nil, []string{"acquisition.eml", "audit.txt"}},
		{"case insensitive", "TECHCORP", nil, []string{"acquisition.eml", "audit.txt"}},
		{"phrase", "techcorp acquisition", nil, []string{"acquisition.eml"}},
		{"all words required", "acquisition board", nil, []string{"acquisition.eml", "minutes.md"}},
		{"no match", "bankruptcy", nil, nil},
		{"type filter", "acquisition", &core.SearchFilters{DocumentTypes: []core.DocumentType{core.DocumentTypeMarkdown}}, []string{"minutes.md"}},
		{"since filter", "techcorp", &core.SearchFilters{Since: time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)}, []string{"audit.txt"}},
		{"until filter", "acquisition", &core.SearchFilters{Until: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)}, []string{"acquisition.eml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := docs.Search(ctx, tt.pattern, 10, tt.filters)
			require.NoError(t, err)
			var titles []string
			for _, h := range hits {
				titles = append(titles, h.Title)
				assert.NotEmpty(t, h.Excerpt)
				assert.Greater(t, h.RelevanceScore, float32(0))
			}
			assert.ElementsMatch(t, tt.want, titles)
		})
	}
}

func TestSearch_RankingAndLimit(t *testing.T) {
	docs, _ := newTestRepos(t)
	ctx := context.Background()
	_, err := docs.AddDocuments(ctx, sampleDocuments()...)
	require.NoError(t, err)

	// acquisition.eml mentions TechCorp twice
	hits, err := docs.Search(ctx, "techcorp", 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "acquisition.eml", hits[0].Title)
	assert.Contains(t, hits[0].Excerpt, "TechCorp")
}

func TestSearch_CancelledContext(t *testing.T) {
	docs, _ := newTestRepos(t)
	_, err := docs.AddDocuments(context.Background(), sampleDocuments()...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = docs.Search(ctx, "techcorp", 10, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDocumentStats(t *testing.T) {
	docs, _ := newTestRepos(t)
	ctx := context.Background()

	count, err := docs.DocumentCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = docs.AddDocuments(ctx, sampleDocuments()...)
	require.NoError(t, err)

	count, err = docs.DocumentCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	dist, err := docs.DocumentTypeDistribution(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[core.DocumentType]int{
		core.DocumentTypeEmail:     1,
		core.DocumentTypePlainText: 1,
		core.DocumentTypeMarkdown:  1,
	}, dist)
}
