package bulk

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/ingestion"
	"github.com/poiesic/quarry/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIngester records batches and fails the first failures calls.
type fakeIngester struct {
	mu       sync.Mutex
	failures int
	calls    int
	batches  [][]string
}

func (f *fakeIngester) Ingest(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("store busy")
	}
	var paths []string
	for _, d := range docs {
		paths = append(paths, d.Path)
	}
	f.batches = append(f.batches, paths)
	return docs, nil
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func corpus(t *testing.T) string {
	return writeFiles(t, map[string]string{
		"a.txt":            "Alpha memo about the merger.",
		"b.md":             "# Beta\n\nBeta notes.",
		"deals/c.eml":      "Subject: Gamma\r\n\r\nGamma body.",
		"deals/d.html":     "<p>Delta page</p>",
		"empty.txt":        "   ",
		"report.pdf":       "%PDF",
		".hidden/e.txt":    "hidden",
		".secret.txt":      "hidden",
		"deals/nested/f.x": "unknown",
	})
}

func testConfig(batch int) *Config {
	return &Config{BatchSize: batch, ReportInterval: 1, MaxRetries: 3, RetryDelay: time.Millisecond}
}

func TestNewLoader(t *testing.T) {
	_, err := NewLoader(nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrIngesterRequired)

	_, err = NewLoader(&fakeIngester{}, &Config{MaxRetries: 0}, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)

	l, err := NewLoader(&fakeIngester{}, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultBatchSize, l.config.BatchSize)
}

func TestFileIterator_Files(t *testing.T) {
	it := NewFileIterator(corpus(t), 0)
	files, skipped, err := it.Files(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"a.txt", "b.md",
		filepath.Join("deals", "c.eml"), filepath.Join("deals", "d.html"),
		"empty.txt",
	}, files)
	assert.Equal(t, 2, skipped)
}

func TestFileIterator_NotDirectory(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.txt": "x"})
	_, _, err := NewFileIterator(filepath.Join(dir, "a.txt"), 10).Files(context.Background())
	assert.ErrorIs(t, err, ErrNotDirectory)

	_, _, err = NewFileIterator(filepath.Join(dir, "missing"), 10).Files(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileIterator_ForEach(t *testing.T) {
	it := NewFileIterator(t.TempDir(), 2)
	var batches [][]string
	err := it.ForEach(context.Background(), []string{"a", "b", "c", "d", "e"}, func(b []string) error {
		batches = append(batches, b)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, batches)

	stop := errors.New("stop")
	calls := 0
	err = it.ForEach(context.Background(), []string{"a", "b", "c"}, func([]string) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestLoader_Run(t *testing.T) {
	ing := &fakeIngester{}
	var progress bytes.Buffer
	l, err := NewLoader(ing, testConfig(2), &progress, nil)
	require.NoError(t, err)

	summary, err := l.Run(context.Background(), corpus(t))
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Files)
	assert.Equal(t, 4, summary.Ingested)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, summary.Skipped)

	assert.Equal(t, [][]string{{"a.txt", "b.md"}, {"deals/c.eml", "deals/d.html"}}, ing.batches)
	assert.Contains(t, progress.String(), "Load complete. Ingested 4 of 5 files")
}

func TestLoader_RetriesFailedBatch(t *testing.T) {
	ing := &fakeIngester{failures: 2}
	l, err := NewLoader(ing, testConfig(10), nil, nil)
	require.NoError(t, err)

	summary, err := l.Run(context.Background(), corpus(t))
	require.NoError(t, err)
	assert.Equal(t, 3, ing.calls)
	assert.Equal(t, 4, summary.Ingested)
}

func TestLoader_BatchGivesUp(t *testing.T) {
	ing := &fakeIngester{failures: 100}
	l, err := NewLoader(ing, testConfig(2), nil, nil)
	require.NoError(t, err)

	summary, err := l.Run(context.Background(), corpus(t))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Ingested)
	assert.Equal(t, 5, summary.Failed)
	assert.Equal(t, 6, ing.calls)
}

func TestLoader_EmptyDirectory(t *testing.T) {
	var progress bytes.Buffer
	l, err := NewLoader(&fakeIngester{}, testConfig(2), &progress, nil)
	require.NoError(t, err)

	summary, err := l.Run(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, summary.Files)
	assert.Contains(t, progress.String(), "No supported files found")
}

func TestLoader_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l, err := NewLoader(&fakeIngester{}, testConfig(2), nil, nil)
	require.NoError(t, err)

	_, err = l.Run(ctx, corpus(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoader_IntoStore(t *testing.T) {
	docs, history, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	defer docs.Close()
	defer history.Close()

	pipeline, err := ingestion.NewPipeline(docs, ingestion.WithPoolSize(1))
	require.NoError(t, err)
	defer pipeline.Release()

	l, err := NewLoader(pipeline, testConfig(3), nil, nil)
	require.NoError(t, err)
	summary, err := l.Run(context.Background(), corpus(t))
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Ingested)
	pipeline.Wait()

	count, err := docs.DocumentCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	hits, err := docs.Search(context.Background(), "merger", 10, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].Title)
}
