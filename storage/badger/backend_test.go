package badger

import (
	"context"
	"testing"

	"github.com/poiesic/quarry/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := t.TempDir()
	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_CreatesDirectory(t *testing.T) {
	path := t.TempDir() + "/nested/db"
	backend, err := OpenBackend(path, false)
	require.NoError(t, err)
	defer backend.Close()

	assert.DirExists(t, path)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)

	assert.False(t, backend.IsClosed())

	err = backend.Close()
	require.NoError(t, err)

	assert.True(t, backend.IsClosed())
}

func TestWithTx_AfterClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	docs, err := NewDocumentRepository(backend)
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	_, err = docs.GetDocument(context.Background(), 1)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	_, err = docs.Search(context.Background(), "merger", 10, nil)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestScanPrefix_Empty(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	calls := 0
	err = backend.scanPrefix(context.Background(), documentScanPrefix(), true, func(_, _ []byte) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestScanPrefix_CancelledContext(t *testing.T) {
	docs, history, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { history.Close(); docs.Close(); backend.Close() }()

	_, err = docs.AddDocuments(context.Background(), sampleDocuments()...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = backend.scanPrefix(ctx, documentScanPrefix(), false, func(_, _ []byte) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTypeKeyRoundTrip(t *testing.T) {
	key := makeTypeKey("Email", 77)
	assert.Equal(t, "Email", string(parseTypeKey(key)))
}
