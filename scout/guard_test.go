package scout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGuardStore_RequiresStore(t *testing.T) {
	_, err := NewGuardStore(nil)
	assert.ErrorIs(t, err, ErrStoreRequired)
}

func TestGuardStore_PassesThrough(t *testing.T) {
	g, err := NewGuardStore(dealStore())
	require.NoError(t, err)

	hits, err := g.Search(context.Background(), "techcorp", 10, nil)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	count, err := g.DocumentCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	dist, err := g.DocumentTypeDistribution(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, dist)
	assert.Equal(t, "closed", g.State())
}

func TestGuardStore_OpensAfterConsecutiveFailures(t *testing.T) {
	store := &fakeStore{err: errStoreDown}
	g, err := NewGuardStore(store, WithBreaker(2, time.Minute))
	require.NoError(t, err)

	for range 2 {
		_, err := g.Search(context.Background(), "x", 10, nil)
		assert.ErrorIs(t, err, errStoreDown)
	}
	_, err = g.Search(context.Background(), "x", 10, nil)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Equal(t, "open", g.State())
	assert.Equal(t, int64(2), store.calls.Load())
}

func TestGuardStore_CancellationDoesNotTrip(t *testing.T) {
	store := &fakeStore{err: context.Canceled}
	g, err := NewGuardStore(store, WithBreaker(1, time.Minute))
	require.NoError(t, err)

	for range 3 {
		_, err := g.Search(context.Background(), "x", 10, nil)
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, "closed", g.State())
	assert.Equal(t, int64(3), store.calls.Load())
}

func TestGuardStore_RateLimit(t *testing.T) {
	g, err := NewGuardStore(dealStore(), WithRateLimit(1, 1))
	require.NoError(t, err)

	_, err = g.Search(context.Background(), "techcorp", 10, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.Search(ctx, "techcorp", 10, nil)
	assert.Error(t, err)
}
