package bulk

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/quarry/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithBackoff(t *testing.T) {
	persistent := errors.New("persistent error")
	tests := []struct {
		name         string
		failures     int
		err          error
		maxAttempts  int
		wantAttempts int
		wantErr      error
	}{
		{"first try", 0, nil, 3, 1, nil},
		{"eventual success", 2, errors.New("temporary error"), 5, 3, nil},
		{"all attempts fail", 10, persistent, 3, 3, persistent},
		{"invalid document not retried", 10, fmt.Errorf("%w: empty", core.ErrInvalidDocument), 5, 1, core.ErrInvalidDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := RetryWithBackoff(context.Background(), nil, func() error {
				attempts++
				if attempts <= tt.failures {
					return tt.err
				}
				return nil
			}, tt.maxAttempts, time.Millisecond)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantAttempts, attempts)
		})
	}
}

func TestRetryWithBackoff_InvalidMaxAttempts(t *testing.T) {
	err := RetryWithBackoff(context.Background(), nil, func() error { return nil }, 0, time.Millisecond)
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}

func TestRetryWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := RetryWithBackoff(ctx, nil, func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("temporary error")
	}, 5, time.Millisecond)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, attempts)
}

func TestRetryWithBackoff_Backoff(t *testing.T) {
	start := time.Now()
	_ = RetryWithBackoff(context.Background(), nil, func() error {
		return errors.New("temporary error")
	}, 3, 20*time.Millisecond)

	// 20ms + 40ms between the three attempts
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}
