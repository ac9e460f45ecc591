package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/quarry/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockIntentClassifier_Default(t *testing.T) {
	m := NewMockIntentClassifier()
	got, err := m.ClassifyQuery(context.Background(), "Who signed the contract?")
	require.NoError(t, err)
	assert.Equal(t, "FactFinding", got.Intent)
	assert.Equal(t, []string{"signed", "contract"}, got.Keywords)
	assert.Equal(t, 1, m.CallCount())

	m.Reset()
	assert.Zero(t, m.CallCount())
}

func TestMockIntentClassifier_Custom(t *testing.T) {
	m := NewMockIntentClassifier().WithClassifyQueryFunc(func(ctx context.Context, q string) (*ai.QueryAnalysis, error) {
		return nil, errors.New("boom")
	})
	_, err := m.ClassifyQuery(context.Background(), "x")
	assert.Error(t, err)
}

func TestMockQuerySuggester(t *testing.T) {
	m := NewMockQuerySuggester()
	got, err := m.SuggestQueries(context.Background(), "merger", []string{"TechCorp", "Globex", "Initech"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"merger TechCorp", "merger Globex"}, got)
	assert.Equal(t, 1, m.CallCount())
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider()
	mp := p.(*MockProvider)
	assert.Same(t, mp.GetMockClassifier(), p.IntentClassifier())
	assert.Same(t, mp.GetMockSuggester(), p.QuerySuggester())
	assert.NoError(t, p.Close())
}
