package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/quarry/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan(t *testing.T) {
	tests := []struct {
		name        string
		query       core.Query
		docs        int
		wantKinds   []core.ScoutKind
		wantCluster int
		wantAllow   int
	}{
		{
			name:  "focused urgent uses the fixed lineup",
			query: core.Query{Text: "who is negotiating the TechCorp acquisition", Scope: core.ScopeFocused, Priority: core.PriorityUrgent},
			docs:  500,
			wantKinds: []core.ScoutKind{
				core.ScoutKeywordHunter, core.ScoutEntityExtractor, core.ScoutRelationshipMapper,
			},
			wantCluster: 1,
			wantAllow:   0,
		},
		{
			name:        "exhaustive background deploys every kind",
			query:       core.Query{Text: "everything", Scope: core.ScopeExhaustive, Priority: core.PriorityBackground},
			docs:        1250,
			wantKinds:   core.ScoutKinds,
			wantCluster: 12,
			wantAllow:   2,
		},
		{
			name:        "exhaustive background on empty corpus",
			query:       core.Query{Text: "everything", Scope: core.ScopeExhaustive, Priority: core.PriorityBackground},
			docs:        0,
			wantKinds:   core.ScoutKinds,
			wantCluster: 1,
			wantAllow:   2,
		},
		{
			name:  "adaptive pads with keyword hunters",
			query: core.Query{Text: "quarterly revenue", Scope: core.ScopeFocused, Priority: core.PriorityNormal},
			docs:  120,
			wantKinds: []core.ScoutKind{
				core.ScoutKeywordHunter, core.ScoutKeywordHunter, core.ScoutKeywordHunter,
				core.ScoutKeywordHunter, core.ScoutKeywordHunter,
			},
			wantCluster: 2,
			wantAllow:   1,
		},
		{
			name:  "adaptive adds triggered kinds in order",
			query: core.Query{Text: "when did legal flag unusual payments from people at Globex", Scope: core.ScopeBroad, Priority: core.PriorityHigh},
			docs:  5000,
			wantKinds: []core.ScoutKind{
				core.ScoutKeywordHunter, core.ScoutEntityExtractor, core.ScoutTimelineBuilder,
				core.ScoutComplianceChecker, core.ScoutAnomalySpotter,
			},
			wantCluster: 10,
			wantAllow:   1,
		},
		{
			name:  "adaptive stops at five",
			query: core.Query{Text: "who was connected when the legal review found unusual items", Scope: core.ScopeNarrow, Priority: core.PriorityNormal},
			docs:  10,
			wantKinds: []core.ScoutKind{
				core.ScoutKeywordHunter, core.ScoutEntityExtractor, core.ScoutTimelineBuilder,
				core.ScoutRelationshipMapper, core.ScoutComplianceChecker,
			},
			wantCluster: 1,
			wantAllow:   1,
		},
		{
			name:  "exhaustive but urgent is adaptive",
			query: core.Query{Text: "audit", Scope: core.ScopeExhaustive, Priority: core.PriorityUrgent},
			docs:  75,
			wantKinds: []core.ScoutKind{
				core.ScoutKeywordHunter, core.ScoutKeywordHunter, core.ScoutKeywordHunter,
				core.ScoutKeywordHunter, core.ScoutKeywordHunter,
			},
			wantCluster: 1,
			wantAllow:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Plan(&tt.query, core.CorpusStats{DocumentCount: tt.docs})
			assert.Equal(t, tt.wantKinds, plan.Kinds)
			assert.Equal(t, len(plan.Kinds), plan.WorkerCount)
			assert.Equal(t, tt.wantCluster, plan.TargetClusters)
			assert.Equal(t, tt.wantAllow, plan.DeadEndAllowance)
			assert.True(t, plan.Parallel)
		})
	}
}

func TestPlan_DoesNotAliasKindTables(t *testing.T) {
	q := &core.Query{Scope: core.ScopeExhaustive, Priority: core.PriorityBackground}
	plan := Plan(q, core.CorpusStats{})
	plan.Kinds[0] = core.ScoutSentimentAnalyzer
	assert.Equal(t, core.ScoutKeywordHunter, core.ScoutKinds[0])
}

type statsStore struct {
	count    int
	countErr error
	distErr  error
}

func (s *statsStore) Search(ctx context.Context, pattern string, limit int, filters *core.SearchFilters) ([]core.Hit, error) {
	return nil, nil
}

func (s *statsStore) DocumentCount(ctx context.Context) (int, error) {
	return s.count, s.countErr
}

func (s *statsStore) DocumentTypeDistribution(ctx context.Context) (map[core.DocumentType]int, error) {
	if s.distErr != nil {
		return nil, s.distErr
	}
	return map[core.DocumentType]int{core.DocumentTypeEmail: s.count}, nil
}

func TestPlanner_Stats(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrStoreRequired)

	p, err := New(&statsStore{count: 300})
	require.NoError(t, err)
	stats := p.Stats(context.Background())
	assert.Equal(t, 300, stats.DocumentCount)
	assert.Equal(t, 300, stats.TypeDistribution[core.DocumentTypeEmail])

	p, err = New(&statsStore{count: 300, distErr: errors.New("boom")})
	require.NoError(t, err)
	stats = p.Stats(context.Background())
	assert.Equal(t, 300, stats.DocumentCount)
	assert.Nil(t, stats.TypeDistribution)
}

func TestPlanner_DegradesOnStoreFailure(t *testing.T) {
	p, err := New(&statsStore{count: 9000, countErr: errors.New("store offline")})
	require.NoError(t, err)

	plan := p.Plan(context.Background(), &core.Query{Scope: core.ScopeExhaustive, Priority: core.PriorityBackground})
	assert.Equal(t, 1, plan.TargetClusters)
	assert.Len(t, plan.Kinds, 8)
}

// hangingStore blocks every statistics call until ctx is done.
type hangingStore struct {
	statsStore
}

func (s *hangingStore) DocumentCount(ctx context.Context) (int, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func TestNew_InvalidStatsTimeout(t *testing.T) {
	_, err := New(&statsStore{}, WithStatsTimeout(-time.Second))
	assert.ErrorIs(t, err, ErrInvalidStatsTimeout)
}

func TestPlanner_StatsTimeout(t *testing.T) {
	p, err := New(&hangingStore{}, WithStatsTimeout(20*time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	plan := p.Plan(context.Background(), &core.Query{Scope: core.ScopeExhaustive, Priority: core.PriorityBackground})
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, plan.TargetClusters)
	assert.Len(t, plan.Kinds, 8)
}

func TestPlanner_StatsHonourCallerDeadline(t *testing.T) {
	p, err := New(&hangingStore{}, WithStatsTimeout(0))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	stats := p.Stats(ctx)
	assert.Less(t, time.Since(start), time.Second)
	assert.Zero(t, stats.DocumentCount)
}
