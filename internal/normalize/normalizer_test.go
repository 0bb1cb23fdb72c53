package normalize

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pickline/platform/internal/domain"
	"github.com/pickline/platform/internal/repository"
)

func seededStore(t *testing.T) *repository.Memory {
	t.Helper()
	ctx := context.Background()
	mem := repository.NewMemory()

	lakers := &domain.Team{NormalizedName: "los angeles lakers"}
	warriors := &domain.Team{NormalizedName: "golden state warriors"}
	require.NoError(t, mem.InsertTeam(ctx, lakers))
	require.NoError(t, mem.InsertTeam(ctx, warriors))
	require.NoError(t, mem.InsertTeamAlias(ctx, &domain.TeamAlias{
		Alias: "la lakers", TeamID: lakers.ID, Source: "seed", Confidence: 0.98,
	}))
	require.NoError(t, mem.InsertTeamAlias(ctx, &domain.TeamAlias{
		Alias: "gs warriors", TeamID: warriors.ID, Source: "seed", Confidence: 0.98,
	}))
	return mem
}

func newNormalizer() Normalizer {
	return Normalizer{
		TimeTolerance:       15 * time.Minute,
		ConfidenceThreshold: 0.9,
	}
}

func TestResolveTeam(t *testing.T) {
	ctx := context.Background()
	mem := seededStore(t)
	n := newNormalizer()

	t.Run("exact alias match", func(t *testing.T) {
		res, err := n.ResolveTeam(ctx, mem, "LA Lakers")
		require.NoError(t, err)
		require.NotNil(t, res.TeamID)
		assert.Equal(t, 1.0, res.Confidence)
		assert.True(t, res.ExactAliasMatch)
	})

	t.Run("normalized name match", func(t *testing.T) {
		res, err := n.ResolveTeam(ctx, mem, "Golden State Warriors")
		require.NoError(t, err)
		require.NotNil(t, res.TeamID)
		assert.Equal(t, 1.0, res.Confidence)
		assert.False(t, res.ExactAliasMatch)
	})

	t.Run("no match", func(t *testing.T) {
		res, err := n.ResolveTeam(ctx, mem, "unknown team")
		require.NoError(t, err)
		assert.Nil(t, res.TeamID)
		assert.Zero(t, res.Confidence)
	})

	t.Run("multiple candidates", func(t *testing.T) {
		mem.AddAlias(domain.TeamAlias{Alias: "la lakers", TeamID: 2, Source: "scrape", Confidence: 0.5})
		res, err := n.ResolveTeam(ctx, mem, "la lakers")
		require.NoError(t, err)
		assert.Nil(t, res.TeamID)
		assert.True(t, res.MultipleCandidates)
	})
}

func TestNormalizeEvent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	n := newNormalizer()

	tests := []struct {
		name           string
		home, away     string
		startOffset    time.Duration
		wantStatus     domain.EventStatus
		wantConfidence float64
		wantReason     string
	}{
		{
			name: "clean mapping", home: "la lakers", away: "gs warriors",
			startOffset: 5 * time.Minute, wantStatus: domain.EventScheduled, wantConfidence: 1.0,
		},
		{
			name: "normalized names in tolerance", home: "Los Angeles Lakers", away: "Golden State Warriors",
			startOffset: -10 * time.Minute, wantStatus: domain.EventScheduled, wantConfidence: 1.0,
		},
		{
			name: "unknown teams quarantined", home: "unknown", away: "unknown2",
			startOffset: 5 * time.Minute, wantStatus: domain.EventQuarantined,
			wantConfidence: 0, wantReason: domain.ReasonNoAliasMatch,
		},
		{
			name: "time drift degrades confidence", home: "la lakers", away: "gs warriors",
			startOffset: 45 * time.Minute, wantStatus: domain.EventQuarantined,
			wantConfidence: 0.8, wantReason: domain.ReasonTimeMismatch,
		},
		{
			name: "time far off zeroes confidence", home: "la lakers", away: "gs warriors",
			startOffset: 3 * time.Hour, wantStatus: domain.EventQuarantined,
			wantConfidence: 0, wantReason: domain.ReasonTimeMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := seededStore(t)
			ev := &domain.EventNormalized{
				EventRawID: 1, LeagueID: 1,
				StartTime: now.Add(tt.startOffset),
				Status:    domain.EventScheduled,
			}
			require.NoError(t, mem.InsertEventNormalized(ctx, ev))

			require.NoError(t, n.NormalizeEvent(ctx, mem, ev, tt.home, tt.away, now))

			assert.Equal(t, tt.wantStatus, ev.Status)
			assert.Equal(t, tt.wantConfidence, ev.MappingConfidence)
			if tt.wantReason == "" {
				assert.Nil(t, ev.QuarantineReason)
			} else {
				require.NotNil(t, ev.QuarantineReason)
				assert.Equal(t, tt.wantReason, *ev.QuarantineReason)
			}
		})
	}

	t.Run("ambiguous alias quarantined", func(t *testing.T) {
		mem := seededStore(t)
		mem.AddAlias(domain.TeamAlias{Alias: "gs warriors", TeamID: 1, Source: "scrape", Confidence: 0.5})

		ev := &domain.EventNormalized{
			EventRawID: 1, LeagueID: 1,
			StartTime: now.Add(5 * time.Minute),
			Status:    domain.EventScheduled,
		}
		require.NoError(t, mem.InsertEventNormalized(ctx, ev))
		require.NoError(t, n.NormalizeEvent(ctx, mem, ev, "la lakers", "gs warriors", now))

		assert.Equal(t, domain.EventQuarantined, ev.Status)
		require.NotNil(t, ev.QuarantineReason)
		assert.Equal(t, domain.ReasonMultipleCandidates, *ev.QuarantineReason)
		assert.Zero(t, ev.MappingConfidence)
	})
}
