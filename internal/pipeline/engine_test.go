package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pickline/platform/internal/domain"
	"github.com/pickline/platform/internal/feature"
	"github.com/pickline/platform/internal/guard"
	"github.com/pickline/platform/internal/provider"
	"github.com/pickline/platform/internal/repository"
)

var testNow = time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)

func twoBookEvent(start time.Time, lineStamp time.Time) provider.EventPayload {
	return provider.EventPayload{
		Source:          "mock",
		ExternalEventID: "evt-1",
		League:          "NBA",
		StartTime:       start,
		HomeTeam:        "los angeles lakers",
		AwayTeam:        "golden state warriors",
		Odds: []provider.OddsLine{
			{Book: "book_a", Market: domain.MarketMoneyline, Side: domain.SideHome, Price: -110, Timestamp: lineStamp},
			{Book: "book_a", Market: domain.MarketMoneyline, Side: domain.SideAway, Price: +100, Timestamp: lineStamp},
			{Book: "book_b", Market: domain.MarketMoneyline, Side: domain.SideHome, Price: -105, Timestamp: lineStamp},
			{Book: "book_b", Market: domain.MarketMoneyline, Side: domain.SideAway, Price: -105, Timestamp: lineStamp},
		},
	}
}

func newTestEngine(mem *repository.Memory, events []provider.EventPayload, mutate func(*Deps)) *Engine {
	params := DefaultParams()
	params.ConsensusMinBooks = 2
	deps := Deps{
		Tx:       mem,
		Provider: &provider.Deterministic{Events: events},
		Params:   params,
		Seed:     DefaultSeed(),
		Now:      func() time.Time { return testNow },
	}
	if mutate != nil {
		mutate(&deps)
	}
	return NewEngine(deps)
}

type capturePublisher struct {
	picks     []domain.Pick
	summaries []RunSummary
}

func (c *capturePublisher) PublishPickEmitted(_ context.Context, pick domain.Pick) error {
	c.picks = append(c.picks, pick)
	return nil
}

func (c *capturePublisher) PublishRunCompleted(_ context.Context, summary RunSummary) error {
	c.summaries = append(c.summaries, summary)
	return nil
}

func TestRunOnceHappyPath(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemory()
	pub := &capturePublisher{}
	engine := newTestEngine(mem, []provider.EventPayload{
		twoBookEvent(testNow.Add(5*time.Minute), testNow),
	}, func(d *Deps) { d.Publisher = pub })

	summary, err := engine.RunOnce(ctx)
	require.NoError(t, err)

	events := mem.EventsNormalized()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventScheduled, events[0].Status)
	assert.Equal(t, 1.0, events[0].MappingConfidence)

	// book_a de-vigs to 0.51163, book_b to 0.5.
	consensusRows := mem.MarketConsensusRows()
	require.Len(t, consensusRows, 1)
	assert.InDelta(t, 0.50581, consensusRows[0].ConsensusProb, 0.0005)

	picks := mem.Picks()
	require.Len(t, picks, 1)
	pick := picks[0]
	assert.Equal(t, "book_a", pick.Book)
	assert.Equal(t, -110, pick.PickTimePrice)
	assert.Equal(t, DefaultModelVersion, pick.ModelVersion)
	assert.Equal(t, feature.Version, pick.FeatureVersion)
	assert.InDelta(t, DefaultModelProb-consensusRows[0].ConsensusProb, pick.ModelEdge, 1e-9)
	assert.Equal(t, domain.TierB, pick.Tier)
	assert.NotEmpty(t, pick.PickLifecycleID)
	assert.Equal(t, domain.PickSettled, pick.Status)

	closes := mem.ClosingLines()
	require.Len(t, closes, 1)
	assert.Equal(t, pick.ID, closes[0].PickID)
	assert.Equal(t, -110, closes[0].ClosePrice)
	assert.Equal(t, testNow, closes[0].CapturedAt)
	require.NotNil(t, closes[0].CloseMarketConsensusProb)

	settlements, err := mem.ListSettlements(ctx)
	require.NoError(t, err)
	require.Len(t, settlements, 1)
	assert.Equal(t, domain.ResultWin, settlements[0].Result)
	assert.Equal(t, domain.SettlementSimulated, settlements[0].SettlementSource)
	require.NotNil(t, settlements[0].CLVBook)
	assert.InDelta(t, 0, *settlements[0].CLVBook, 1e-9)
	assert.InDelta(t, pick.DecimalOdds-1, settlements[0].PnL, 1e-9)

	run, err := mem.LatestPipelineRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, 1.0, run.CloseLineCoverage)
	assert.Zero(t, run.QuarantineCount)

	assert.Equal(t, 1, summary.PicksEmitted)
	assert.Equal(t, int64(1), summary.TotalPicks)
	assert.Empty(t, summary.NoPicksReason)

	require.Len(t, pub.picks, 1)
	require.Len(t, pub.summaries, 1)
	assert.Equal(t, summary.RunID, pub.summaries[0].RunID)
}

func TestRunOnceUnknownTeamQuarantine(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemory()
	ev := twoBookEvent(testNow.Add(5*time.Minute), testNow)
	ev.HomeTeam = "unknown"
	ev.AwayTeam = "unknown2"
	engine := newTestEngine(mem, []provider.EventPayload{ev}, nil)

	summary, err := engine.RunOnce(ctx)
	require.NoError(t, err)

	events := mem.EventsNormalized()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventQuarantined, events[0].Status)
	require.NotNil(t, events[0].QuarantineReason)
	assert.Equal(t, domain.ReasonNoAliasMatch, *events[0].QuarantineReason)

	assert.Zero(t, summary.PicksEmitted)
	assert.Equal(t, 1, summary.QuarantineCount)
	assert.Equal(t, 1, summary.BlockReasons[domain.BlockLowMappingConfidence])
	assert.Equal(t, domain.BlockLowMappingConfidence, summary.NoPicksReason)

	// Raw payload and snapshots are still persisted for audit.
	assert.Len(t, mem.OddsSnapshots(), 4)
}

func TestRunOnceStaleOdds(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemory()
	engine := newTestEngine(mem, []provider.EventPayload{
		twoBookEvent(testNow.Add(5*time.Minute), testNow.Add(-10*time.Minute)),
	}, nil)

	summary, err := engine.RunOnce(ctx)
	require.NoError(t, err)

	for _, snap := range mem.OddsSnapshots() {
		assert.True(t, snap.IsStale)
	}
	assert.Zero(t, summary.PicksEmitted)
	assert.Equal(t, 1, summary.BlockReasons[domain.BlockNoFreshOdds])
	assert.Equal(t, domain.BlockNoFreshOdds, summary.NoPicksReason)
}

func TestRunOnceInsufficientBooks(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemory()
	ev := twoBookEvent(testNow.Add(5*time.Minute), testNow)
	ev.Odds = ev.Odds[:2] // book_a only
	engine := newTestEngine(mem, []provider.EventPayload{ev}, func(d *Deps) {
		d.Params.ConsensusMinBooks = 3
	})

	summary, err := engine.RunOnce(ctx)
	require.NoError(t, err)

	events := mem.EventsNormalized()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventQuarantined, events[0].Status)
	require.NotNil(t, events[0].QuarantineReason)
	assert.Equal(t, domain.BlockInsufficientBooks, *events[0].QuarantineReason)

	assert.Zero(t, summary.PicksEmitted)
	assert.Equal(t, 1, summary.QuarantineCount)
	assert.Equal(t, 1, summary.BlockReasons[domain.BlockInsufficientBooks])
}

func TestRunOnceEdgeBelowThreshold(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemory()
	require.NoError(t, mem.InsertModelArtifact(ctx, &domain.ModelArtifact{
		ModelVersion: "baseline-test", ArtifactPath: "unused", TrainedAt: testNow,
	}))
	engine := newTestEngine(mem, []provider.EventPayload{
		twoBookEvent(testNow.Add(5*time.Minute), testNow),
	}, func(d *Deps) {
		d.Score = func(feature.Row, string) (float64, error) { return 0.50, nil }
	})

	summary, err := engine.RunOnce(ctx)
	require.NoError(t, err)

	assert.Zero(t, summary.PicksEmitted)
	assert.Equal(t, 1, summary.BlockReasons[domain.BlockEdgeBelowThreshold])
	assert.Equal(t, domain.BlockEdgeBelowThreshold, summary.NoPicksReason)

	// The event itself stays scheduled; only the pick was gated.
	events := mem.EventsNormalized()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventScheduled, events[0].Status)
	assert.Len(t, mem.MarketConsensusRows(), 1)
}

func TestRunOnceClosingWindowExclusion(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemory()
	// Lines quoted now, tip-off in 12 minutes: the 10-minute close window
	// starts at now+2m, so no line qualifies as a closing capture.
	engine := newTestEngine(mem, []provider.EventPayload{
		twoBookEvent(testNow.Add(12*time.Minute), testNow),
	}, nil)

	summary, err := engine.RunOnce(ctx)
	require.NoError(t, err)

	require.Equal(t, 1, summary.PicksEmitted)
	assert.Empty(t, mem.ClosingLines())
	settlements, err := mem.ListSettlements(ctx)
	require.NoError(t, err)
	assert.Empty(t, settlements)

	picks := mem.Picks()
	require.Len(t, picks, 1)
	assert.Equal(t, domain.PickOpen, picks[0].Status)

	run, err := mem.LatestPipelineRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Less(t, run.CloseLineCoverage, 1.0)
}

func TestRunOncePipelineInvariants(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemory()
	unknown := twoBookEvent(testNow.Add(5*time.Minute), testNow)
	unknown.ExternalEventID = "evt-2"
	unknown.HomeTeam = "unknown"
	engine := newTestEngine(mem, []provider.EventPayload{
		twoBookEvent(testNow.Add(5*time.Minute), testNow),
		unknown,
	}, nil)

	summary, err := engine.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, summary.PicksEmitted)
	assert.Equal(t, 2, summary.EventsProcessed)

	events := make(map[int64]domain.EventNormalized)
	for _, ev := range mem.EventsNormalized() {
		events[ev.ID] = ev
	}
	snapshots := make(map[int64]domain.OddsSnapshot)
	for _, snap := range mem.OddsSnapshots() {
		snapshots[snap.ID] = snap
	}

	// Gate exclusivity: a pick implies a live event, a fresh snapshot, and
	// an edge above threshold.
	for _, pick := range mem.Picks() {
		ev, ok := events[pick.EventNormalizedID]
		require.True(t, ok)
		assert.NotEqual(t, domain.EventQuarantined, ev.Status)

		snap, ok := snapshots[pick.OddsSnapshotID]
		require.True(t, ok)
		assert.False(t, snap.IsStale)
		assert.Equal(t, pick.PickTimePrice, snap.Price)

		assert.Greater(t, pick.ModelEdge, 0.03)
		assert.InDelta(t, 1/pick.DecimalOdds, pick.ImpliedProb, 1e-9)
	}

	// No orphan settlements: every settlement's pick has a closing line.
	closedPicks := make(map[int64]bool)
	for _, cl := range mem.ClosingLines() {
		closedPicks[cl.PickID] = true
	}
	settlements, err := mem.ListSettlements(ctx)
	require.NoError(t, err)
	for _, st := range settlements {
		assert.True(t, closedPicks[st.PickID])
	}
}

func TestRunOnceProviderFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemory()
	boom := errors.New("feed down")
	engine := newTestEngine(mem, nil, func(d *Deps) {
		d.Provider = &provider.Deterministic{Err: boom}
	})

	_, err := engine.RunOnce(ctx)
	require.ErrorIs(t, err, boom)

	assert.Empty(t, mem.EventsNormalized())
	run, err := mem.LatestPipelineRun(ctx)
	require.NoError(t, err)
	assert.Nil(t, run)
}

func TestRunOnceCircuitBreakerTrips(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemory()
	breaker := guard.NewCircuitBreaker(2, time.Minute)
	engine := newTestEngine(mem, nil, func(d *Deps) {
		d.Provider = &provider.Deterministic{Err: errors.New("feed down")}
		d.Breaker = breaker
	})

	_, err := engine.RunOnce(ctx)
	require.Error(t, err)
	_, err = engine.RunOnce(ctx)
	require.Error(t, err)

	_, err = engine.RunOnce(ctx)
	require.Error(t, err)
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "RATE_LIMITED", appErr.Code)
}

func TestDominantReason(t *testing.T) {
	assert.Equal(t, domain.NoEligibleEvents, dominantReason(nil))
	assert.Equal(t, domain.BlockNoFreshOdds, dominantReason(map[string]int{
		domain.BlockNoFreshOdds:        2,
		domain.BlockEdgeBelowThreshold: 1,
	}))
}
