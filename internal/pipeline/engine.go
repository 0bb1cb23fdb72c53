// Package pipeline orchestrates the pre-game sweep: fetch provider odds,
// normalize events, build consensus, score the model, and emit picks with
// their closing-line and settlement records, all inside a single
// transaction per run.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/pickline/platform/internal/consensus"
	"github.com/pickline/platform/internal/domain"
	"github.com/pickline/platform/internal/feature"
	"github.com/pickline/platform/internal/guard"
	"github.com/pickline/platform/internal/model"
	"github.com/pickline/platform/internal/normalize"
	"github.com/pickline/platform/internal/oddsmath"
	"github.com/pickline/platform/internal/provider"
	"github.com/pickline/platform/internal/repository"
)

// Fallback scoring used until the first artifact is trained.
const (
	DefaultModelProb    = 0.56
	DefaultModelVersion = "baseline-default"
)

// providerKey keys the circuit breaker for the odds feed.
const providerKey = "odds_provider"

// Params are the tunable thresholds of a sweep.
type Params struct {
	EdgeThreshold              float64
	StaleMaxAge                time.Duration
	ConsensusMinBooks          int
	TrimOutliers               bool
	BookWeights                map[string]float64
	CloseCaptureWindow         time.Duration
	MappingTimeTolerance       time.Duration
	MappingConfidenceThreshold float64
}

// DefaultParams returns the production defaults.
func DefaultParams() Params {
	return Params{
		EdgeThreshold:              0.03,
		StaleMaxAge:                180 * time.Second,
		ConsensusMinBooks:          3,
		TrimOutliers:               true,
		CloseCaptureWindow:         10 * time.Minute,
		MappingTimeTolerance:       15 * time.Minute,
		MappingConfidenceThreshold: 0.9,
	}
}

// ScoreFunc scores one feature row against a serialized artifact.
type ScoreFunc func(row feature.Row, artifactPath string) (float64, error)

// Publisher receives post-commit pipeline events. Publish failures are
// logged, never propagated: the run already committed.
type Publisher interface {
	PublishPickEmitted(ctx context.Context, pick domain.Pick) error
	PublishRunCompleted(ctx context.Context, summary RunSummary) error
}

// RunSummary is what a sweep reports back to its caller.
type RunSummary struct {
	RunID             int64          `json:"run_id"`
	EventsProcessed   int            `json:"events_processed"`
	PicksEmitted      int            `json:"picks_emitted_this_run"`
	TotalPicks        int64          `json:"total_picks"`
	QuarantineCount   int            `json:"quarantine_count"`
	CloseLineCoverage float64        `json:"close_line_coverage"`
	BlockReasons      map[string]int `json:"block_reasons"`
	NoPicksReason     string         `json:"no_picks_reason,omitempty"`
}

// Deps wires an Engine. Tx, Provider, and Params are required; the rest
// default to production behavior when zero.
type Deps struct {
	Tx        repository.TxManager
	Provider  provider.OddsProvider
	Params    Params
	Seed      Seed
	Breaker   *guard.CircuitBreaker
	Publisher Publisher
	Logger    *slog.Logger
	Now       func() time.Time
	Score     ScoreFunc
}

// Engine runs sweeps. One sweep is one transaction: it commits exactly
// once or not at all.
type Engine struct {
	tx        repository.TxManager
	provider  provider.OddsProvider
	params    Params
	seed      Seed
	breaker   *guard.CircuitBreaker
	publisher Publisher
	log       *slog.Logger
	now       func() time.Time
	score     ScoreFunc
	norm      normalize.Normalizer
	builder   consensus.Builder
}

// NewEngine builds an Engine from deps, filling in defaults.
func NewEngine(deps Deps) *Engine {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	if deps.Score == nil {
		deps.Score = model.PredictHomeWinProbability
	}
	return &Engine{
		tx:        deps.Tx,
		provider:  deps.Provider,
		params:    deps.Params,
		seed:      deps.Seed,
		breaker:   deps.Breaker,
		publisher: deps.Publisher,
		log:       deps.Logger,
		now:       deps.Now,
		score:     deps.Score,
		norm: normalize.Normalizer{
			TimeTolerance:       deps.Params.MappingTimeTolerance,
			ConfidenceThreshold: deps.Params.MappingConfidenceThreshold,
		},
		builder: consensus.Builder{
			MinBooks:     deps.Params.ConsensusMinBooks,
			TrimOutliers: deps.Params.TrimOutliers,
			BookWeights:  deps.Params.BookWeights,
		},
	}
}

type runState struct {
	blockReasons   map[string]int
	quarantines    int
	picks          []domain.Pick
	eventLatencies []float64
	freshAges      []float64
	closeLines     int
}

// RunOnce executes one sweep and returns its summary. Data-quality
// failures become telemetry; infrastructure failures abort and roll the
// whole run back.
func (e *Engine) RunOnce(ctx context.Context) (*RunSummary, error) {
	startedAt := e.now()

	if e.breaker != nil {
		if res := e.breaker.Check(ctx, providerKey); !res.Allowed {
			return nil, domain.ErrRateLimited(res.Reason)
		}
	}
	payload, err := e.provider.FetchEventsAndOdds(ctx)
	if err != nil {
		if e.breaker != nil {
			e.breaker.RecordFailure(providerKey)
		}
		return nil, fmt.Errorf("fetch provider payload: %w", err)
	}
	if e.breaker != nil {
		e.breaker.RecordSuccess(providerKey)
	}

	state := &runState{blockReasons: make(map[string]int)}
	var summary RunSummary

	err = e.tx.WithinRun(ctx, func(st repository.Store) error {
		if err := e.seedReference(ctx, st); err != nil {
			return err
		}

		for _, ev := range payload {
			eventStart := e.now()
			if err := e.processEvent(ctx, st, state, ev); err != nil {
				return err
			}
			state.eventLatencies = append(state.eventLatencies, e.now().Sub(eventStart).Seconds())
		}

		run, err := e.writeRunRow(ctx, st, state, startedAt)
		if err != nil {
			return err
		}

		totalPicks, err := st.CountPicks(ctx)
		if err != nil {
			return err
		}
		summary = RunSummary{
			RunID:             run.ID,
			EventsProcessed:   len(payload),
			PicksEmitted:      len(state.picks),
			TotalPicks:        totalPicks,
			QuarantineCount:   state.quarantines,
			CloseLineCoverage: run.CloseLineCoverage,
			BlockReasons:      state.blockReasons,
		}
		if len(state.picks) == 0 {
			summary.NoPicksReason = dominantReason(state.blockReasons)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.InfoContext(ctx, "pipeline run committed",
		"run_id", summary.RunID,
		"events", summary.EventsProcessed,
		"picks", summary.PicksEmitted,
		"quarantines", summary.QuarantineCount,
	)
	e.publish(ctx, state.picks, summary)
	return &summary, nil
}

func (e *Engine) processEvent(ctx context.Context, st repository.Store, state *runState, ev provider.EventPayload) error {
	now := e.now()

	raw := &domain.EventRaw{
		Source:          ev.Source,
		ExternalEventID: ev.ExternalEventID,
		League:          ev.League,
		StartTime:       ev.StartTime,
		HomeTeam:        ev.HomeTeam,
		AwayTeam:        ev.AwayTeam,
	}
	if err := st.InsertEventRaw(ctx, raw); err != nil {
		return fmt.Errorf("persist raw event %s: %w", ev.ExternalEventID, err)
	}

	league, err := st.FindLeagueByName(ctx, ev.League)
	if err != nil {
		return err
	}
	if league == nil {
		league = &domain.League{Name: ev.League}
		if err := st.InsertLeague(ctx, league); err != nil {
			return fmt.Errorf("insert league %s: %w", ev.League, err)
		}
	}

	norm := &domain.EventNormalized{
		EventRawID: raw.ID,
		LeagueID:   league.ID,
		StartTime:  ev.StartTime,
		Status:     domain.EventScheduled,
	}
	if err := e.norm.NormalizeEvent(ctx, st, norm, ev.HomeTeam, ev.AwayTeam, now); err != nil {
		return err
	}
	if err := st.InsertEventNormalized(ctx, norm); err != nil {
		if repository.IsDuplicate(err) {
			// Same event already reconciled this tick; keep the raw row
			// for audit and move on.
			e.log.WarnContext(ctx, "duplicate normalized event skipped", "external_event_id", ev.ExternalEventID)
			return nil
		}
		return err
	}
	if norm.Status == domain.EventQuarantined {
		state.quarantines++
	}

	validLines := make([]consensus.Line, 0, len(ev.Odds))
	for _, line := range ev.Odds {
		isStale := now.Sub(line.Timestamp) > e.params.StaleMaxAge
		snap := &domain.OddsSnapshot{
			EventRawID:        raw.ID,
			EventNormalizedID: &norm.ID,
			Book:              line.Book,
			Market:            line.Market,
			Side:              line.Side,
			Price:             line.Price,
			Timestamp:         line.Timestamp,
			IsStale:           isStale,
		}
		if err := st.InsertOddsSnapshot(ctx, snap); err != nil {
			return err
		}
		if !isStale {
			validLines = append(validLines, consensus.Line{
				SnapshotID: snap.ID,
				Book:       line.Book,
				Market:     line.Market,
				Side:       line.Side,
				Price:      line.Price,
				Timestamp:  line.Timestamp,
			})
			state.freshAges = append(state.freshAges, now.Sub(line.Timestamp).Seconds())
		}
	}

	if norm.MappingConfidence < e.params.MappingConfidenceThreshold {
		state.blockReasons[domain.BlockLowMappingConfidence]++
		return nil
	}
	if len(validLines) == 0 {
		state.blockReasons[domain.BlockNoFreshOdds]++
		return nil
	}

	decision := e.builder.Build(validLines)
	if decision.Result == nil {
		norm.Quarantine(decision.MissingReason)
		if err := st.UpdateEventNormalized(ctx, norm); err != nil {
			return err
		}
		state.quarantines++
		state.blockReasons[decision.MissingReason]++
		return nil
	}

	mc := &domain.MarketConsensus{
		EventNormalizedID: norm.ID,
		Market:            domain.MarketMoneyline,
		ConsensusProb:     decision.Result.HomeProb,
		ConsensusPrice:    1 / decision.Result.HomeProb,
		Timestamp:         now,
	}
	if err := st.InsertMarketConsensus(ctx, mc); err != nil {
		return err
	}

	row := feature.BuildPregame(norm.ID, now)
	blob, err := row.MarshalBlob()
	if err != nil {
		return err
	}
	fs := &domain.FeatureSnapshot{
		EventNormalizedID: norm.ID,
		FeatureVersion:    feature.Version,
		Features:          blob,
		ComputedAt:        now,
	}
	if err := st.InsertFeatureSnapshot(ctx, fs); err != nil {
		return err
	}

	modelProb := DefaultModelProb
	modelVersion := DefaultModelVersion
	artifact, err := st.LatestModelArtifact(ctx)
	if err != nil {
		return err
	}
	if artifact != nil {
		modelProb, err = e.score(row, artifact.ArtifactPath)
		if err != nil {
			return fmt.Errorf("score event %d with %s: %w", norm.ID, artifact.ModelVersion, err)
		}
		modelVersion = artifact.ModelVersion
	}

	edge := modelProb - decision.Result.HomeProb
	if edge <= e.params.EdgeThreshold {
		state.blockReasons[domain.BlockEdgeBelowThreshold]++
		return nil
	}

	var homeLine *consensus.Line
	for i := range validLines {
		if validLines[i].Side == domain.SideHome {
			homeLine = &validLines[i]
			break
		}
	}
	if homeLine == nil {
		state.blockReasons[domain.BlockNoHomeSideLine]++
		return nil
	}

	decimalOdds := oddsmath.AmericanToDecimal(homeLine.Price)
	impliedProb := oddsmath.DecimalToImpliedProb(decimalOdds)
	evPercent := oddsmath.EVPercent(modelProb, decimalOdds)

	pick := &domain.Pick{
		PickLifecycleID:     uuid.NewString(),
		OddsSnapshotID:      homeLine.SnapshotID,
		EventNormalizedID:   norm.ID,
		FeatureSnapshotID:   fs.ID,
		ModelVersion:        modelVersion,
		FeatureVersion:      feature.Version,
		Market:              domain.MarketMoneyline,
		Side:                domain.SideHome,
		Book:                homeLine.Book,
		PickTimePrice:       homeLine.Price,
		DecimalOdds:         decimalOdds,
		ImpliedProb:         impliedProb,
		MarketConsensusProb: decision.Result.HomeProb,
		ModelProb:           modelProb,
		ModelEdge:           edge,
		EVPercent:           evPercent,
		KellyFraction:       oddsmath.QuarterKelly(modelProb, decimalOdds),
		Tier:                domain.ConfidenceTier(edge),
		CreatedAt:           now,
		Status:              domain.PickOpen,
	}
	if err := st.InsertPick(ctx, pick); err != nil {
		return err
	}
	state.picks = append(state.picks, *pick)

	return e.closeAndSettle(ctx, st, state, pick, ev.StartTime, validLines, now)
}

// closeAndSettle captures the closing line for a pick and writes the
// simulated settlement. No closing line inside the capture window means
// neither row is written; the coverage metric reflects the gap.
func (e *Engine) closeAndSettle(ctx context.Context, st repository.Store, state *runState, pick *domain.Pick, startTime time.Time, validLines []consensus.Line, now time.Time) error {
	windowStart := startTime.Add(-e.params.CloseCaptureWindow)

	var closing *consensus.Line
	var windowLines []consensus.Line
	for i := range validLines {
		line := validLines[i]
		if line.Timestamp.Before(windowStart) || line.Timestamp.After(startTime) {
			continue
		}
		windowLines = append(windowLines, line)
		if line.Book != pick.Book || line.Side != pick.Side {
			continue
		}
		if closing == nil || line.Timestamp.After(closing.Timestamp) {
			closing = &validLines[i]
		}
	}
	if closing == nil {
		return nil
	}

	var closeMarket *float64
	if d := e.builder.Build(windowLines); d.Result != nil {
		p := d.Result.HomeProb
		closeMarket = &p
	}

	closeImplied := oddsmath.AmericanToImpliedProb(closing.Price)
	cl := &domain.ClosingLine{
		PickID:                   pick.ID,
		ClosePrice:               closing.Price,
		CloseImpliedProb:         closeImplied,
		CapturedAt:               closing.Timestamp,
		MarketCloseConsensus:     closeMarket,
		ClosingLineSnapshotID:    &closing.SnapshotID,
		CloseBookPrice:           &closing.Price,
		CloseBookImpliedProb:     &closeImplied,
		CloseMarketConsensusProb: closeMarket,
	}
	if err := st.InsertClosingLine(ctx, cl); err != nil {
		return err
	}
	state.closeLines++

	clvBook := closeImplied - pick.ImpliedProb
	var clvMarket *float64
	if closeMarket != nil {
		v := *closeMarket - pick.ImpliedProb
		clvMarket = &v
	}
	settlement := &domain.Settlement{
		PickID:           pick.ID,
		Result:           domain.ResultWin,
		SettledAt:        now,
		PnL:              pick.DecimalOdds - 1,
		ROI:              pick.EVPercent,
		CLVMarket:        clvMarket,
		CLVBook:          &clvBook,
		SettlementSource: domain.SettlementSimulated,
	}
	if err := st.InsertSettlement(ctx, settlement); err != nil {
		return err
	}
	return st.UpdatePickStatus(ctx, pick.ID, domain.PickSettled)
}

func (e *Engine) writeRunRow(ctx context.Context, st repository.Store, state *runState, startedAt time.Time) (*domain.PipelineRun, error) {
	finishedAt := e.now()

	totalPicks, err := st.CountPicks(ctx)
	if err != nil {
		return nil, err
	}
	totalCloseLines, err := st.CountClosingLines(ctx)
	if err != nil {
		return nil, err
	}
	totalNormalized, err := st.CountEventsNormalized(ctx)
	if err != nil {
		return nil, err
	}

	coverage := 0.0
	if totalPicks > 0 {
		coverage = float64(totalCloseLines) / float64(totalPicks)
	}
	anomalyRate := float64(state.quarantines) / math.Max(float64(totalNormalized), 1)

	metadata, err := json.Marshal(domain.RunMetadata{
		P50Latency:   percentile(state.eventLatencies, 0.50),
		P95Latency:   percentile(state.eventLatencies, 0.95),
		BlockReasons: state.blockReasons,
	})
	if err != nil {
		return nil, err
	}

	run := &domain.PipelineRun{
		StartedAt:          startedAt,
		FinishedAt:         finishedAt,
		LatencySeconds:     finishedAt.Sub(startedAt).Seconds(),
		FreshnessSeconds:   mean(state.freshAges),
		CloseLineCoverage:  coverage,
		MappingAnomalyRate: anomalyRate,
		QuarantineCount:    state.quarantines,
		Metadata:           metadata,
	}
	if err := st.InsertPipelineRun(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

func (e *Engine) publish(ctx context.Context, picks []domain.Pick, summary RunSummary) {
	if e.publisher == nil {
		return
	}
	for _, pick := range picks {
		if err := e.publisher.PublishPickEmitted(ctx, pick); err != nil {
			e.log.ErrorContext(ctx, "publish pick.emitted failed", "pick_id", pick.ID, "error", err)
		}
	}
	if err := e.publisher.PublishRunCompleted(ctx, summary); err != nil {
		e.log.ErrorContext(ctx, "publish run.completed failed", "run_id", summary.RunID, "error", err)
	}
}

// dominantReason picks the most frequent block reason, lexicographically
// smallest on ties, or NO_ELIGIBLE_EVENTS when nothing was blocked.
func dominantReason(blockReasons map[string]int) string {
	best, bestCount := domain.NoEligibleEvents, 0
	reasons := make([]string, 0, len(blockReasons))
	for r := range blockReasons {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		if blockReasons[r] > bestCount {
			best, bestCount = r, blockReasons[r]
		}
	}
	return best
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// percentile is nearest-rank over an unsorted sample.
func percentile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	idx := int(math.Ceil(q*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}
