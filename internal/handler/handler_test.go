package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pickline/platform/internal/domain"
	"github.com/pickline/platform/internal/guard"
	"github.com/pickline/platform/internal/pipeline"
	"github.com/pickline/platform/internal/provider"
	"github.com/pickline/platform/internal/repository"
)

// --- RespondJSON / RespondError ---

func TestRespondJSON(t *testing.T) {
	t.Run("200 with body", func(t *testing.T) {
		w := httptest.NewRecorder()
		RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		assert.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("204 with nil body", func(t *testing.T) {
		w := httptest.NewRecorder()
		RespondJSON(w, http.StatusNoContent, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

func TestRespondError(t *testing.T) {
	t.Run("AppError maps to its status", func(t *testing.T) {
		w := httptest.NewRecorder()
		RespondError(w, domain.ErrNotFound("pick", "7"))
		assert.Equal(t, http.StatusNotFound, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "NOT_FOUND", body["code"])
	})

	t.Run("unknown error maps to 500", func(t *testing.T) {
		w := httptest.NewRecorder()
		RespondError(w, assert.AnError)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

// --- Health ---

func TestHealthHandler(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemory()
	h := HealthHandler(mem)

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Nil(t, body["latest_run_id"])

	require.NoError(t, mem.InsertPipelineRun(ctx, &domain.PipelineRun{StartedAt: time.Now()}))
	w = httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.NotNil(t, body["latest_run_id"])
}

// --- Picks ---

func TestPicksHandler(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemory()
	now := time.Now().UTC()
	require.NoError(t, mem.InsertPick(ctx, &domain.Pick{
		PickLifecycleID: "today", CreatedAt: now, Tier: domain.TierB,
	}))
	require.NoError(t, mem.InsertPick(ctx, &domain.Pick{
		PickLifecycleID: "yesterday", CreatedAt: now.Add(-24 * time.Hour),
	}))

	h := NewPicksHandler(mem)
	r := chi.NewRouter()
	r.Get("/picks/today", h.GetToday)
	r.Get("/picks/{pickID}", h.GetByID)

	t.Run("today lists only today's picks", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/picks/today", nil))
		require.Equal(t, http.StatusOK, w.Code)
		var picks []domain.Pick
		require.NoError(t, json.NewDecoder(w.Body).Decode(&picks))
		require.Len(t, picks, 1)
		assert.Equal(t, "today", picks[0].PickLifecycleID)
	})

	t.Run("by id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/picks/1", nil))
		require.Equal(t, http.StatusOK, w.Code)
		var pick domain.Pick
		require.NoError(t, json.NewDecoder(w.Body).Decode(&pick))
		assert.Equal(t, "today", pick.PickLifecycleID)
	})

	t.Run("missing pick is 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/picks/999", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bad id is 400", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/picks/abc", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// --- Metrics ---

func TestMetricsCLV(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemory()
	h := NewMetricsHandler(mem)

	t.Run("empty store", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.GetCLV(w, httptest.NewRequest(http.MethodGet, "/metrics/clv", nil))
		require.Equal(t, http.StatusOK, w.Code)
		var metrics CLVMetrics
		require.NoError(t, json.NewDecoder(w.Body).Decode(&metrics))
		assert.Zero(t, metrics.Count)
		assert.Nil(t, metrics.MeanCLVMarket)
		assert.Nil(t, metrics.MeanCLVBook)
	})

	t.Run("means over settlements carrying CLV", func(t *testing.T) {
		clv := func(v float64) *float64 { return &v }
		require.NoError(t, mem.InsertSettlement(ctx, &domain.Settlement{
			PickID: 1, Result: domain.ResultWin, CLVMarket: clv(0.02), CLVBook: clv(0.01),
		}))
		require.NoError(t, mem.InsertSettlement(ctx, &domain.Settlement{
			PickID: 2, Result: domain.ResultWin, CLVBook: clv(0.03),
		}))

		w := httptest.NewRecorder()
		h.GetCLV(w, httptest.NewRequest(http.MethodGet, "/metrics/clv", nil))
		var metrics CLVMetrics
		require.NoError(t, json.NewDecoder(w.Body).Decode(&metrics))
		assert.Equal(t, 2, metrics.Count)
		require.NotNil(t, metrics.MeanCLVMarket)
		assert.InDelta(t, 0.02, *metrics.MeanCLVMarket, 1e-9)
		require.NotNil(t, metrics.MeanCLVBook)
		assert.InDelta(t, 0.02, *metrics.MeanCLVBook, 1e-9)
	})
}

// --- Admin ---

func newAdminFixture(t *testing.T, limiter *guard.RateLimiter) (*AdminHandler, *repository.Memory) {
	t.Helper()
	mem := repository.NewMemory()
	engine := pipeline.NewEngine(pipeline.Deps{
		Tx:       mem,
		Provider: provider.NewMock(),
		Params:   pipeline.DefaultParams(),
		Seed:     pipeline.DefaultSeed(),
	})
	return NewAdminHandler(mem, engine, t.TempDir(), limiter), mem
}

func TestAdminRunOnce(t *testing.T) {
	h, mem := newAdminFixture(t, nil)

	w := httptest.NewRecorder()
	h.RunOnce(w, httptest.NewRequest(http.MethodPost, "/admin/run-once", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var summary pipeline.RunSummary
	require.NoError(t, json.NewDecoder(w.Body).Decode(&summary))
	assert.Equal(t, 1, summary.EventsProcessed)

	run, err := mem.LatestPipelineRun(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, run)
}

func TestAdminRetrain(t *testing.T) {
	h, mem := newAdminFixture(t, nil)

	w := httptest.NewRecorder()
	h.Retrain(w, httptest.NewRequest(http.MethodPost, "/admin/retrain", nil))
	require.Equal(t, http.StatusCreated, w.Code)

	var artifact domain.ModelArtifact
	require.NoError(t, json.NewDecoder(w.Body).Decode(&artifact))
	assert.NotEmpty(t, artifact.ArtifactPath)
	assert.Contains(t, artifact.ModelVersion, "baseline-")

	latest, err := mem.LatestModelArtifact(context.Background())
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, artifact.ModelVersion, latest.ModelVersion)
}

func TestAdminRateLimited(t *testing.T) {
	h, _ := newAdminFixture(t, guard.NewRateLimiter(1, time.Minute))

	req := httptest.NewRequest(http.MethodPost, "/admin/run-once", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	w := httptest.NewRecorder()
	h.RunOnce(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.RunOnce(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
