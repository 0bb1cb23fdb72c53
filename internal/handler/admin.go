package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pickline/platform/internal/domain"
	"github.com/pickline/platform/internal/guard"
	"github.com/pickline/platform/internal/model"
	"github.com/pickline/platform/internal/pipeline"
	"github.com/pickline/platform/internal/repository"
)

// AdminHandler exposes the operator triggers: retrain the baseline model
// and invoke a pipeline sweep.
type AdminHandler struct {
	tx          repository.TxManager
	engine      *pipeline.Engine
	artifactDir string
	limiter     *guard.RateLimiter
	now         func() time.Time
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(tx repository.TxManager, engine *pipeline.Engine, artifactDir string, limiter *guard.RateLimiter) *AdminHandler {
	return &AdminHandler{
		tx:          tx,
		engine:      engine,
		artifactDir: artifactDir,
		limiter:     limiter,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// RunOnce handles POST /admin/run-once.
func (h *AdminHandler) RunOnce(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r) {
		return
	}
	summary, err := h.engine.RunOnce(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, summary)
}

// Retrain handles POST /admin/retrain. It fits the baseline model on the
// seed corpus, writes the artifact to disk, and registers it as the
// newest model.
func (h *AdminHandler) Retrain(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r) {
		return
	}
	now := h.now()
	version := fmt.Sprintf("baseline-%s", now.Format("20060102-150405"))

	rows, labels := model.SeedTrainingSet()
	path, metrics, err := model.TrainBaseline(rows, labels, version, h.artifactDir)
	if err != nil {
		RespondError(w, domain.ErrInternal("train baseline model", err))
		return
	}
	metricsBlob, err := json.Marshal(metrics)
	if err != nil {
		RespondError(w, err)
		return
	}

	artifact := &domain.ModelArtifact{
		ModelVersion:   version,
		TrainedAt:      now,
		TrainingWindow: "seed",
		Metrics:        metricsBlob,
		ArtifactPath:   path,
	}
	err = h.tx.WithinRun(r.Context(), func(st repository.Store) error {
		return st.InsertModelArtifact(r.Context(), artifact)
	})
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusCreated, artifact)
}

func (h *AdminHandler) allow(w http.ResponseWriter, r *http.Request) bool {
	if h.limiter == nil {
		return true
	}
	if res := h.limiter.Check(r.Context(), r.RemoteAddr); !res.Allowed {
		RespondError(w, domain.ErrRateLimited(res.Reason))
		return false
	}
	return true
}
