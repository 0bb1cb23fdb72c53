package handler

import (
	"net/http"

	"github.com/pickline/platform/internal/repository"
)

// HealthHandler reports liveness plus the id of the latest committed
// pipeline run, null until the first sweep lands.
func HealthHandler(store repository.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := store.LatestPipelineRun(r.Context())
		if err != nil {
			RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}

		var latestRunID *int64
		if run != nil {
			latestRunID = &run.ID
		}
		RespondJSON(w, http.StatusOK, map[string]interface{}{
			"status":        "healthy",
			"latest_run_id": latestRunID,
		})
	}
}
