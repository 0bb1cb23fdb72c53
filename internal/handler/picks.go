package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pickline/platform/internal/domain"
	"github.com/pickline/platform/internal/repository"
)

// PicksHandler serves the read-only pick views.
type PicksHandler struct {
	store repository.Store
	now   func() time.Time
}

// NewPicksHandler creates a new PicksHandler.
func NewPicksHandler(store repository.Store) *PicksHandler {
	return &PicksHandler{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// GetToday handles GET /picks/today.
func (h *PicksHandler) GetToday(w http.ResponseWriter, r *http.Request) {
	picks, err := h.store.ListPicksByDay(r.Context(), h.now())
	if err != nil {
		RespondError(w, err)
		return
	}
	if picks == nil {
		picks = []domain.Pick{}
	}
	RespondJSON(w, http.StatusOK, picks)
}

// GetByID handles GET /picks/{pickID}.
func (h *PicksHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "pickID"), 10, 64)
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid pick id"))
		return
	}
	pick, err := h.store.FindPick(r.Context(), id)
	if err != nil {
		RespondError(w, err)
		return
	}
	if pick == nil {
		RespondError(w, domain.ErrNotFound("pick", chi.URLParam(r, "pickID")))
		return
	}
	RespondJSON(w, http.StatusOK, pick)
}
