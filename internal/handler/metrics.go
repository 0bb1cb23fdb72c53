package handler

import (
	"net/http"

	"github.com/pickline/platform/internal/repository"
)

// CLVMetrics is the aggregate closing-line-value report.
type CLVMetrics struct {
	Count         int      `json:"count"`
	MeanCLVMarket *float64 `json:"mean_clv_market"`
	MeanCLVBook   *float64 `json:"mean_clv_book"`
}

// MetricsHandler serves aggregate pipeline metrics.
type MetricsHandler struct {
	store repository.Store
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(store repository.Store) *MetricsHandler {
	return &MetricsHandler{store: store}
}

// GetCLV handles GET /metrics/clv. Means are computed over settlements
// that carry the respective CLV value and are null when none do.
func (h *MetricsHandler) GetCLV(w http.ResponseWriter, r *http.Request) {
	settlements, err := h.store.ListSettlements(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}

	metrics := CLVMetrics{Count: len(settlements)}
	var marketSum, bookSum float64
	var marketN, bookN int
	for _, st := range settlements {
		if st.CLVMarket != nil {
			marketSum += *st.CLVMarket
			marketN++
		}
		if st.CLVBook != nil {
			bookSum += *st.CLVBook
			bookN++
		}
	}
	if marketN > 0 {
		mean := marketSum / float64(marketN)
		metrics.MeanCLVMarket = &mean
	}
	if bookN > 0 {
		mean := bookSum / float64(bookN)
		metrics.MeanCLVBook = &mean
	}

	RespondJSON(w, http.StatusOK, metrics)
}
