package handler

import (
	"net/http"
	"strconv"

	"github.com/pulseboard/pulseboard/internal/api/response"
	"github.com/pulseboard/pulseboard/internal/dashboard"
	"github.com/pulseboard/pulseboard/internal/mockdata"
)

// maxGeneratedHours caps ?hours= so a single request cannot ask for an
// unbounded series.
const maxGeneratedHours = 24 * 30

// MetricsHandler handles the time series endpoints.
type MetricsHandler struct {
	store     *dashboard.Store
	generator MetricsSource
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(store *dashboard.Store, generator MetricsSource) *MetricsHandler {
	return &MetricsHandler{store: store, generator: generator}
}

// GetMetrics handles GET /api/metrics - a freshly generated bundle covering
// the last ?hours= hours. Missing or invalid values fall back to 24.
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, h.generator.Bundle(parseHours(r.URL.Query().Get("hours"))))
}

// GetLiveMetrics handles GET /api/metrics/live - the bundle held by the store.
func (h *MetricsHandler) GetLiveMetrics(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, h.store.Metrics())
}

// AppendLiveMetrics handles POST /api/metrics/live - append points to the
// stored series.
func (h *MetricsHandler) AppendLiveMetrics(w http.ResponseWriter, r *http.Request) {
	var delta dashboard.MetricsBundle
	if err := response.Decode(r, &delta); err != nil {
		response.FromError(w, r, err)
		return
	}

	h.store.UpdateMetrics(delta)
	response.JSON(w, r, http.StatusOK, h.store.Metrics())
}

// ReplaceLiveMetrics handles PUT /api/metrics/live - replace the stored
// series wholesale.
func (h *MetricsHandler) ReplaceLiveMetrics(w http.ResponseWriter, r *http.Request) {
	var bundle dashboard.MetricsBundle
	if err := response.Decode(r, &bundle); err != nil {
		response.FromError(w, r, err)
		return
	}

	h.store.SetMetrics(bundle)
	response.JSON(w, r, http.StatusOK, h.store.Metrics())
}

func parseHours(raw string) int {
	hours, err := strconv.Atoi(raw)
	if err != nil || hours < 0 {
		return mockdata.DemoHours
	}
	if hours > maxGeneratedHours {
		return maxGeneratedHours
	}
	return hours
}
