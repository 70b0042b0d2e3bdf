package handler

import (
	"net/http"
	"strconv"

	"github.com/pulseboard/pulseboard/internal/api/models"
	"github.com/pulseboard/pulseboard/internal/api/response"
	"github.com/pulseboard/pulseboard/internal/dashboard"
)

const defaultTopServices = 5

// DashboardHandler serves the derived views shown on the overview page.
type DashboardHandler struct {
	store *dashboard.Store
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(store *dashboard.Store) *DashboardHandler {
	return &DashboardHandler{store: store}
}

// GetSummary handles GET /api/dashboard/summary.
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, dashboard.Summarize(h.store.Services()))
}

// GetTopServices handles GET /api/dashboard/top - the ?n= busiest services
// by request rate (default 5).
func (h *DashboardHandler) GetTopServices(w http.ResponseWriter, r *http.Request) {
	n := defaultTopServices
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(w, r, "invalid query parameters", []models.FieldError{
				{Field: "n", Message: "must be an integer", Code: models.CodeInvalid},
			})
			return
		}
		n = parsed
	}

	response.JSON(w, r, http.StatusOK, dashboard.TopByRequests(h.store.Services(), n))
}

// GetStatusDistribution handles GET /api/dashboard/status-distribution.
func (h *DashboardHandler) GetStatusDistribution(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, dashboard.StatusDistribution(h.store.Services()))
}

// LoadDemoData handles POST /api/demo - replace services, metrics and alerts
// with the demo data set.
func (h *DashboardHandler) LoadDemoData(w http.ResponseWriter, r *http.Request) {
	h.store.InitializeDemoData()

	response.JSON(w, r, http.StatusOK, models.DemoResult{
		Services: len(h.store.Services()),
		Alerts:   len(h.store.Alerts()),
		Points:   h.store.Metrics().Len(),
	})
}
