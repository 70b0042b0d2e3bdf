package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/pulseboard/pulseboard/internal/api/models"
	"github.com/pulseboard/pulseboard/internal/api/response"
	"github.com/pulseboard/pulseboard/internal/dashboard"
)

var servicesCSVHeader = []string{
	"Name", "Status", "Owner", "Environment", "Version",
	"Requests/min", "Error Rate", "Response Time",
}

// ExportHandler serves CSV downloads of dashboard data.
type ExportHandler struct {
	store *dashboard.Store
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(store *dashboard.Store) *ExportHandler {
	return &ExportHandler{store: store}
}

// ExportServices handles GET /api/export/services.csv - the filtered service
// list, accepting the same query parameters as GET /api/services.
func (h *ExportHandler) ExportServices(w http.ResponseWriter, r *http.Request) {
	q, fieldErrs := parseServiceQuery(r)
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid query parameters", fieldErrs)
		return
	}

	services := dashboard.FilterServices(h.store.Services(), q)
	rows := make([][]string, 0, len(services)+1)
	rows = append(rows, servicesCSVHeader)
	for _, s := range services {
		rows = append(rows, []string{
			s.Name,
			string(s.Status),
			s.Owner,
			string(s.Environment),
			s.Version,
			formatNumber(s.Metrics.RequestsPerMinute),
			formatNumber(s.Metrics.ErrorRate) + "%",
			formatNumber(s.Metrics.ResponseTime) + "ms",
		})
	}

	response.CSV(w, r, "services-export.csv", rows)
}

// ExportMetrics handles GET /api/export/metrics.csv - one stored series as
// Timestamp,Value rows. ?metric= is cpu, memory, network or disk (default cpu).
func (h *ExportHandler) ExportMetrics(w http.ResponseWriter, r *http.Request) {
	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = "cpu"
	}

	series, ok := h.store.Metrics().SeriesByName(metric)
	if !ok {
		response.BadRequest(w, r, "invalid query parameters", []models.FieldError{
			{Field: "metric", Message: "must be one of cpu, memory, network, disk", Code: models.CodeInvalid},
		})
		return
	}

	rows := make([][]string, 0, len(series)+1)
	rows = append(rows, []string{"Timestamp", "Value"})
	for _, p := range series {
		rows = append(rows, []string{
			p.Timestamp.UTC().Format(time.RFC3339),
			formatNumber(p.Value),
		})
	}

	response.CSV(w, r, metric+"-data.csv", rows)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
