package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pulseboard/pulseboard/internal/api/models"
	"github.com/pulseboard/pulseboard/internal/api/response"
	"github.com/pulseboard/pulseboard/internal/dashboard"
	"github.com/pulseboard/pulseboard/internal/mockdata"
	"github.com/pulseboard/pulseboard/internal/probe"
)

// MetricsSource produces generated metric bundles.
type MetricsSource interface {
	Bundle(hours int) dashboard.MetricsBundle
}

// ServicesHandler handles the service catalogue endpoints.
type ServicesHandler struct {
	store   *dashboard.Store
	metrics MetricsSource
	prober  probe.Prober
}

// NewServicesHandler creates a new ServicesHandler.
func NewServicesHandler(store *dashboard.Store, metrics MetricsSource, prober probe.Prober) *ServicesHandler {
	return &ServicesHandler{
		store:   store,
		metrics: metrics,
		prober:  prober,
	}
}

// ListServices handles GET /api/services - list services, optionally
// searched, filtered and sorted.
func (h *ServicesHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	q, fieldErrs := parseServiceQuery(r)
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid query parameters", fieldErrs)
		return
	}

	response.JSON(w, r, http.StatusOK, dashboard.FilterServices(h.store.Services(), q))
}

// CreateService handles POST /api/services - register a new service.
func (h *ServicesHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var svc dashboard.Service
	if err := response.Decode(r, &svc); err != nil {
		response.FromError(w, r, err)
		return
	}

	svc.ID = strings.TrimSpace(svc.ID)
	svc.Name = strings.TrimSpace(svc.Name)
	if fieldErrs := validateNewService(&svc); len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid service", fieldErrs)
		return
	}

	if err := h.store.CreateService(svc); err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Created(w, r, "/api/services/"+svc.ID, svc)
}

// GetService handles GET /api/services/{serviceId}.
func (h *ServicesHandler) GetService(w http.ResponseWriter, r *http.Request) {
	svc, err := h.store.Service(chi.URLParam(r, "serviceId"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, svc)
}

// UpdateService handles PATCH /api/services/{serviceId} - merge fields into
// a service.
func (h *ServicesHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	var patch dashboard.ServicePatch
	if err := response.Decode(r, &patch); err != nil {
		response.FromError(w, r, err)
		return
	}

	svc, err := h.store.UpdateService(chi.URLParam(r, "serviceId"), patch)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, svc)
}

// DeleteService handles DELETE /api/services/{serviceId}.
func (h *ServicesHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.store.RemoveService(chi.URLParam(r, "serviceId")); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

// GetServiceMetrics handles GET /api/services/{serviceId}/metrics - generated
// history for the requested range (1h, 24h or 7d).
func (h *ServicesHandler) GetServiceMetrics(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.Service(chi.URLParam(r, "serviceId")); err != nil {
		response.FromError(w, r, err)
		return
	}

	hours := mockdata.HoursForRange(r.URL.Query().Get("range"))
	response.JSON(w, r, http.StatusOK, h.metrics.Bundle(hours))
}

// CheckServiceHealth handles POST /api/services/{serviceId}/health - probe a
// service on demand.
func (h *ServicesHandler) CheckServiceHealth(w http.ResponseWriter, r *http.Request) {
	svc, err := h.store.Service(chi.URLParam(r, "serviceId"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	check, err := h.prober.Check(r.Context(), svc)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, check)
}

func parseServiceQuery(r *http.Request) (dashboard.Query, []models.FieldError) {
	v := r.URL.Query()
	q := dashboard.Query{
		Search:      v.Get("q"),
		Status:      v.Get("status"),
		Environment: v.Get("environment"),
		SortBy:      dashboard.SortKey(v.Get("sort")),
		Order:       dashboard.SortOrder(v.Get("order")),
	}

	var errs []models.FieldError
	if q.Status != "" && q.Status != dashboard.FilterAll && !dashboard.Status(q.Status).Valid() {
		errs = append(errs, models.FieldError{Field: "status", Message: "unknown status", Code: models.CodeInvalid})
	}
	if q.Environment != "" && q.Environment != dashboard.FilterAll && !dashboard.Environment(q.Environment).Valid() {
		errs = append(errs, models.FieldError{Field: "environment", Message: "unknown environment", Code: models.CodeInvalid})
	}
	if !q.SortBy.Valid() {
		errs = append(errs, models.FieldError{Field: "sort", Message: "unknown sort key", Code: models.CodeInvalid})
	}
	switch q.Order {
	case "", dashboard.SortAsc, dashboard.SortDesc:
	default:
		errs = append(errs, models.FieldError{Field: "order", Message: "must be asc or desc", Code: models.CodeInvalid})
	}
	return q, errs
}

// validateNewService checks required fields and fills defaults for the
// optional ones.
func validateNewService(svc *dashboard.Service) []models.FieldError {
	var errs []models.FieldError
	if svc.ID == "" {
		errs = append(errs, models.FieldError{Field: "id", Message: "id is required", Code: models.CodeRequired})
	}
	if svc.Name == "" {
		errs = append(errs, models.FieldError{Field: "name", Message: "name is required", Code: models.CodeRequired})
	}

	if svc.Status == "" {
		svc.Status = dashboard.StatusHealthy
	} else if !svc.Status.Valid() {
		errs = append(errs, models.FieldError{Field: "status", Message: "unknown status", Code: models.CodeInvalid})
	}
	if svc.Environment == "" {
		svc.Environment = dashboard.EnvironmentDevelopment
	} else if !svc.Environment.Valid() {
		errs = append(errs, models.FieldError{Field: "environment", Message: "unknown environment", Code: models.CodeInvalid})
	}

	if svc.Dependencies == nil {
		svc.Dependencies = []string{}
	}
	if svc.LastDeployed.IsZero() {
		svc.LastDeployed = time.Now().UTC()
	}
	return errs
}
