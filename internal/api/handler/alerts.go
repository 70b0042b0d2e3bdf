package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pulseboard/pulseboard/internal/api/models"
	"github.com/pulseboard/pulseboard/internal/api/response"
	"github.com/pulseboard/pulseboard/internal/dashboard"
)

// AlertsHandler handles alert endpoints.
type AlertsHandler struct {
	store *dashboard.Store
}

// NewAlertsHandler creates a new AlertsHandler.
func NewAlertsHandler(store *dashboard.Store) *AlertsHandler {
	return &AlertsHandler{store: store}
}

// ListAlerts handles GET /api/alerts in insertion order, oldest first.
func (h *AlertsHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, h.store.Alerts())
}

// CreateAlert handles POST /api/alerts - raise a new alert.
func (h *AlertsHandler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var in dashboard.NewAlert
	if err := response.Decode(r, &in); err != nil {
		response.FromError(w, r, err)
		return
	}

	var fieldErrs []models.FieldError
	if !in.Type.Valid() {
		fieldErrs = append(fieldErrs, models.FieldError{Field: "type", Message: "must be critical or warning", Code: models.CodeInvalid})
	}
	if strings.TrimSpace(in.Title) == "" {
		fieldErrs = append(fieldErrs, models.FieldError{Field: "title", Message: "title is required", Code: models.CodeRequired})
	}
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid alert", fieldErrs)
		return
	}

	alert := h.store.AddAlert(in)
	response.Created(w, r, "/api/alerts/"+strconv.FormatInt(alert.ID, 10), alert)
}

// ClearAlerts handles DELETE /api/alerts - drop every alert.
func (h *AlertsHandler) ClearAlerts(w http.ResponseWriter, r *http.Request) {
	h.store.ClearAlerts()
	response.NoContent(w, r)
}

// DeleteAlert handles DELETE /api/alerts/{alertId}.
func (h *AlertsHandler) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := alertID(w, r)
	if !ok {
		return
	}

	if err := h.store.RemoveAlert(id); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

// AcknowledgeAlert handles POST /api/alerts/{alertId}/ack.
func (h *AlertsHandler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := alertID(w, r)
	if !ok {
		return
	}

	alert, err := h.store.AcknowledgeAlert(id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, alert)
}

func alertID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "alertId"), 10, 64)
	if err != nil {
		response.BadRequest(w, r, "invalid alert id", []models.FieldError{
			{Field: "alertId", Message: "must be an integer", Code: models.CodeInvalid},
		})
		return 0, false
	}
	return id, true
}
