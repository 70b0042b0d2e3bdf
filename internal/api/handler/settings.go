package handler

import (
	"net/http"

	"github.com/pulseboard/pulseboard/internal/api/models"
	"github.com/pulseboard/pulseboard/internal/api/response"
	"github.com/pulseboard/pulseboard/internal/dashboard"
)

// SettingsHandler handles settings and UI state endpoints.
type SettingsHandler struct {
	store *dashboard.Store
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(store *dashboard.Store) *SettingsHandler {
	return &SettingsHandler{store: store}
}

// GetSettings handles GET /api/settings.
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, h.store.Settings())
}

// UpdateSettings handles PATCH /api/settings - merge the given fields.
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch dashboard.SettingsPatch
	if err := response.Decode(r, &patch); err != nil {
		response.FromError(w, r, err)
		return
	}

	settings, err := h.store.UpdateSettings(patch)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, settings)
}

// GetPreferences handles GET /api/preferences - the persisted layout.
func (h *SettingsHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, h.store.Preferences())
}

// ToggleSidebar handles POST /api/ui/sidebar/toggle.
func (h *SettingsHandler) ToggleSidebar(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.SidebarState{Collapsed: h.store.ToggleSidebar()})
}

// SetSidebar handles PUT /api/ui/sidebar.
func (h *SettingsHandler) SetSidebar(w http.ResponseWriter, r *http.Request) {
	var state models.SidebarState
	if err := response.Decode(r, &state); err != nil {
		response.FromError(w, r, err)
		return
	}

	h.store.SetSidebarCollapsed(state.Collapsed)
	response.JSON(w, r, http.StatusOK, models.SidebarState{Collapsed: h.store.SidebarCollapsed()})
}
