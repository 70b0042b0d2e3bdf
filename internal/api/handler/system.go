package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/pulseboard/pulseboard/internal/api/response"
	"github.com/pulseboard/pulseboard/internal/hostinfo"
	"github.com/pulseboard/pulseboard/internal/resilience"
	"github.com/pulseboard/pulseboard/internal/syshealth"
)

// HostInfoSource collects host information.
type HostInfoSource interface {
	Collect(ctx context.Context) (*hostinfo.Info, error)
}

// SnapshotSource returns the current system health snapshot.
type SnapshotSource interface {
	Snapshot() syshealth.Snapshot
}

// ProbeTargets reports the breaker state of probed hosts.
type ProbeTargets interface {
	Targets() []resilience.TargetHealth
}

// SystemHandler handles the system endpoints.
type SystemHandler struct {
	info    HostInfoSource
	health  SnapshotSource
	targets ProbeTargets
	logger  zerolog.Logger
}

// SystemHandlerConfig holds the dependencies of a SystemHandler.
type SystemHandlerConfig struct {
	Info   HostInfoSource
	Health SnapshotSource
	// Targets is nil when services are probed with the mock prober.
	Targets ProbeTargets
	Logger  zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(cfg SystemHandlerConfig) *SystemHandler {
	return &SystemHandler{
		info:    cfg.Info,
		health:  cfg.Health,
		targets: cfg.Targets,
		logger:  cfg.Logger,
	}
}

// GetSystemInfo handles GET /api/system - version, host uptime and load.
func (h *SystemHandler) GetSystemInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.info.Collect(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to collect host info")
		response.ServiceUnavailable(w, r, "host information is unavailable")
		return
	}
	response.JSON(w, r, http.StatusOK, info)
}

// GetSystemHealth handles GET /api/system/health - the latest health snapshot.
func (h *SystemHandler) GetSystemHealth(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, h.health.Snapshot())
}

// GetProbeTargets handles GET /api/system/probes - circuit breaker state per
// probed host.
func (h *SystemHandler) GetProbeTargets(w http.ResponseWriter, r *http.Request) {
	if h.targets == nil {
		response.JSON(w, r, http.StatusOK, []resilience.TargetHealth{})
		return
	}
	response.JSON(w, r, http.StatusOK, h.targets.Targets())
}
