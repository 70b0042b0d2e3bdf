// Package api provides the HTTP API for Pulseboard.
package api

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/pulseboard/pulseboard/internal/api/handler"
	"github.com/pulseboard/pulseboard/internal/api/middleware"
	"github.com/pulseboard/pulseboard/internal/api/response"
	"github.com/pulseboard/pulseboard/internal/dashboard"
	"github.com/pulseboard/pulseboard/internal/probe"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	Store     *dashboard.Store
	Generator handler.MetricsSource
	Prober    probe.Prober

	HostInfo     handler.HostInfoSource
	SystemHealth handler.SnapshotSource
	// ProbeTargets is nil unless services are probed over HTTP.
	ProbeTargets handler.ProbeTargets
	// HealthStream serves the system health websocket.
	HealthStream http.Handler

	// TokenValidator guards mutating routes. Nil disables authentication.
	TokenValidator middleware.TokenValidator

	// PrometheusHandler is mounted on /metrics when set.
	PrometheusHandler http.Handler
	ReadinessChecks   []handler.DependencyCheck

	// StaticFiles holds the built frontend. Nil disables the catch-all.
	StaticFiles fs.FS
	CORSOrigins []string
	RequireTLS  bool
}

// NewRouter creates a new chi router with all routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "pulseboard-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID) // Generate/propagate request ID first
	r.Use(middleware.Tracing(middleware.TracingConfig{ServiceName: serviceName}))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger, middleware.LoggerConfig{
		SkipPaths: []string{"/ops/health", "/ops/ready", "/metrics"},
	}))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequireTLS(cfg.RequireTLS, "/ops/health", "/ops/ready"))

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.ReadinessChecks...)
	servicesHandler := handler.NewServicesHandler(cfg.Store, cfg.Generator, cfg.Prober)
	metricsHandler := handler.NewMetricsHandler(cfg.Store, cfg.Generator)
	alertsHandler := handler.NewAlertsHandler(cfg.Store)
	settingsHandler := handler.NewSettingsHandler(cfg.Store)
	dashboardHandler := handler.NewDashboardHandler(cfg.Store)
	exportHandler := handler.NewExportHandler(cfg.Store)
	systemHandler := handler.NewSystemHandler(handler.SystemHandlerConfig{
		Info:    cfg.HostInfo,
		Health:  cfg.SystemHealth,
		Targets: cfg.ProbeTargets,
		Logger:  cfg.Logger,
	})

	// Ops endpoints (public)
	r.Group(func(r chi.Router) {
		r.Use(middleware.SecurityHeaders(middleware.APIContentSecurityPolicy))
		r.Use(middleware.ContentTypeJSON)
		r.Get("/ops/health", opsHandler.HealthCheck)
		r.Get("/ops/ready", opsHandler.ReadinessCheck)
	})

	if cfg.PrometheusHandler != nil {
		r.Handle("/metrics", cfg.PrometheusHandler)
	}

	authMiddleware := middleware.Optional(cfg.TokenValidator != nil, middleware.Auth(cfg.TokenValidator))

	r.Route("/api", func(r chi.Router) {
		r.Use(corsHandler(cfg.CORSOrigins))
		r.Use(middleware.SecurityHeaders(middleware.APIContentSecurityPolicy))
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireJSON)
		// Reads stay open; every state change needs a token (when configured)
		// and counts against the mutation budget.
		r.Use(middleware.OnlyMutations(authMiddleware))
		r.Use(middleware.OnlyMutations(middleware.RateLimitBySubject(middleware.MutationRateLimit)))

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			response.NotFound(w, r, "no such endpoint")
		})

		r.Route("/services", func(r chi.Router) {
			r.Get("/", servicesHandler.ListServices)
			r.Post("/", servicesHandler.CreateService)
			r.Route("/{serviceId}", func(r chi.Router) {
				r.Get("/", servicesHandler.GetService)
				r.Patch("/", servicesHandler.UpdateService)
				r.Delete("/", servicesHandler.DeleteService)
				r.Get("/metrics", servicesHandler.GetServiceMetrics)
				r.With(middleware.RateLimitByIP(middleware.ProbeRateLimit)).
					Post("/health", servicesHandler.CheckServiceHealth)
			})
		})

		r.Route("/metrics", func(r chi.Router) {
			r.Get("/", metricsHandler.GetMetrics)
			r.Get("/live", metricsHandler.GetLiveMetrics)
			r.Post("/live", metricsHandler.AppendLiveMetrics)
			r.Put("/live", metricsHandler.ReplaceLiveMetrics)
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", alertsHandler.ListAlerts)
			r.Post("/", alertsHandler.CreateAlert)
			r.Delete("/", alertsHandler.ClearAlerts)
			r.Delete("/{alertId}", alertsHandler.DeleteAlert)
			r.Post("/{alertId}/ack", alertsHandler.AcknowledgeAlert)
		})

		r.Get("/settings", settingsHandler.GetSettings)
		r.Patch("/settings", settingsHandler.UpdateSettings)
		r.Get("/preferences", settingsHandler.GetPreferences)
		r.Post("/ui/sidebar/toggle", settingsHandler.ToggleSidebar)
		r.Put("/ui/sidebar", settingsHandler.SetSidebar)

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/summary", dashboardHandler.GetSummary)
			r.Get("/top", dashboardHandler.GetTopServices)
			r.Get("/status-distribution", dashboardHandler.GetStatusDistribution)
		})
		r.Post("/demo", dashboardHandler.LoadDemoData)

		r.Route("/export", func(r chi.Router) {
			r.Get("/services.csv", exportHandler.ExportServices)
			r.Get("/metrics.csv", exportHandler.ExportMetrics)
		})

		r.Route("/system", func(r chi.Router) {
			r.Get("/", systemHandler.GetSystemInfo)
			r.Get("/health", systemHandler.GetSystemHealth)
			r.Get("/probes", systemHandler.GetProbeTargets)
			if cfg.HealthStream != nil {
				r.Get("/health/stream", cfg.HealthStream.ServeHTTP)
			}
		})
	})

	if cfg.StaticFiles != nil {
		static := handler.NewStaticHandler(cfg.StaticFiles)
		r.Group(func(r chi.Router) {
			r.Use(middleware.SecurityHeaders(middleware.AppContentSecurityPolicy))
			r.Get("/*", static.ServeHTTP)
		})
	}

	return r
}

// corsHandler allows the configured origins, or every origin when none are
// configured.
func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "Location", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}
