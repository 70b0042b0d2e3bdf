// Package main provides the entrypoint for the Pulseboard API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pulseboard/pulseboard/internal/api"
	"github.com/pulseboard/pulseboard/internal/api/handler"
	"github.com/pulseboard/pulseboard/internal/api/middleware"
	"github.com/pulseboard/pulseboard/internal/auth"
	"github.com/pulseboard/pulseboard/internal/config"
	"github.com/pulseboard/pulseboard/internal/dashboard"
	"github.com/pulseboard/pulseboard/internal/exporter"
	"github.com/pulseboard/pulseboard/internal/hostinfo"
	"github.com/pulseboard/pulseboard/internal/mockdata"
	"github.com/pulseboard/pulseboard/internal/notify"
	"github.com/pulseboard/pulseboard/internal/probe"
	"github.com/pulseboard/pulseboard/internal/resilience"
	"github.com/pulseboard/pulseboard/internal/syshealth"
	"github.com/pulseboard/pulseboard/internal/telemetry"
	"github.com/pulseboard/pulseboard/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "pulseboard-api"

func main() {
	cfg := config.Load()

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(level)
	}

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Msg("starting Pulseboard API")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(1) //nolint:gocritic // deferred stop is best-effort
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTel.Endpoint,
		Enabled:        cfg.OTel.Enabled,
		SampleRatio:    cfg.OTel.SampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()
	if cfg.OTel.Enabled {
		log.Info().Str("otlp_endpoint", cfg.OTel.Endpoint).Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics(tp.Meter)
	if err != nil {
		return err
	}

	// Store
	gen := mockdata.NewGenerator(mockdata.Config{})
	store := dashboard.NewStore(dashboard.StoreConfig{
		Retention: dashboard.Retention{
			MaxPoints: cfg.Metrics.MaxPoints,
			MaxAge:    cfg.Metrics.MaxAge,
		},
		Demo: gen,
	})

	// Preferences
	prefs, closePrefs, err := openPreferences(ctx, cfg.Prefs, log)
	if err != nil {
		return err
	}
	defer closePrefs()

	persister := preferencesPersister(prefs, store, log)
	if err := persister.Restore(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to restore preferences, using defaults")
	}
	persister.Start()

	// Exporter and alert notifications subscribe before demo data so they
	// see the initial load.
	exp := exporter.New(store)

	notifiers, closeNotifiers := buildNotifiers(ctx, cfg, log)
	defer closeNotifiers()
	dispatcher := notify.NewDispatcher(notify.DispatcherConfig{
		Store:     store,
		Notifiers: notifiers,
		Logger:    log,
	})
	dispatcher.Start()
	go dispatcher.Run(ctx)

	if cfg.DemoData {
		store.InitializeDemoData()
		log.Info().Int("services", len(store.Services())).Msg("demo data loaded")
	}

	// System health
	monitor := syshealth.NewMonitor(gen)
	hub := syshealth.NewHub(syshealth.HubConfig{
		Logger:         log,
		Current:        monitor.Snapshot,
		AllowedOrigins: cfg.CORSOrigins,
	})
	go hub.Run(ctx)
	exp.SetHealthScore(monitor.Snapshot().Score)
	go monitor.Run(ctx, cfg.HealthTick, func(snap syshealth.Snapshot) {
		exp.SetHealthScore(snap.Score)
		hub.Publish(snap)
	})

	if _, err := telemetry.RegisterDashboardInstruments(tp.Meter, store, func() int {
		return monitor.Snapshot().Score
	}); err != nil {
		return err
	}

	// Probing
	var (
		prober  probe.Prober
		targets handler.ProbeTargets
	)
	switch cfg.Probe.Mode {
	case config.ProbeHTTP:
		client := resilience.NewClient(resilience.ClientConfig{
			Timeout:    cfg.Probe.Timeout,
			MaxRetries: 2,
			Logger:     log,
		})
		prober = probe.NewHTTPProber(probe.HTTPProberConfig{Client: client, Logger: log})
		targets = client
	default:
		prober = probe.NewMockProber(gen)
	}
	log.Info().Str("mode", cfg.Probe.Mode).Msg("service prober configured")

	// Background jobs
	refreshCfg := worker.DefaultRefreshConfig()
	refreshCfg.Timeout = cfg.Probe.Timeout
	refresh := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:  refreshCfg,
		Logger:  log,
		Store:   store,
		Sampler: gen,
		Prober:  prober,
	})
	go refresh.Run(ctx)

	if cfg.PubSub.Enabled() {
		jobs, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSub.ProjectID,
			SubscriptionName: cfg.PubSub.Subscription,
			Runner:           worker.NewJobRunner(store, refresh, log),
			Logger:           log,
		})
		if err != nil {
			return err
		}
		defer jobs.Close() //nolint:errcheck // best effort on shutdown
		go func() {
			if err := jobs.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	}

	// Auth
	var validator middleware.TokenValidator
	if cfg.Auth.Enabled() {
		validator = auth.NewJWTService(auth.JWTConfig{
			SigningKey: cfg.Auth.SigningKey,
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
		})
		log.Info().Msg("operator authentication enabled for mutating routes")
	} else {
		log.Warn().Msg("AUTH_SIGNING_KEY not set - mutating routes are open")
	}

	routerCfg := api.RouterConfig{
		Version:           Version,
		BuildTime:         BuildTime,
		Logger:            log,
		ServiceName:       serviceName,
		Metrics:           metrics,
		Store:             store,
		Generator:         gen,
		Prober:            prober,
		HostInfo:          hostinfo.NewCollector(Version, store, nil),
		SystemHealth:      monitor,
		ProbeTargets:      targets,
		HealthStream:      hub,
		TokenValidator:    validator,
		PrometheusHandler: exp.Handler(),
		ReadinessChecks: []handler.DependencyCheck{
			{Name: "preferences:" + cfg.Prefs.Backend, Ping: prefs.Ping},
		},
		CORSOrigins: cfg.CORSOrigins,
		RequireTLS:  cfg.Env == "production",
	}
	if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
		routerCfg.StaticFiles = os.DirFS(cfg.StaticDir)
	} else {
		log.Warn().Str("dir", cfg.StaticDir).Msg("static directory not found, serving API only")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info().Fields(refresh.StatsSnapshot()).Msg("refresh job stopped")
	return nil
}
