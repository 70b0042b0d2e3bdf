// Package main provides the Pulseboard job scheduler. It publishes
// metrics_refresh jobs to the job topic on a fixed interval and exposes a
// health endpoint for the platform.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/pulseboard/pulseboard/internal/api/response"
	"github.com/pulseboard/pulseboard/internal/config"
	"github.com/pulseboard/pulseboard/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "pulseboard-worker"

// Publisher sends one job to the job topic.
type Publisher interface {
	Publish(ctx context.Context, jobType string) (string, error)
}

// scheduler publishes a job every interval and remembers the outcome for the
// health endpoint.
type scheduler struct {
	pub      Publisher
	jobType  string
	interval time.Duration
	log      zerolog.Logger

	published atomic.Int64
	failed    atomic.Int64
	lastOK    atomic.Int64
}

func (s *scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().
		Str("job_type", s.jobType).
		Dur("interval", s.interval).
		Msg("scheduler started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *scheduler) tick(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	id, err := s.pub.Publish(pctx, s.jobType)
	if err != nil {
		s.failed.Add(1)
		s.log.Error().Err(err).Str("job_type", s.jobType).Msg("failed to publish job")
		return
	}
	s.published.Add(1)
	s.lastOK.Store(time.Now().Unix())
	s.log.Debug().Str("job_type", s.jobType).Str("message_id", id).Msg("job published")
}

type healthResponse struct {
	Status          string     `json:"status"`
	Version         string     `json:"version"`
	Published       int64      `json:"published"`
	Failed          int64      `json:"failed"`
	LastPublishedAt *time.Time `json:"lastPublishedAt,omitempty"`
}

func (s *scheduler) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "healthy",
		Version:   Version,
		Published: s.published.Load(),
		Failed:    s.failed.Load(),
	}
	if ts := s.lastOK.Load(); ts > 0 {
		t := time.Unix(ts, 0).UTC()
		resp.LastPublishedAt = &t
	}
	response.JSON(w, r, http.StatusOK, resp)
}

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

	log.Info().Str("build_time", BuildTime).Msg("starting Pulseboard worker")

	if !cfg.PubSub.Enabled() {
		log.Error().Msg("PUBSUB_PROJECT_ID is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pub, err := worker.NewJobPublisher(ctx, cfg.PubSub.ProjectID, cfg.PubSub.JobTopic)
	if err != nil {
		log.Error().Err(err).Msg("failed to create job publisher")
		os.Exit(1) //nolint:gocritic // nothing to clean up yet
	}
	defer func() {
		if err := pub.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close job publisher")
		}
	}()

	sched := &scheduler{
		pub:      pub,
		jobType:  worker.JobMetricsRefresh,
		interval: cfg.WorkerInterval,
		log:      log.With().Str("topic", cfg.PubSub.JobTopic).Logger(),
	}

	r := chi.NewRouter()
	r.Get("/health", sched.health)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
			stop()
		}
	}()

	sched.run(ctx)

	log.Info().Msg("shutting down worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().
		Int64("published", sched.published.Load()).
		Int64("failed", sched.failed.Load()).
		Msg("worker stopped")
}
