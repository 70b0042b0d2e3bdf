package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pulseboard/pulseboard/internal/dashboard"
	"github.com/pulseboard/pulseboard/internal/probe"
)

// Sampler produces fresh metric samples.
type Sampler interface {
	// Sample returns a bundle holding one new point per series.
	Sample() dashboard.MetricsBundle
	// Jitter nudges a service's metrics snapshot.
	Jitter(m dashboard.ServiceMetrics) dashboard.ServiceMetrics
}

// RefreshJob appends fresh metric samples to the store and sweeps service
// health.
type RefreshJob struct {
	config  RefreshConfig
	logger  zerolog.Logger
	store   *dashboard.Store
	sampler Sampler
	prober  probe.Prober

	mu    sync.RWMutex
	stats RefreshStats
}

// RefreshStats tracks refresh job statistics.
type RefreshStats struct {
	// Counters
	Refreshes        int64
	SkippedRefreshes int64
	ServicesUpdated  int64
	HealthSweeps     int64
	ProbesSucceeded  int64
	ProbesFailed     int64
	ProbesSkipped    int64
	StatusChanges    int64

	// Timings
	LastRefreshAt     time.Time
	LastSweepAt       time.Time
	LastSweepDuration time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config  RefreshConfig
	Logger  zerolog.Logger
	Store   *dashboard.Store
	Sampler Sampler
	// Prober is used by health sweeps. Nil disables them.
	Prober probe.Prober
}

// NewRefreshJob creates a new refresh job.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	return &RefreshJob{
		config:  cfg.Config.withDefaults(),
		logger:  cfg.Logger,
		store:   cfg.Store,
		sampler: cfg.Sampler,
		prober:  cfg.Prober,
	}
}

// Run refreshes metrics every refreshInterval seconds while autoRefresh is
// on. Settings are re-read before every wait, so changes apply from the next
// tick. Run returns when ctx is cancelled.
func (j *RefreshJob) Run(ctx context.Context) {
	j.logger.Info().Msg("starting metrics auto refresh")

	timer := time.NewTimer(j.nextWait())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("metrics auto refresh stopped")
			return
		case <-timer.C:
			if j.store.Settings().AutoRefresh {
				if err := j.RefreshMetrics(ctx); err != nil && !errors.Is(err, context.Canceled) {
					j.logger.Error().Err(err).Msg("metrics refresh failed")
				}
			} else {
				j.mu.Lock()
				j.stats.SkippedRefreshes++
				j.mu.Unlock()
			}
			timer.Reset(j.nextWait())
		}
	}
}

func (j *RefreshJob) nextWait() time.Duration {
	settings := j.store.Settings()
	if !settings.AutoRefresh {
		return j.config.IdlePoll
	}
	return j.config.interval(settings.RefreshInterval)
}

// RefreshMetrics appends one sample to every series and jitters each
// service's metrics snapshot. It ignores the autoRefresh setting.
func (j *RefreshJob) RefreshMetrics(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	j.store.UpdateMetrics(j.sampler.Sample())

	var updated int64
	for _, svc := range j.store.Services() {
		metrics := j.sampler.Jitter(svc.Metrics)
		_, err := j.store.UpdateService(svc.ID, dashboard.ServicePatch{Metrics: &metrics})
		switch {
		case err == nil:
			updated++
		case errors.Is(err, dashboard.ErrServiceNotFound):
			// Removed since the snapshot was taken.
		default:
			return err
		}
	}

	j.mu.Lock()
	j.stats.Refreshes++
	j.stats.ServicesUpdated += updated
	j.stats.LastRefreshAt = time.Now()
	j.mu.Unlock()

	j.logger.Debug().Int64("services", updated).Msg("metrics refreshed")
	return nil
}

// SweepResult contains the result of a health sweep.
type SweepResult struct {
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
	Total         int
	Succeeded     int
	Failed        int
	Skipped       int
	StatusChanges int
	Errors        []SweepError
}

// SweepError records a failed probe.
type SweepError struct {
	ServiceID string
	Error     string
}

type probeResult struct {
	svc     dashboard.Service
	check   *probe.HealthCheck
	err     error
	skipped bool
}

// HealthSweep probes every service with a bounded number of probes in
// flight. When ApplyStatus is set, changed statuses are written back.
func (j *RefreshJob) HealthSweep(ctx context.Context) *SweepResult {
	startTime := time.Now()
	services := j.store.Services()
	result := &SweepResult{StartTime: startTime, Total: len(services)}

	if j.prober == nil {
		result.Skipped = len(services)
		result.EndTime = time.Now()
		return result
	}

	j.logger.Info().
		Int("services", len(services)).
		Int("concurrency", j.config.Concurrency).
		Msg("starting health sweep")

	jobs := make(chan dashboard.Service, len(services))
	results := make(chan probeResult, len(services))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.probeWorker(ctx, jobs, results)
		}()
	}

	for _, svc := range services {
		jobs <- svc
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	for pr := range results {
		switch {
		case pr.skipped:
			result.Skipped++
		case pr.err != nil:
			result.Failed++
			result.Errors = append(result.Errors, SweepError{ServiceID: pr.svc.ID, Error: pr.err.Error()})
		default:
			result.Succeeded++
			if j.applyStatus(pr.svc, pr.check.Status) {
				result.StatusChanges++
			}
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)
	j.recordSweep(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Int("status_changes", result.StatusChanges).
		Msg("health sweep completed")

	return result
}

func (j *RefreshJob) probeWorker(ctx context.Context, jobs <-chan dashboard.Service, results chan<- probeResult) {
	for svc := range jobs {
		if ctx.Err() != nil {
			results <- probeResult{svc: svc, err: ctx.Err()}
			continue
		}

		probeCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
		check, err := j.prober.Check(probeCtx, svc)
		cancel()

		if errors.Is(err, probe.ErrNoHealthCheckURL) {
			results <- probeResult{svc: svc, skipped: true}
			continue
		}
		results <- probeResult{svc: svc, check: check, err: err}
	}
}

func (j *RefreshJob) applyStatus(svc dashboard.Service, status dashboard.Status) bool {
	if !j.config.ApplyStatus || svc.Status == status {
		return false
	}
	if _, err := j.store.UpdateService(svc.ID, dashboard.ServicePatch{Status: &status}); err != nil {
		j.logger.Warn().Err(err).Str("service_id", svc.ID).Msg("failed to apply probe status")
		return false
	}
	j.logger.Info().
		Str("service_id", svc.ID).
		Str("from", string(svc.Status)).
		Str("to", string(status)).
		Msg("service status changed")
	return true
}

func (j *RefreshJob) recordSweep(result *SweepResult) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.stats.HealthSweeps++
	j.stats.ProbesSucceeded += int64(result.Succeeded)
	j.stats.ProbesFailed += int64(result.Failed)
	j.stats.ProbesSkipped += int64(result.Skipped)
	j.stats.StatusChanges += int64(result.StatusChanges)
	j.stats.LastSweepAt = result.EndTime
	j.stats.LastSweepDuration = result.Duration
}

// Stats returns a copy of the current statistics.
func (j *RefreshJob) Stats() RefreshStats {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.stats
}

// StatsSnapshot returns the statistics as a map for logging.
func (j *RefreshJob) StatsSnapshot() map[string]interface{} {
	s := j.Stats()
	return map[string]interface{}{
		"refreshes":           s.Refreshes,
		"skipped_refreshes":   s.SkippedRefreshes,
		"services_updated":    s.ServicesUpdated,
		"health_sweeps":       s.HealthSweeps,
		"probes_succeeded":    s.ProbesSucceeded,
		"probes_failed":       s.ProbesFailed,
		"probes_skipped":      s.ProbesSkipped,
		"status_changes":      s.StatusChanges,
		"last_refresh_at":     s.LastRefreshAt,
		"last_sweep_duration": s.LastSweepDuration.String(),
	}
}
