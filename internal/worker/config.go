// Package worker provides background jobs that keep the dashboard moving:
// periodic metric refreshes, health sweeps and Pub/Sub job intake.
package worker

import (
	"time"
)

// Job types accepted over Pub/Sub.
const (
	JobMetricsRefresh = "metrics_refresh"
	JobDemoReset      = "demo_reset"
	JobHealthCheck    = "health_check"
)

// RefreshConfig holds configuration for the refresh job.
type RefreshConfig struct {
	// Concurrency is the number of services probed at once during a
	// health sweep.
	// Default: 3
	Concurrency int

	// Timeout bounds each probe of a health sweep.
	// Default: 10 seconds
	Timeout time.Duration

	// ApplyStatus writes probe results back onto the services. Enabled in
	// DefaultRefreshConfig.
	ApplyStatus bool

	// MinInterval is the floor applied to the refreshInterval setting.
	// Default: 1 second
	MinInterval time.Duration

	// IdlePoll is how often Run re-reads the settings while auto refresh is
	// switched off.
	// Default: 5 seconds
	IdlePoll time.Duration
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Concurrency: 3,
		Timeout:     10 * time.Second,
		ApplyStatus: true,
		MinInterval: time.Second,
		IdlePoll:    5 * time.Second,
	}
}

func (c RefreshConfig) withDefaults() RefreshConfig {
	d := DefaultRefreshConfig()
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.MinInterval <= 0 {
		c.MinInterval = d.MinInterval
	}
	if c.IdlePoll <= 0 {
		c.IdlePoll = d.IdlePoll
	}
	return c
}

// interval converts the refreshInterval setting (seconds) to a duration.
func (c RefreshConfig) interval(seconds int) time.Duration {
	d := time.Duration(seconds) * time.Second
	if d < c.MinInterval {
		return c.MinInterval
	}
	return d
}
