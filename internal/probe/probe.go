// Package probe checks the health of monitored services.
package probe

import (
	"context"
	"errors"
	"time"

	"github.com/pulseboard/pulseboard/internal/dashboard"
)

// ErrNoHealthCheckURL is returned by HTTPProber for services without a
// health check URL.
var ErrNoHealthCheckURL = errors.New("service has no health check url")

// HealthCheck is the result of probing one service.
type HealthCheck struct {
	ServiceID   string           `json:"serviceId"`
	Status      dashboard.Status `json:"status"`
	LastChecked time.Time        `json:"lastChecked"`
	Details     Details          `json:"details"`
}

// Details carries the measurements behind a HealthCheck.
type Details struct {
	// Uptime is an availability percentage.
	Uptime int `json:"uptime"`
	// ResponseTime is in milliseconds.
	ResponseTime int    `json:"responseTime"`
	StatusCode   int    `json:"statusCode,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Prober checks a service's health.
type Prober interface {
	Check(ctx context.Context, svc dashboard.Service) (*HealthCheck, error)
}

// Random is the randomness MockProber draws from.
type Random interface {
	Float64() float64
	IntRange(lo, hi int) int
	Now() time.Time
}

// MockProber reports a random health status.
type MockProber struct {
	rnd Random
}

// NewMockProber creates a prober backed by rnd.
func NewMockProber(rnd Random) *MockProber {
	return &MockProber{rnd: rnd}
}

// Check returns critical with probability 0.2, otherwise warning with
// probability 0.5, otherwise healthy.
func (p *MockProber) Check(_ context.Context, svc dashboard.Service) (*HealthCheck, error) {
	status := dashboard.StatusHealthy
	switch {
	case p.rnd.Float64() > 0.8:
		status = dashboard.StatusCritical
	case p.rnd.Float64() > 0.5:
		status = dashboard.StatusWarning
	}

	return &HealthCheck{
		ServiceID:   svc.ID,
		Status:      status,
		LastChecked: p.rnd.Now(),
		Details: Details{
			Uptime:       p.rnd.IntRange(1, 99),
			ResponseTime: p.rnd.IntRange(50, 549),
		},
	}, nil
}

var _ Prober = (*MockProber)(nil)
