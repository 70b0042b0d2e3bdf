package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pulseboard/pulseboard/internal/dashboard"
	"github.com/pulseboard/pulseboard/internal/resilience"
)

// Doer executes HTTP requests. *resilience.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPProberConfig holds configuration for an HTTPProber.
type HTTPProberConfig struct {
	Client Doer
	Logger zerolog.Logger
	// SlowThreshold marks a 2xx response as warning. Default: 1 second.
	SlowThreshold time.Duration
	Now           func() time.Time
}

// HTTPProber probes a service's health check URL.
type HTTPProber struct {
	client Doer
	log    zerolog.Logger
	slow   time.Duration
	now    func() time.Time

	mu      sync.Mutex
	history map[string]*uptime
}

type uptime struct {
	checks int
	ok     int
}

// NewHTTPProber creates a new HTTP prober.
func NewHTTPProber(cfg HTTPProberConfig) *HTTPProber {
	slow := cfg.SlowThreshold
	if slow <= 0 {
		slow = time.Second
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &HTTPProber{
		client:  cfg.Client,
		log:     cfg.Logger,
		slow:    slow,
		now:     now,
		history: make(map[string]*uptime),
	}
}

// Check issues a GET to the service's health check URL. A fast 2xx is healthy,
// a slow 2xx or a 4xx is a warning, and a 5xx, transport error or open circuit
// is critical. Only a missing or malformed URL returns an error.
func (p *HTTPProber) Check(ctx context.Context, svc dashboard.Service) (*HealthCheck, error) {
	if svc.HealthCheckURL == "" {
		return nil, ErrNoHealthCheckURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, svc.HealthCheckURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build health check request: %w", err)
	}
	req.Header.Set("User-Agent", "pulseboard-probe")

	start := p.now()
	resp, err := p.client.Do(req)
	elapsed := p.now().Sub(start)

	check := &HealthCheck{
		ServiceID:   svc.ID,
		LastChecked: p.now(),
		Details: Details{
			ResponseTime: int(elapsed.Milliseconds()),
		},
	}

	switch {
	case err != nil:
		check.Status = dashboard.StatusCritical
		check.Details.Error = err.Error()
		if errors.Is(err, resilience.ErrCircuitOpen) {
			check.Details.Error = "circuit open"
		}
	default:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		_ = resp.Body.Close()
		check.Details.StatusCode = resp.StatusCode
		check.Status = p.classify(resp.StatusCode, elapsed)
	}

	check.Details.Uptime = p.recordUptime(svc.ID, check.Status != dashboard.StatusCritical)

	p.log.Debug().
		Str("service_id", svc.ID).
		Str("status", string(check.Status)).
		Int("status_code", check.Details.StatusCode).
		Dur("elapsed", elapsed).
		Msg("health check completed")

	return check, nil
}

func (p *HTTPProber) classify(code int, elapsed time.Duration) dashboard.Status {
	switch {
	case code >= 500:
		return dashboard.StatusCritical
	case code >= 400:
		return dashboard.StatusWarning
	case code >= 200 && code < 300 && elapsed >= p.slow:
		return dashboard.StatusWarning
	case code >= 200 && code < 300:
		return dashboard.StatusHealthy
	}
	return dashboard.StatusWarning
}

// recordUptime returns the share of successful checks for the service as a
// percentage.
func (p *HTTPProber) recordUptime(id string, ok bool) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	u, found := p.history[id]
	if !found {
		u = &uptime{}
		p.history[id] = u
	}
	u.checks++
	if ok {
		u.ok++
	}
	return u.ok * 100 / u.checks
}

var _ Prober = (*HTTPProber)(nil)
