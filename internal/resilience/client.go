package resilience

import (
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

var (
	// ErrCircuitOpen is returned when the target's breaker rejects the call.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrMaxRetriesExceeded is returned when every attempt failed without a
	// response.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

// ServerError marks a 5xx response so it counts as a breaker failure.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return "server error: " + http.StatusText(e.StatusCode)
}

// ClientConfig holds configuration for a Client.
type ClientConfig struct {
	// Timeout bounds a single attempt. Default: 5 seconds.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries uint64

	// InitialInterval is the first backoff interval. Default: 100ms.
	InitialInterval time.Duration

	// MaxInterval caps the backoff interval. Default: 2 seconds.
	MaxInterval time.Duration

	// Breaker builds the breaker configuration for a target host. Defaults to
	// DefaultBreakerConfig.
	Breaker func(target string) BreakerConfig

	Logger zerolog.Logger
}

// Client is an HTTP client that keeps one circuit breaker per target host.
type Client struct {
	httpClient *http.Client
	cfg        ClientConfig
	log        zerolog.Logger

	mu      sync.Mutex
	targets map[string]*target
}

type target struct {
	breaker       *gobreaker.CircuitBreaker[*http.Response]
	lastSuccessAt time.Time
	lastFailureAt time.Time
	lastError     string
}

// NewClient creates a new resilient client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 2 * time.Second
	}
	if cfg.Breaker == nil {
		cfg.Breaker = DefaultBreakerConfig
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		log:        cfg.Logger,
		targets:    make(map[string]*target),
	}
}

func (c *Client) target(host string) *target {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.targets[host]
	if !ok {
		bc := c.cfg.Breaker(host)
		if bc.OnStateChange == nil {
			bc.OnStateChange = func(name string, from, to gobreaker.State) {
				c.log.Warn().
					Str("target", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("circuit breaker state changed")
			}
		}
		t = &target{breaker: NewBreaker[*http.Response](bc)} //nolint:bodyclose // type param, not response
		c.targets[host] = t
	}
	return t
}

// Do executes req through the breaker of req.URL.Host, retrying network
// errors and 5xx responses with exponential backoff. When retries run out on a
// 5xx the last response is returned without an error. The caller closes the
// response body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	t := c.target(req.URL.Host)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialInterval
	bo.MaxInterval = c.cfg.MaxInterval
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.cfg.MaxRetries), ctx)

	var lastResp *http.Response

	operation := func() error {
		resp, err := t.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // caller closes
			r, err := c.httpClient.Do(req.Clone(ctx))
			if err != nil {
				return nil, err
			}
			if r.StatusCode >= http.StatusInternalServerError {
				return r, &ServerError{StatusCode: r.StatusCode}
			}
			return r, nil
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			if resp != nil {
				if lastResp != nil {
					_ = lastResp.Body.Close()
				}
				lastResp = resp
			}
			return err
		}

		if lastResp != nil {
			_ = lastResp.Body.Close()
		}
		lastResp = resp
		return nil
	}

	err := backoff.Retry(operation, policy)
	c.record(t, err)

	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			if lastResp != nil {
				_ = lastResp.Body.Close()
			}
			return nil, ErrCircuitOpen
		}
		if lastResp != nil {
			return lastResp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Join(ErrMaxRetriesExceeded, err)
	}

	return lastResp, nil
}

func (c *Client) record(t *target, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if err == nil {
		t.lastSuccessAt = now
		return
	}
	t.lastFailureAt = now
	t.lastError = err.Error()
}

// TargetHealth is the breaker state of one target host.
type TargetHealth struct {
	Target              string     `json:"target"`
	State               string     `json:"state"`
	Requests            uint32     `json:"requests"`
	ConsecutiveFailures uint32     `json:"consecutiveFailures"`
	LastSuccessAt       *time.Time `json:"lastSuccessAt,omitempty"`
	LastFailureAt       *time.Time `json:"lastFailureAt,omitempty"`
	LastError           string     `json:"lastError,omitempty"`
}

// Healthy reports whether the breaker is closed.
func (h TargetHealth) Healthy() bool {
	return h.State == gobreaker.StateClosed.String()
}

// Targets returns the health of every target seen so far, sorted by host.
func (c *Client) Targets() []TargetHealth {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]TargetHealth, 0, len(c.targets))
	for host, t := range c.targets {
		counts := t.breaker.Counts()
		h := TargetHealth{
			Target:              host,
			State:               t.breaker.State().String(),
			Requests:            counts.Requests,
			ConsecutiveFailures: counts.ConsecutiveFailures,
			LastError:           t.lastError,
		}
		if !t.lastSuccessAt.IsZero() {
			ts := t.lastSuccessAt
			h.LastSuccessAt = &ts
		}
		if !t.lastFailureAt.IsZero() {
			ts := t.lastFailureAt
			h.LastFailureAt = &ts
		}
		out = append(out, h)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Target < out[j].Target })
	return out
}
