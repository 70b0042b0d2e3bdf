package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/pulseboard/internal/api"
	"github.com/pulseboard/pulseboard/internal/api/handler"
	"github.com/pulseboard/pulseboard/internal/api/middleware"
	"github.com/pulseboard/pulseboard/internal/api/models"
	"github.com/pulseboard/pulseboard/internal/auth"
	"github.com/pulseboard/pulseboard/internal/dashboard"
	"github.com/pulseboard/pulseboard/internal/exporter"
	"github.com/pulseboard/pulseboard/internal/hostinfo"
	"github.com/pulseboard/pulseboard/internal/mockdata"
	"github.com/pulseboard/pulseboard/internal/probe"
	"github.com/pulseboard/pulseboard/internal/syshealth"
)

// testJWTService creates a JWT service for generating test tokens.
func testJWTService() *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "pulseboard",
		Audience:   "pulseboard-api",
	})
}

type noHost struct{}

func (noHost) Collect(context.Context) (*hostinfo.Info, error) {
	return &hostinfo.Info{Version: "test"}, nil
}

type routerOption func(*api.RouterConfig)

func withAuth(cfg *api.RouterConfig) {
	cfg.TokenValidator = testJWTService()
}

func newTestRouter(t *testing.T, opts ...routerOption) (http.Handler, *dashboard.Store) {
	t.Helper()

	gen := mockdata.NewGenerator(mockdata.Config{Seed: 7})
	store := dashboard.NewStore(dashboard.StoreConfig{Demo: gen})
	store.InitializeDemoData()

	cfg := api.RouterConfig{
		Version:           "test",
		BuildTime:         "2024-01-01T00:00:00Z",
		Logger:            zerolog.New(io.Discard),
		Store:             store,
		Generator:         gen,
		Prober:            probe.NewMockProber(gen),
		HostInfo:          noHost{},
		SystemHealth:      syshealth.NewMonitor(gen),
		PrometheusHandler: exporter.New(store).Handler(),
		StaticFiles: fstest.MapFS{
			"index.html": {Data: []byte("<html>pulseboard</html>")},
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return api.NewRouter(cfg), store
}

func do(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_HealthCheck(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, httptest.NewRequest(http.MethodGet, "/ops/health", http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
}

func TestRouter_ReadinessCheck(t *testing.T) {
	router, _ := newTestRouter(t, func(cfg *api.RouterConfig) {
		cfg.ReadinessChecks = []handler.DependencyCheck{
			{Name: "preferences", Ping: func(context.Context) error { return errors.New("redis: connection refused") }},
		}
	})

	w := do(router, httptest.NewRequest(http.MethodGet, "/ops/ready", http.NoBody))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var ready models.Readiness
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ready))
	assert.Equal(t, models.HealthStatusFail, ready.Status)
}

func TestRouter_ReadsAreOpenWhenAuthEnabled(t *testing.T) {
	router, _ := newTestRouter(t, withAuth)

	for _, path := range []string{
		"/api/services",
		"/api/services/auth-service",
		"/api/metrics?hours=2",
		"/api/alerts",
		"/api/settings",
		"/api/dashboard/summary",
		"/api/system/health",
	} {
		t.Run(path, func(t *testing.T) {
			w := do(router, httptest.NewRequest(http.MethodGet, path, http.NoBody))
			assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		})
	}
}

func TestRouter_MutationsRequireToken(t *testing.T) {
	router, store := newTestRouter(t, withAuth)

	req := httptest.NewRequest(http.MethodPost, "/api/alerts", strings.NewReader(`{"type":"warning","title":"Queue depth"}`))
	req.Header.Set("Content-Type", "application/json")
	w := do(router, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Len(t, store.Alerts(), 2)

	token, _, err := testJWTService().GenerateAccessToken("ops", "", time.Hour)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodPost, "/api/alerts", strings.NewReader(`{"type":"warning","title":"Queue depth"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w = do(router, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, store.Alerts(), 3)
}

func TestRouter_MutationsOpenWhenAuthDisabled(t *testing.T) {
	router, store := newTestRouter(t)

	w := do(router, httptest.NewRequest(http.MethodDelete, "/api/services/auth-service", http.NoBody))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Len(t, store.Services(), 4)
}

func TestRouter_RejectsNonJSONBody(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPatch, "/api/settings", strings.NewReader("theme=dark"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := do(router, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRouter_ValidationError(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, httptest.NewRequest(http.MethodGet, "/api/services?sort=colour", http.NoBody))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var problem models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, models.ProblemTypeValidation, problem.Type)
	assert.Equal(t, "/api/services", problem.Instance)
	assert.NotEmpty(t, problem.TraceID)
}

func TestRouter_ProbeRateLimit(t *testing.T) {
	router, _ := newTestRouter(t)

	var last *httptest.ResponseRecorder
	for i := 0; i <= middleware.ProbeRateLimit.RequestLimit; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/services/auth-service/health", http.NoBody)
		req.RemoteAddr = "203.0.113.9:4000"
		last = do(router, req)
	}

	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "60", last.Header().Get("Retry-After"))
}

func TestRouter_CORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/services", http.NoBody)
	req.Header.Set("Origin", "https://ops.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := do(router, req)

	assert.Less(t, w.Code, 300)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_PrometheusMetrics(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `pulseboard_services{status="healthy"}`)
}

func TestRouter_CSVExport(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, httptest.NewRequest(http.MethodGet, "/api/export/services.csv?status=critical", http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "Name,Status,Owner"))
}

func TestRouter_StaticFallback(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, httptest.NewRequest(http.MethodGet, "/services/payment-service", http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<html>pulseboard</html>", w.Body.String())
	assert.Equal(t, middleware.AppContentSecurityPolicy, w.Header().Get("Content-Security-Policy"))
}

func TestRouter_RequestID_Preserved(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/ops/health", http.NoBody)
	req.Header.Set("X-Request-Id", "my-custom-request-id")
	w := do(router, req)

	assert.Equal(t, "my-custom-request-id", w.Header().Get("X-Request-Id"))
}

func TestRouter_UnknownAPIRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, httptest.NewRequest(http.MethodGet, "/api/nonexistent", http.NoBody))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestRouter_RequireTLSExemptsProbes(t *testing.T) {
	router, _ := newTestRouter(t, func(cfg *api.RouterConfig) { cfg.RequireTLS = true })

	for path, want := range map[string]int{
		"/ops/health":   http.StatusOK,
		"/ops/ready":    http.StatusOK,
		"/api/services": http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
		req.Header.Set("X-Forwarded-Proto", "http")
		assert.Equal(t, want, do(router, req).Code, path)
	}
}

func TestRouter_ProbeTargetsWithoutHTTPProber(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, httptest.NewRequest(http.MethodGet, "/api/system/probes", http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)
}
