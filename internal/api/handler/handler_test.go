package handler_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/pulseboard/internal/api/handler"
	"github.com/pulseboard/pulseboard/internal/api/models"
	"github.com/pulseboard/pulseboard/internal/dashboard"
	"github.com/pulseboard/pulseboard/internal/hostinfo"
	"github.com/pulseboard/pulseboard/internal/mockdata"
	"github.com/pulseboard/pulseboard/internal/probe"
	"github.com/pulseboard/pulseboard/internal/syshealth"
)

var epoch = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

type proberFunc func(ctx context.Context, svc dashboard.Service) (*probe.HealthCheck, error)

func (f proberFunc) Check(ctx context.Context, svc dashboard.Service) (*probe.HealthCheck, error) {
	return f(ctx, svc)
}

func newGenerator() *mockdata.Generator {
	return mockdata.NewGenerator(mockdata.Config{Seed: 42, Now: func() time.Time { return epoch }})
}

func newDemoStore(t *testing.T) *dashboard.Store {
	t.Helper()
	store := dashboard.NewStore(dashboard.StoreConfig{
		Demo: newGenerator(),
		Now:  func() time.Time { return epoch },
	})
	store.InitializeDemoData()
	return store
}

// serve routes a single request through a chi router so URL params resolve.
func serve(method, pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestServicesHandler_List(t *testing.T) {
	h := handler.NewServicesHandler(newDemoStore(t), newGenerator(), probe.NewMockProber(newGenerator()))

	t.Run("filters and sorts", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/services?environment=production&sort=requests&order=desc", http.NoBody)
		rec := serve(http.MethodGet, "/api/services", h.ListServices, req)

		require.Equal(t, http.StatusOK, rec.Code)
		services := decode[[]dashboard.Service](t, rec)
		require.NotEmpty(t, services)
		for i, s := range services {
			assert.Equal(t, dashboard.EnvironmentProduction, s.Environment)
			if i > 0 {
				assert.GreaterOrEqual(t, services[i-1].Metrics.RequestsPerMinute, s.Metrics.RequestsPerMinute)
			}
		}
	})

	t.Run("rejects unknown sort key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/services?sort=color&order=sideways", http.NoBody)
		rec := serve(http.MethodGet, "/api/services", h.ListServices, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		problem := decode[models.Problem](t, rec)
		require.Len(t, problem.Errors, 2)
		assert.Equal(t, "sort", problem.Errors[0].Field)
		assert.Equal(t, "order", problem.Errors[1].Field)
	})
}

func TestServicesHandler_Create(t *testing.T) {
	store := dashboard.NewStore(dashboard.StoreConfig{})
	h := handler.NewServicesHandler(store, newGenerator(), nil)

	body := `{"id":"search","name":"Search","owner":"Discovery"}`
	rec := serve(http.MethodPost, "/api/services", h.CreateService, jsonRequest(http.MethodPost, "/api/services", body))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/api/services/search", rec.Header().Get("Location"))
	created := decode[dashboard.Service](t, rec)
	assert.Equal(t, dashboard.StatusHealthy, created.Status)
	assert.Equal(t, dashboard.EnvironmentDevelopment, created.Environment)
	assert.NotNil(t, created.Dependencies)

	rec = serve(http.MethodPost, "/api/services", h.CreateService, jsonRequest(http.MethodPost, "/api/services", body))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(http.MethodPost, "/api/services", h.CreateService, jsonRequest(http.MethodPost, "/api/services", `{"status":"purple"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	problem := decode[models.Problem](t, rec)
	assert.Len(t, problem.Errors, 3)

	rec = serve(http.MethodPost, "/api/services", h.CreateService, jsonRequest(http.MethodPost, "/api/services", `{`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Len(t, store.Services(), 1)
}

func TestServicesHandler_GetPatchDelete(t *testing.T) {
	store := newDemoStore(t)
	h := handler.NewServicesHandler(store, newGenerator(), nil)
	const pattern = "/api/services/{serviceId}"

	rec := serve(http.MethodGet, pattern, h.GetService, httptest.NewRequest(http.MethodGet, "/api/services/auth-service", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Authentication Service", decode[dashboard.Service](t, rec).Name)

	rec = serve(http.MethodGet, pattern, h.GetService, httptest.NewRequest(http.MethodGet, "/api/services/nope", http.NoBody))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(http.MethodPatch, pattern, h.UpdateService, jsonRequest(http.MethodPatch, "/api/services/auth-service", `{"status":"critical","version":"2.2.0"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[dashboard.Service](t, rec)
	assert.Equal(t, dashboard.StatusCritical, updated.Status)
	assert.Equal(t, "2.2.0", updated.Version)
	assert.Equal(t, "Platform Team", updated.Owner)

	rec = serve(http.MethodPatch, pattern, h.UpdateService, jsonRequest(http.MethodPatch, "/api/services/auth-service", `{"status":"purple"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(http.MethodPatch, pattern, h.UpdateService, jsonRequest(http.MethodPatch, "/api/services/nope", `{"version":"1"}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(http.MethodDelete, pattern, h.DeleteService, httptest.NewRequest(http.MethodDelete, "/api/services/auth-service", http.NoBody))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(http.MethodDelete, pattern, h.DeleteService, httptest.NewRequest(http.MethodDelete, "/api/services/auth-service", http.NoBody))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServicesHandler_Metrics(t *testing.T) {
	h := handler.NewServicesHandler(newDemoStore(t), newGenerator(), nil)
	const pattern = "/api/services/{serviceId}/metrics"

	tests := []struct {
		query  string
		points int
	}{
		{"?range=1h", 2},
		{"?range=7d", 169},
		{"", 25},
		{"?range=bogus", 25},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/services/auth-service/metrics"+tt.query, http.NoBody)
			rec := serve(http.MethodGet, pattern, h.GetServiceMetrics, req)

			require.Equal(t, http.StatusOK, rec.Code)
			bundle := decode[dashboard.MetricsBundle](t, rec)
			assert.Len(t, bundle.CPU, tt.points)
			assert.Len(t, bundle.Disk, tt.points)
		})
	}

	rec := serve(http.MethodGet, pattern, h.GetServiceMetrics, httptest.NewRequest(http.MethodGet, "/api/services/nope/metrics", http.NoBody))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServicesHandler_CheckHealth(t *testing.T) {
	store := newDemoStore(t)
	const pattern = "/api/services/{serviceId}/health"

	t.Run("returns the probe result", func(t *testing.T) {
		h := handler.NewServicesHandler(store, newGenerator(), proberFunc(func(_ context.Context, svc dashboard.Service) (*probe.HealthCheck, error) {
			return &probe.HealthCheck{ServiceID: svc.ID, Status: dashboard.StatusWarning, LastChecked: epoch}, nil
		}))

		rec := serve(http.MethodPost, pattern, h.CheckServiceHealth, httptest.NewRequest(http.MethodPost, "/api/services/auth-service/health", http.NoBody))
		require.Equal(t, http.StatusOK, rec.Code)
		check := decode[probe.HealthCheck](t, rec)
		assert.Equal(t, "auth-service", check.ServiceID)
		assert.Equal(t, dashboard.StatusWarning, check.Status)
	})

	t.Run("missing health check url is a bad request", func(t *testing.T) {
		h := handler.NewServicesHandler(store, newGenerator(), proberFunc(func(context.Context, dashboard.Service) (*probe.HealthCheck, error) {
			return nil, probe.ErrNoHealthCheckURL
		}))

		rec := serve(http.MethodPost, pattern, h.CheckServiceHealth, httptest.NewRequest(http.MethodPost, "/api/services/auth-service/health", http.NoBody))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unexpected errors are hidden", func(t *testing.T) {
		h := handler.NewServicesHandler(store, newGenerator(), proberFunc(func(context.Context, dashboard.Service) (*probe.HealthCheck, error) {
			return nil, errors.New("dial tcp: secret-host:5432")
		}))

		rec := serve(http.MethodPost, pattern, h.CheckServiceHealth, httptest.NewRequest(http.MethodPost, "/api/services/auth-service/health", http.NoBody))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret-host")
	})
}

func TestMetricsHandler(t *testing.T) {
	store := dashboard.NewStore(dashboard.StoreConfig{})
	h := handler.NewMetricsHandler(store, newGenerator())

	tests := []struct {
		query  string
		points int
	}{
		{"?hours=3", 4},
		{"?hours=0", 1},
		{"?hours=abc", 25},
		{"?hours=-5", 25},
		{"", 25},
	}
	for _, tt := range tests {
		t.Run("generated"+tt.query, func(t *testing.T) {
			rec := serve(http.MethodGet, "/api/metrics", h.GetMetrics, httptest.NewRequest(http.MethodGet, "/api/metrics"+tt.query, http.NoBody))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Len(t, decode[dashboard.MetricsBundle](t, rec).Network, tt.points)
		})
	}

	t.Run("live append and replace", func(t *testing.T) {
		body := `{"cpu":[{"timestamp":"2024-01-15T12:00:00Z","value":42}]}`
		rec := serve(http.MethodPost, "/api/metrics/live", h.AppendLiveMetrics, jsonRequest(http.MethodPost, "/api/metrics/live", body))
		require.Equal(t, http.StatusOK, rec.Code)
		rec = serve(http.MethodPost, "/api/metrics/live", h.AppendLiveMetrics, jsonRequest(http.MethodPost, "/api/metrics/live", body))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[dashboard.MetricsBundle](t, rec).CPU, 2)

		rec = serve(http.MethodPut, "/api/metrics/live", h.ReplaceLiveMetrics, jsonRequest(http.MethodPut, "/api/metrics/live", body))
		require.Equal(t, http.StatusOK, rec.Code)

		rec = serve(http.MethodGet, "/api/metrics/live", h.GetLiveMetrics, httptest.NewRequest(http.MethodGet, "/api/metrics/live", http.NoBody))
		live := decode[dashboard.MetricsBundle](t, rec)
		require.Len(t, live.CPU, 1)
		assert.Equal(t, float64(42), live.CPU[0].Value)
	})
}

func TestAlertsHandler(t *testing.T) {
	store := dashboard.NewStore(dashboard.StoreConfig{Now: func() time.Time { return epoch }})
	h := handler.NewAlertsHandler(store)

	rec := serve(http.MethodPost, "/api/alerts", h.CreateAlert, jsonRequest(http.MethodPost, "/api/alerts", `{"type":"info","title":""}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, decode[models.Problem](t, rec).Errors, 2)

	rec = serve(http.MethodPost, "/api/alerts", h.CreateAlert, jsonRequest(http.MethodPost, "/api/alerts", `{"type":"critical","title":"Disk full","serviceId":"db"}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[dashboard.Alert](t, rec)
	assert.Equal(t, epoch.UnixMilli(), created.ID)
	assert.Equal(t, "/api/alerts/"+jsonNumber(created.ID), rec.Header().Get("Location"))

	ackPath := "/api/alerts/" + jsonNumber(created.ID) + "/ack"
	rec = serve(http.MethodPost, "/api/alerts/{alertId}/ack", h.AcknowledgeAlert, httptest.NewRequest(http.MethodPost, ackPath, http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[dashboard.Alert](t, rec).Acknowledged)

	rec = serve(http.MethodDelete, "/api/alerts/{alertId}", h.DeleteAlert, httptest.NewRequest(http.MethodDelete, "/api/alerts/not-a-number", http.NoBody))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(http.MethodDelete, "/api/alerts/{alertId}", h.DeleteAlert, httptest.NewRequest(http.MethodDelete, "/api/alerts/7", http.NoBody))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(http.MethodDelete, "/api/alerts/{alertId}", h.DeleteAlert, httptest.NewRequest(http.MethodDelete, "/api/alerts/"+jsonNumber(created.ID), http.NoBody))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, store.Alerts())

	store.AddAlert(dashboard.NewAlert{Type: dashboard.AlertWarning, Title: "a"})
	rec = serve(http.MethodDelete, "/api/alerts", h.ClearAlerts, httptest.NewRequest(http.MethodDelete, "/api/alerts", http.NoBody))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(http.MethodGet, "/api/alerts", h.ListAlerts, httptest.NewRequest(http.MethodGet, "/api/alerts", http.NoBody))
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestAlertsHandler_ListOldestFirst(t *testing.T) {
	store := dashboard.NewStore(dashboard.StoreConfig{})
	h := handler.NewAlertsHandler(store)
	for _, title := range []string{"first", "second", "third"} {
		store.AddAlert(dashboard.NewAlert{Type: dashboard.AlertWarning, Title: title})
	}

	rec := serve(http.MethodGet, "/api/alerts", h.ListAlerts, httptest.NewRequest(http.MethodGet, "/api/alerts", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	alerts := decode[[]dashboard.Alert](t, rec)
	require.Len(t, alerts, 3)
	assert.Equal(t, "first", alerts[0].Title)
	assert.Equal(t, "third", alerts[2].Title)
}

func jsonNumber(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestSettingsHandler(t *testing.T) {
	store := dashboard.NewStore(dashboard.StoreConfig{})
	h := handler.NewSettingsHandler(store)

	rec := serve(http.MethodPatch, "/api/settings", h.UpdateSettings, jsonRequest(http.MethodPatch, "/api/settings", `{"theme":"dark"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	settings := decode[dashboard.Settings](t, rec)
	assert.Equal(t, dashboard.ThemeDark, settings.Theme)
	assert.Equal(t, 30, settings.RefreshInterval)

	rec = serve(http.MethodPatch, "/api/settings", h.UpdateSettings, jsonRequest(http.MethodPatch, "/api/settings", `{"theme":"sepia"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(http.MethodPost, "/api/ui/sidebar/toggle", h.ToggleSidebar, httptest.NewRequest(http.MethodPost, "/api/ui/sidebar/toggle", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[models.SidebarState](t, rec).Collapsed)

	rec = serve(http.MethodPut, "/api/ui/sidebar", h.SetSidebar, jsonRequest(http.MethodPut, "/api/ui/sidebar", `{"sidebarCollapsed":false}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[models.SidebarState](t, rec).Collapsed)

	rec = serve(http.MethodGet, "/api/preferences", h.GetPreferences, httptest.NewRequest(http.MethodGet, "/api/preferences", http.NoBody))
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Len(t, raw, 2)
	assert.Contains(t, raw, "settings")
	assert.Contains(t, raw, "sidebarCollapsed")
}

func TestDashboardHandler(t *testing.T) {
	store := newDemoStore(t)
	h := handler.NewDashboardHandler(store)

	rec := serve(http.MethodGet, "/api/dashboard/top", h.GetTopServices, httptest.NewRequest(http.MethodGet, "/api/dashboard/top?n=2", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]dashboard.Service](t, rec), 2)

	rec = serve(http.MethodGet, "/api/dashboard/top", h.GetTopServices, httptest.NewRequest(http.MethodGet, "/api/dashboard/top", http.NoBody))
	assert.Len(t, decode[[]dashboard.Service](t, rec), 5)

	rec = serve(http.MethodGet, "/api/dashboard/top", h.GetTopServices, httptest.NewRequest(http.MethodGet, "/api/dashboard/top?n=lots", http.NoBody))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(http.MethodGet, "/api/dashboard/status-distribution", h.GetStatusDistribution, httptest.NewRequest(http.MethodGet, "/api/dashboard/status-distribution", http.NoBody))
	dist := decode[[]dashboard.StatusCount](t, rec)
	require.Len(t, dist, 3)
	assert.Equal(t, dashboard.StatusHealthy, dist[0].Status)

	rec = serve(http.MethodGet, "/api/dashboard/summary", h.GetSummary, httptest.NewRequest(http.MethodGet, "/api/dashboard/summary", http.NoBody))
	summary := decode[dashboard.Summary](t, rec)
	assert.Equal(t, 5, summary.Total)

	require.NoError(t, store.RemoveService("auth-service"))
	rec = serve(http.MethodPost, "/api/demo", h.LoadDemoData, httptest.NewRequest(http.MethodPost, "/api/demo", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[models.DemoResult](t, rec)
	assert.Equal(t, 5, result.Services)
	assert.Equal(t, 2, result.Alerts)
	assert.Equal(t, 4*(mockdata.DemoHours+1), result.Points)
}

func TestExportHandler(t *testing.T) {
	store := newDemoStore(t)
	h := handler.NewExportHandler(store)

	rec := serve(http.MethodGet, "/api/export/services.csv", h.ExportServices,
		httptest.NewRequest(http.MethodGet, "/api/export/services.csv?q=payment", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "services-export.csv")

	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Name", "Status", "Owner", "Environment", "Version", "Requests/min", "Error Rate", "Response Time"}, rows[0])
	assert.True(t, strings.HasSuffix(rows[1][6], "%"))
	assert.True(t, strings.HasSuffix(rows[1][7], "ms"))

	rec = serve(http.MethodGet, "/api/export/metrics.csv", h.ExportMetrics,
		httptest.NewRequest(http.MethodGet, "/api/export/metrics.csv?metric=disk", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	rows, err = csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"Timestamp", "Value"}, rows[0])
	assert.Len(t, rows, mockdata.DemoHours+2)

	rec = serve(http.MethodGet, "/api/export/metrics.csv", h.ExportMetrics,
		httptest.NewRequest(http.MethodGet, "/api/export/metrics.csv?metric=gpu", http.NoBody))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStaticHandler(t *testing.T) {
	files := fstest.MapFS{
		"index.html":    {Data: []byte("<html>app</html>")},
		"assets/app.js": {Data: []byte("console.log(1)")},
	}
	h := handler.NewStaticHandler(files)

	tests := []struct {
		path string
		body string
	}{
		{"/", "<html>app</html>"},
		{"/assets/app.js", "console.log(1)"},
		{"/services/auth-service", "<html>app</html>"},
		{"/assets", "<html>app</html>"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, http.NoBody))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}

	rec := httptest.NewRecorder()
	handler.NewStaticHandler(fstest.MapFS{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOpsHandler(t *testing.T) {
	healthy := handler.DependencyCheck{Name: "preferences", Ping: func(context.Context) error { return nil }}
	broken := handler.DependencyCheck{Name: "redis", Ping: func(context.Context) error { return errors.New("connection refused") }}

	rec := httptest.NewRecorder()
	handler.NewOpsHandler("1.0.0", "now", healthy).ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/ops/ready", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.NewOpsHandler("1.0.0", "now", healthy, broken).ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/ops/ready", http.NoBody))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	ready := decode[models.Readiness](t, rec)
	assert.Equal(t, models.HealthStatusFail, ready.Status)
	require.Len(t, ready.Checks, 2)
	assert.Equal(t, "connection refused", ready.Checks[1].Detail)

	rec = httptest.NewRecorder()
	handler.NewOpsHandler("1.0.0", "now").HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/ops/health", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"1.0.0"`)
}

type staticInfo struct {
	info *hostinfo.Info
	err  error
}

func (s staticInfo) Collect(context.Context) (*hostinfo.Info, error) { return s.info, s.err }

func TestSystemHandler(t *testing.T) {
	monitor := syshealth.NewMonitor(newGenerator())

	h := handler.NewSystemHandler(handler.SystemHandlerConfig{
		Info:   staticInfo{info: &hostinfo.Info{Version: "1.0.0", Uptime: "1 days, 2 hours, 3 minutes"}},
		Health: monitor,
		Logger: zerolog.Nop(),
	})

	rec := httptest.NewRecorder()
	h.GetSystemInfo(rec, httptest.NewRequest(http.MethodGet, "/api/system", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1.0.0", decode[hostinfo.Info](t, rec).Version)

	rec = httptest.NewRecorder()
	h.GetSystemHealth(rec, httptest.NewRequest(http.MethodGet, "/api/system/health", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[syshealth.Snapshot](t, rec)
	assert.Len(t, snap.Readings, 4)

	rec = httptest.NewRecorder()
	h.GetProbeTargets(rec, httptest.NewRequest(http.MethodGet, "/api/system/probes", http.NoBody))
	assert.Equal(t, "[]\n", rec.Body.String())

	failing := handler.NewSystemHandler(handler.SystemHandlerConfig{
		Info:   staticInfo{err: errors.New("no /proc")},
		Health: monitor,
		Logger: zerolog.Nop(),
	})
	rec = httptest.NewRecorder()
	failing.GetSystemInfo(rec, httptest.NewRequest(http.MethodGet, "/api/system", http.NoBody))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
