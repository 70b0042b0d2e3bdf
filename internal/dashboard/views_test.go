package dashboard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/pulseboard/internal/dashboard"
)

func fixture() []dashboard.Service {
	return []dashboard.Service{
		{
			ID: "auth-service", Name: "Auth Service", Description: "Handles login",
			Status: dashboard.StatusHealthy, Owner: "Platform Team", Environment: dashboard.EnvironmentProduction,
			Metrics: dashboard.ServiceMetrics{CPU: 45, Memory: 60, RequestsPerMinute: 1250, ErrorRate: 0.1, ResponseTime: 45},
		},
		{
			ID: "user-service", Name: "user service", Description: "Profiles",
			Status: dashboard.StatusWarning, Owner: "identity", Environment: dashboard.EnvironmentStaging,
			Metrics: dashboard.ServiceMetrics{CPU: 75, Memory: 85, RequestsPerMinute: 890, ErrorRate: 2.3, ResponseTime: 120},
		},
		{
			ID: "payment-service", Name: "Payment Service", Description: "Card processing",
			Status: dashboard.StatusCritical, Owner: "payments", Environment: dashboard.EnvironmentProduction,
			Metrics: dashboard.ServiceMetrics{CPU: 90, Memory: 70, RequestsPerMinute: 890, ErrorRate: 8.5, ResponseTime: 320},
		},
	}
}

func ids(services []dashboard.Service) []string {
	out := make([]string, len(services))
	for i, s := range services {
		out[i] = s.ID
	}
	return out
}

func TestFilterServices_Search(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty matches all", "", []string{"auth-service", "user-service", "payment-service"}},
		{"name case-insensitive", "PAYMENT", []string{"payment-service"}},
		{"description", "login", []string{"auth-service"}},
		{"owner", "platform", []string{"auth-service"}},
		{"no match", "zzz", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dashboard.FilterServices(fixture(), dashboard.Query{Search: tt.query})
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilterServices_StatusAndEnvironment(t *testing.T) {
	got := dashboard.FilterServices(fixture(), dashboard.Query{Status: "critical"})
	assert.Equal(t, []string{"payment-service"}, ids(got))

	got = dashboard.FilterServices(fixture(), dashboard.Query{Status: dashboard.FilterAll, Environment: "production"})
	assert.Equal(t, []string{"auth-service", "payment-service"}, ids(got))

	got = dashboard.FilterServices(fixture(), dashboard.Query{Status: "healthy", Environment: "staging"})
	assert.Empty(t, got)
}

func TestFilterServices_Sort(t *testing.T) {
	tests := []struct {
		name  string
		key   dashboard.SortKey
		order dashboard.SortOrder
		want  []string
	}{
		{"name asc lowercases", dashboard.SortName, dashboard.SortAsc, []string{"auth-service", "payment-service", "user-service"}},
		{"name desc", dashboard.SortName, dashboard.SortDesc, []string{"user-service", "payment-service", "auth-service"}},
		{"status raw", dashboard.SortStatus, dashboard.SortAsc, []string{"payment-service", "auth-service", "user-service"}},
		{"owner", dashboard.SortOwner, dashboard.SortAsc, []string{"user-service", "payment-service", "auth-service"}},
		{"requests asc stable", dashboard.SortRequests, dashboard.SortAsc, []string{"user-service", "payment-service", "auth-service"}},
		{"requests desc stable", dashboard.SortRequests, dashboard.SortDesc, []string{"auth-service", "user-service", "payment-service"}},
		{"response time", dashboard.SortResponseTime, dashboard.SortDesc, []string{"payment-service", "user-service", "auth-service"}},
		{"no key keeps order", dashboard.SortNone, dashboard.SortDesc, []string{"auth-service", "user-service", "payment-service"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dashboard.FilterServices(fixture(), dashboard.Query{SortBy: tt.key, Order: tt.order})
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilterServices_DoesNotMutateInput(t *testing.T) {
	in := fixture()
	_ = dashboard.FilterServices(in, dashboard.Query{SortBy: dashboard.SortName, Order: dashboard.SortDesc})
	assert.Equal(t, []string{"auth-service", "user-service", "payment-service"}, ids(in))
}

func TestSortKey_Valid(t *testing.T) {
	assert.True(t, dashboard.SortResponseTime.Valid())
	assert.True(t, dashboard.SortNone.Valid())
	assert.False(t, dashboard.SortKey("cpu").Valid())
}

func TestSummarize(t *testing.T) {
	services := []dashboard.Service{
		{Status: dashboard.StatusHealthy, Metrics: dashboard.ServiceMetrics{CPU: 45, Memory: 60, RequestsPerMinute: 1250, ErrorRate: 0.1, ResponseTime: 45}},
		{Status: dashboard.StatusWarning, Metrics: dashboard.ServiceMetrics{CPU: 75, Memory: 85, RequestsPerMinute: 890, ErrorRate: 2.3, ResponseTime: 120}},
	}

	sum := dashboard.Summarize(services)
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 1, sum.Healthy)
	assert.Equal(t, 1, sum.Warning)
	assert.Equal(t, 0, sum.Critical)
	assert.Equal(t, float64(2140), sum.TotalRequests)
	assert.Equal(t, float64(83), sum.AvgResponseTime) // 82.5 rounds up
	assert.InDelta(t, 1.2, sum.AvgErrorRate, 1e-9)
	assert.InDelta(t, 60, sum.AvgCPU, 1e-9)
	assert.InDelta(t, 72.5, sum.AvgMemory, 1e-9)
	assert.Equal(t, float64(50), sum.HealthyPercent)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, dashboard.Summary{}, dashboard.Summarize(nil))
}

func TestSummarize_CountsAddUp(t *testing.T) {
	sum := dashboard.Summarize(fixture())
	assert.Equal(t, sum.Total, sum.Healthy+sum.Warning+sum.Critical)
	assert.Equal(t, float64(33), sum.HealthyPercent)
}

func TestTopByRequests(t *testing.T) {
	top := dashboard.TopByRequests(fixture(), 2)
	assert.Equal(t, []string{"auth-service", "user-service"}, ids(top))

	assert.Len(t, dashboard.TopByRequests(fixture(), 10), 3)
	assert.Empty(t, dashboard.TopByRequests(fixture(), 0))
	assert.Empty(t, dashboard.TopByRequests(nil, 5))
}

func TestStatusDistribution(t *testing.T) {
	dist := dashboard.StatusDistribution(fixture()[:2])
	require.Len(t, dist, 3)
	assert.Equal(t, dashboard.StatusCount{Status: dashboard.StatusHealthy, Count: 1}, dist[0])
	assert.Equal(t, dashboard.StatusCount{Status: dashboard.StatusWarning, Count: 1}, dist[1])
	assert.Equal(t, dashboard.StatusCount{Status: dashboard.StatusCritical, Count: 0}, dist[2])

	empty := dashboard.StatusDistribution(nil)
	require.Len(t, empty, 3)
	for _, b := range empty {
		assert.Zero(t, b.Count)
	}
}
