package mockdata

import (
	"time"

	"github.com/pulseboard/pulseboard/internal/dashboard"
)

func deployed(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

// DemoServices returns the five demo services.
func (g *Generator) DemoServices() []dashboard.Service {
	return []dashboard.Service{
		{
			ID:             "auth-service",
			Name:           "Authentication Service",
			Description:    "Handles user authentication and authorization",
			Status:         dashboard.StatusHealthy,
			Owner:          "Platform Team",
			URL:            "https://auth.internal.company.com",
			HealthCheckURL: "https://auth.internal.company.com/health",
			LastDeployed:   deployed("2024-01-15T10:30:00Z"),
			Version:        "2.1.3",
			Environment:    dashboard.EnvironmentProduction,
			Dependencies:   []string{"user-service", "database"},
			Metrics: dashboard.ServiceMetrics{
				CPU: 45, Memory: 60, RequestsPerMinute: 1200, ErrorRate: 0.1, ResponseTime: 120,
			},
		},
		{
			ID:             "user-service",
			Name:           "User Management Service",
			Description:    "Manages user profiles and data",
			Status:         dashboard.StatusWarning,
			Owner:          "Backend Team",
			URL:            "https://user.internal.company.com",
			HealthCheckURL: "https://user.internal.company.com/health",
			LastDeployed:   deployed("2024-01-14T14:20:00Z"),
			Version:        "1.8.7",
			Environment:    dashboard.EnvironmentProduction,
			Dependencies:   []string{"database"},
			Metrics: dashboard.ServiceMetrics{
				CPU: 75, Memory: 85, RequestsPerMinute: 800, ErrorRate: 2.5, ResponseTime: 280,
			},
		},
		{
			ID:             "payment-service",
			Name:           "Payment Processing Service",
			Description:    "Handles all payment transactions",
			Status:         dashboard.StatusCritical,
			Owner:          "FinTech Team",
			URL:            "https://payment.internal.company.com",
			HealthCheckURL: "https://payment.internal.company.com/health",
			LastDeployed:   deployed("2024-01-10T09:15:00Z"),
			Version:        "3.2.1",
			Environment:    dashboard.EnvironmentProduction,
			Dependencies:   []string{"auth-service", "database", "external-payment-gateway"},
			Metrics: dashboard.ServiceMetrics{
				CPU: 95, Memory: 92, RequestsPerMinute: 50, ErrorRate: 15.2, ResponseTime: 1500,
			},
		},
		{
			ID:             "notification-service",
			Name:           "Notification Service",
			Description:    "Sends emails, SMS, and push notifications",
			Status:         dashboard.StatusHealthy,
			Owner:          "Platform Team",
			URL:            "https://notification.internal.company.com",
			HealthCheckURL: "https://notification.internal.company.com/health",
			LastDeployed:   deployed("2024-01-12T16:45:00Z"),
			Version:        "1.4.2",
			Environment:    dashboard.EnvironmentStaging,
			Dependencies:   []string{"user-service"},
			Metrics: dashboard.ServiceMetrics{
				CPU: 25, Memory: 40, RequestsPerMinute: 300, ErrorRate: 0.5, ResponseTime: 80,
			},
		},
		{
			ID:             "analytics-service",
			Name:           "Analytics Service",
			Description:    "Collects and processes application metrics",
			Status:         dashboard.StatusHealthy,
			Owner:          "Data Team",
			URL:            "https://analytics.internal.company.com",
			HealthCheckURL: "https://analytics.internal.company.com/health",
			LastDeployed:   deployed("2024-01-16T11:20:00Z"),
			Version:        "2.0.0",
			Environment:    dashboard.EnvironmentProduction,
			Dependencies:   []string{"database"},
			Metrics: dashboard.ServiceMetrics{
				CPU: 35, Memory: 55, RequestsPerMinute: 2000, ErrorRate: 0.05, ResponseTime: 60,
			},
		},
	}
}

// DemoAlerts returns the two demo alerts, stamped with the current time.
func (g *Generator) DemoAlerts() []dashboard.Alert {
	now := g.now()
	payment := "payment-service"
	user := "user-service"
	return []dashboard.Alert{
		{
			ID:        1,
			Type:      dashboard.AlertCritical,
			Title:     "Payment Service High Error Rate",
			Message:   "Error rate exceeded 10% threshold",
			Timestamp: now,
			ServiceID: &payment,
		},
		{
			ID:        2,
			Type:      dashboard.AlertWarning,
			Title:     "User Service Memory Usage High",
			Message:   "Memory usage at 85%",
			Timestamp: now,
			ServiceID: &user,
		},
	}
}

var _ dashboard.DemoSource = (*Generator)(nil)
