package models

// Health is the body of GET /ops/health.
type Health struct {
	Status  HealthStatus   `json:"status"`
	Time    Timestamp      `json:"time"`
	Details map[string]any `json:"details,omitempty"`
}

// Readiness is the body of GET /ops/ready, one entry per dependency check.
type Readiness struct {
	Status HealthStatus       `json:"status"`
	Time   Timestamp          `json:"time"`
	Checks []DependencyStatus `json:"checks"`
}

type DependencyStatus struct {
	Name   string       `json:"name"`
	Status HealthStatus `json:"status"`
	Detail string       `json:"detail,omitempty"`
}
