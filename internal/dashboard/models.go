// Package dashboard holds the dashboard state container and the derived views
// computed from it.
package dashboard

import (
	"errors"
	"time"
)

// Store errors.
var (
	ErrServiceNotFound = errors.New("service not found")
	ErrServiceExists   = errors.New("service already exists")
	ErrAlertNotFound   = errors.New("alert not found")
	ErrInvalidPatch    = errors.New("invalid patch")
)

// Status is the health of a service.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// Statuses lists every status in display order.
func Statuses() []Status {
	return []Status{StatusHealthy, StatusWarning, StatusCritical}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusHealthy, StatusWarning, StatusCritical:
		return true
	}
	return false
}

// Environment is the deployment environment of a service.
type Environment string

const (
	EnvironmentProduction  Environment = "production"
	EnvironmentStaging     Environment = "staging"
	EnvironmentDevelopment Environment = "development"
)

// Valid reports whether e is a known environment.
func (e Environment) Valid() bool {
	switch e {
	case EnvironmentProduction, EnvironmentStaging, EnvironmentDevelopment:
		return true
	}
	return false
}

// ServiceMetrics is the point-in-time gauge snapshot attached to a service.
// Percentages are not clamped.
type ServiceMetrics struct {
	CPU               float64 `json:"cpu"`
	Memory            float64 `json:"memory"`
	RequestsPerMinute float64 `json:"requestsPerMinute"`
	ErrorRate         float64 `json:"errorRate"`
	ResponseTime      float64 `json:"responseTime"`
}

// Service is one monitored service.
type Service struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Status         Status         `json:"status"`
	Owner          string         `json:"owner"`
	URL            string         `json:"url"`
	HealthCheckURL string         `json:"healthCheckUrl"`
	LastDeployed   time.Time      `json:"lastDeployed"`
	Version        string         `json:"version"`
	Environment    Environment    `json:"environment"`
	Dependencies   []string       `json:"dependencies"`
	Metrics        ServiceMetrics `json:"metrics"`
}

// ServicePatch carries the fields to merge into a service. Nil fields are left
// unchanged. Metrics replaces the whole snapshot.
type ServicePatch struct {
	Name           *string         `json:"name,omitempty"`
	Description    *string         `json:"description,omitempty"`
	Status         *Status         `json:"status,omitempty"`
	Owner          *string         `json:"owner,omitempty"`
	URL            *string         `json:"url,omitempty"`
	HealthCheckURL *string         `json:"healthCheckUrl,omitempty"`
	LastDeployed   *time.Time      `json:"lastDeployed,omitempty"`
	Version        *string         `json:"version,omitempty"`
	Environment    *Environment    `json:"environment,omitempty"`
	Dependencies   []string        `json:"dependencies,omitempty"`
	Metrics        *ServiceMetrics `json:"metrics,omitempty"`
}

// Validate checks enumerated fields of the patch.
func (p ServicePatch) Validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return errors.Join(ErrInvalidPatch, errors.New("unknown status "+string(*p.Status)))
	}
	if p.Environment != nil && !p.Environment.Valid() {
		return errors.Join(ErrInvalidPatch, errors.New("unknown environment "+string(*p.Environment)))
	}
	return nil
}

func (p ServicePatch) apply(s *Service) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.Owner != nil {
		s.Owner = *p.Owner
	}
	if p.URL != nil {
		s.URL = *p.URL
	}
	if p.HealthCheckURL != nil {
		s.HealthCheckURL = *p.HealthCheckURL
	}
	if p.LastDeployed != nil {
		s.LastDeployed = *p.LastDeployed
	}
	if p.Version != nil {
		s.Version = *p.Version
	}
	if p.Environment != nil {
		s.Environment = *p.Environment
	}
	if p.Dependencies != nil {
		s.Dependencies = append([]string(nil), p.Dependencies...)
	}
	if p.Metrics != nil {
		s.Metrics = *p.Metrics
	}
}

// Point is one sample of a time series.
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Series is a list of points ordered by timestamp ascending.
type Series []Point

// MetricsBundle groups the four dashboard time series.
type MetricsBundle struct {
	CPU     Series `json:"cpu"`
	Memory  Series `json:"memory"`
	Network Series `json:"network"`
	Disk    Series `json:"disk"`
}

// SeriesByName returns the series with the given name (cpu, memory, network,
// disk).
func (b MetricsBundle) SeriesByName(name string) (Series, bool) {
	switch name {
	case "cpu":
		return b.CPU, true
	case "memory":
		return b.Memory, true
	case "network":
		return b.Network, true
	case "disk":
		return b.Disk, true
	}
	return nil, false
}

// Len returns the total number of points across all series.
func (b MetricsBundle) Len() int {
	return len(b.CPU) + len(b.Memory) + len(b.Network) + len(b.Disk)
}

// Theme is the UI color theme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Settings are the user preferences that survive across sessions.
type Settings struct {
	Theme           Theme `json:"theme"`
	Notifications   bool  `json:"notifications"`
	AutoRefresh     bool  `json:"autoRefresh"`
	RefreshInterval int   `json:"refreshInterval"`
}

// DefaultSettings returns the settings of a fresh session.
func DefaultSettings() Settings {
	return Settings{
		Theme:           ThemeLight,
		Notifications:   true,
		AutoRefresh:     true,
		RefreshInterval: 30,
	}
}

func (s Settings) sanitized() Settings {
	d := DefaultSettings()
	if s.Theme != ThemeLight && s.Theme != ThemeDark {
		s.Theme = d.Theme
	}
	if s.RefreshInterval <= 0 {
		s.RefreshInterval = d.RefreshInterval
	}
	return s
}

// SettingsPatch carries the settings fields to merge.
type SettingsPatch struct {
	Theme           *Theme `json:"theme,omitempty"`
	Notifications   *bool  `json:"notifications,omitempty"`
	AutoRefresh     *bool  `json:"autoRefresh,omitempty"`
	RefreshInterval *int   `json:"refreshInterval,omitempty"`
}

// Validate checks the patch values.
func (p SettingsPatch) Validate() error {
	if p.Theme != nil && *p.Theme != ThemeLight && *p.Theme != ThemeDark {
		return errors.Join(ErrInvalidPatch, errors.New("unknown theme "+string(*p.Theme)))
	}
	if p.RefreshInterval != nil && *p.RefreshInterval <= 0 {
		return errors.Join(ErrInvalidPatch, errors.New("refreshInterval must be positive"))
	}
	return nil
}

// Preferences is the persisted slice of the store: settings and the sidebar
// flag, nothing else.
type Preferences struct {
	Settings         Settings `json:"settings"`
	SidebarCollapsed bool     `json:"sidebarCollapsed"`
}

// AlertType is the severity of an alert.
type AlertType string

const (
	AlertCritical AlertType = "critical"
	AlertWarning  AlertType = "warning"
)

// Valid reports whether t is a known alert type.
func (t AlertType) Valid() bool {
	return t == AlertCritical || t == AlertWarning
}

// Alert is a notification about a detected condition.
type Alert struct {
	ID           int64     `json:"id"`
	Type         AlertType `json:"type"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
	Acknowledged bool      `json:"acknowledged"`
	ServiceID    *string   `json:"serviceId,omitempty"`
}

// NewAlert is an alert before an id has been assigned.
type NewAlert struct {
	Type         AlertType `json:"type"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
	Acknowledged bool      `json:"acknowledged"`
	ServiceID    *string   `json:"serviceId,omitempty"`
}
