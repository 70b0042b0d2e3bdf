// Package hostinfo reports host details and service counts for the system
// info view.
package hostinfo

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"

	"github.com/pulseboard/pulseboard/internal/dashboard"
)

// Info is the system info payload.
type Info struct {
	Version         string  `json:"version"`
	Hostname        string  `json:"hostname,omitempty"`
	Platform        string  `json:"platform,omitempty"`
	Uptime          string  `json:"uptime"`
	UptimeSeconds   uint64  `json:"uptimeSeconds"`
	Load1           float64 `json:"load1"`
	Load5           float64 `json:"load5"`
	Load15          float64 `json:"load15"`
	Services        int     `json:"services"`
	HealthyServices int     `json:"healthyServices"`
	Warnings        int     `json:"warnings"`
	Critical        int     `json:"critical"`
}

// HostStats is what the host reader returns.
type HostStats struct {
	Hostname      string
	Platform      string
	UptimeSeconds uint64
	Load1         float64
	Load5         float64
	Load15        float64
}

// HostReader reads host statistics.
type HostReader func(ctx context.Context) (HostStats, error)

// ReadHost reads host statistics with gopsutil. Load averages are left at zero
// on platforms that do not report them.
func ReadHost(ctx context.Context) (HostStats, error) {
	h, err := host.InfoWithContext(ctx)
	if err != nil {
		return HostStats{}, fmt.Errorf("read host info: %w", err)
	}

	stats := HostStats{
		Hostname:      h.Hostname,
		Platform:      h.Platform + " " + h.PlatformVersion,
		UptimeSeconds: h.Uptime,
	}
	if l, err := load.AvgWithContext(ctx); err == nil {
		stats.Load1, stats.Load5, stats.Load15 = l.Load1, l.Load5, l.Load15
	}
	return stats, nil
}

// ServiceSource lists the current services.
type ServiceSource interface {
	Services() []dashboard.Service
}

// Collector assembles Info.
type Collector struct {
	version  string
	services ServiceSource
	read     HostReader
}

// NewCollector creates a collector. A nil reader uses ReadHost.
func NewCollector(version string, services ServiceSource, read HostReader) *Collector {
	if read == nil {
		read = ReadHost
	}
	return &Collector{version: version, services: services, read: read}
}

// Collect returns the current system info.
func (c *Collector) Collect(ctx context.Context) (*Info, error) {
	stats, err := c.read(ctx)
	if err != nil {
		return nil, err
	}

	sum := dashboard.Summarize(c.services.Services())
	return &Info{
		Version:         c.version,
		Hostname:        stats.Hostname,
		Platform:        stats.Platform,
		Uptime:          FormatUptime(time.Duration(stats.UptimeSeconds) * time.Second),
		UptimeSeconds:   stats.UptimeSeconds,
		Load1:           stats.Load1,
		Load5:           stats.Load5,
		Load15:          stats.Load15,
		Services:        sum.Total,
		HealthyServices: sum.Healthy,
		Warnings:        sum.Warning,
		Critical:        sum.Critical,
	}, nil
}

// FormatUptime renders d as "D days, H hours, M minutes".
func FormatUptime(d time.Duration) string {
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes := int(d / time.Minute)
	return fmt.Sprintf("%d days, %d hours, %d minutes", days, hours, minutes)
}
