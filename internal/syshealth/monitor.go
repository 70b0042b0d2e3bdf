// Package syshealth simulates the platform health gauges shown on the
// dashboard and streams them to websocket clients.
package syshealth

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/pulseboard/pulseboard/internal/dashboard"
)

// Gauge names.
const (
	GaugeSystemLoad          = "systemLoad"
	GaugeDatabaseConnections = "databaseConnections"
	GaugeCacheHitRate        = "cacheHitRate"
	GaugeQueueDepth          = "queueDepth"
)

// Gauges are the four simulated platform readings.
type Gauges struct {
	SystemLoad          float64 `json:"systemLoad"`
	DatabaseConnections float64 `json:"databaseConnections"`
	CacheHitRate        float64 `json:"cacheHitRate"`
	QueueDepth          float64 `json:"queueDepth"`
}

// InitialGauges returns the starting readings.
func InitialGauges() Gauges {
	return Gauges{
		SystemLoad:          45,
		DatabaseConnections: 85,
		CacheHitRate:        92,
		QueueDepth:          12,
	}
}

// Reading is one classified gauge.
type Reading struct {
	Name   string           `json:"name"`
	Value  float64          `json:"value"`
	Unit   string           `json:"unit"`
	Status dashboard.Status `json:"status"`
}

// Snapshot is the classified state at one instant.
type Snapshot struct {
	Gauges    Gauges    `json:"gauges"`
	Readings  []Reading `json:"readings"`
	Score     int       `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// Classify maps a gauge value to a status.
func Classify(gauge string, v float64) dashboard.Status {
	var critical, warning bool
	switch gauge {
	case GaugeSystemLoad:
		critical, warning = v > 80, v > 60
	case GaugeDatabaseConnections:
		critical, warning = v > 90, v > 75
	case GaugeCacheHitRate:
		critical, warning = v < 80, v < 90
	case GaugeQueueDepth:
		critical, warning = v > 30, v > 15
	}
	switch {
	case critical:
		return dashboard.StatusCritical
	case warning:
		return dashboard.StatusWarning
	}
	return dashboard.StatusHealthy
}

// Score is the overall health in percent: healthy readings count 1, warnings
// 0.5 and critical readings 0.
func Score(readings []Reading) int {
	if len(readings) == 0 {
		return 100
	}
	var points float64
	for _, r := range readings {
		switch r.Status {
		case dashboard.StatusHealthy:
			points++
		case dashboard.StatusWarning:
			points += 0.5
		}
	}
	return int(math.Round(points / float64(len(readings)) * 100))
}

// NewSnapshot classifies g.
func NewSnapshot(g Gauges, ts time.Time) Snapshot {
	readings := []Reading{
		{Name: GaugeSystemLoad, Value: g.SystemLoad, Unit: "%"},
		{Name: GaugeDatabaseConnections, Value: g.DatabaseConnections, Unit: "%"},
		{Name: GaugeCacheHitRate, Value: g.CacheHitRate, Unit: "%"},
		{Name: GaugeQueueDepth, Value: g.QueueDepth},
	}
	for i := range readings {
		readings[i].Status = Classify(readings[i].Name, readings[i].Value)
	}
	return Snapshot{
		Gauges:    g,
		Readings:  readings,
		Score:     Score(readings),
		Timestamp: ts,
	}
}

// Random is the randomness the monitor draws from.
type Random interface {
	Float64() float64
	Now() time.Time
}

// Monitor applies a bounded random walk to the gauges.
type Monitor struct {
	rnd Random

	mu     sync.RWMutex
	gauges Gauges
	last   time.Time
}

// NewMonitor creates a monitor at the initial readings.
func NewMonitor(rnd Random) *Monitor {
	return &Monitor{
		rnd:    rnd,
		gauges: InitialGauges(),
		last:   rnd.Now(),
	}
}

// Snapshot returns the current readings.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return NewSnapshot(m.gauges, m.last)
}

// Step advances every gauge by one random step and returns the new snapshot.
func (m *Monitor) Step() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	walk := func(v, spread, lo, hi float64) float64 {
		v += (m.rnd.Float64() - 0.5) * spread
		return math.Max(lo, math.Min(hi, v))
	}

	m.gauges = Gauges{
		SystemLoad:          walk(m.gauges.SystemLoad, 10, 10, 100),
		DatabaseConnections: walk(m.gauges.DatabaseConnections, 5, 50, 100),
		CacheHitRate:        walk(m.gauges.CacheHitRate, 2, 70, 98),
		QueueDepth:          walk(m.gauges.QueueDepth, 5, 0, 50),
	}
	m.last = m.rnd.Now()
	return NewSnapshot(m.gauges, m.last)
}

// Run steps the monitor every tick until ctx is done, passing each snapshot
// to publish.
func (m *Monitor) Run(ctx context.Context, tick time.Duration, publish func(Snapshot)) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := m.Step()
			if publish != nil {
				publish(snap)
			}
		}
	}
}
