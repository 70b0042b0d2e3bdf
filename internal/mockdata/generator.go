// Package mockdata generates the demo data set and the random samples used
// when no real metrics source is configured.
package mockdata

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/pulseboard/pulseboard/internal/dashboard"
)

// Series bounds used by Bundle and Sample.
const (
	CPUMin     = 20
	CPUMax     = 80
	MemoryMin  = 30
	MemoryMax  = 90
	NetworkMin = 100
	NetworkMax = 1000
	DiskMin    = 10
	DiskMax    = 60
)

// DemoHours is the span of the demo metrics bundle.
const DemoHours = 24

// Config holds configuration for a Generator.
type Config struct {
	// Seed makes the generator deterministic. Zero seeds from the runtime.
	Seed uint64
	Now  func() time.Time
}

// Generator produces random series and the fixed demo set. It is safe for
// concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewGenerator creates a new generator.
func NewGenerator(cfg Config) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Generator{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now: now,
	}
}

// Now returns the generator clock.
func (g *Generator) Now() time.Time {
	return g.now()
}

// Float64 returns a uniform float in [0, 1).
func (g *Generator) Float64() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()
}

// IntRange returns a uniform integer in [lo, hi]. The bounds are swapped when
// lo > hi.
func (g *Generator) IntRange(lo, hi int) int {
	if lo > hi {
		lo, hi = hi, lo
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return lo + g.rng.IntN(hi-lo+1)
}

// Series returns hours+1 hourly points ending at now, with integer values in
// [lo, hi]. Negative hours yields a single point.
func (g *Generator) Series(hours, lo, hi int) dashboard.Series {
	if hours < 0 {
		hours = 0
	}
	if lo > hi {
		lo, hi = hi, lo
	}

	now := g.now()
	out := make(dashboard.Series, 0, hours+1)

	g.mu.Lock()
	defer g.mu.Unlock()
	for i := hours; i >= 0; i-- {
		out = append(out, dashboard.Point{
			Timestamp: now.Add(-time.Duration(i) * time.Hour),
			Value:     float64(lo + g.rng.IntN(hi-lo+1)),
		})
	}
	return out
}

// Bundle returns a metrics bundle spanning the given number of hours.
func (g *Generator) Bundle(hours int) dashboard.MetricsBundle {
	return dashboard.MetricsBundle{
		CPU:     g.Series(hours, CPUMin, CPUMax),
		Memory:  g.Series(hours, MemoryMin, MemoryMax),
		Network: g.Series(hours, NetworkMin, NetworkMax),
		Disk:    g.Series(hours, DiskMin, DiskMax),
	}
}

// Sample returns one fresh point per series stamped with the current time.
func (g *Generator) Sample() dashboard.MetricsBundle {
	return g.Bundle(0)
}

// Jitter returns m with every gauge nudged by a small random amount. CPU and
// memory stay within [0, 100]; the other gauges stay non-negative.
func (g *Generator) Jitter(m dashboard.ServiceMetrics) dashboard.ServiceMetrics {
	g.mu.Lock()
	defer g.mu.Unlock()

	delta := func(spread float64) float64 {
		return (g.rng.Float64()*2 - 1) * spread
	}

	return dashboard.ServiceMetrics{
		CPU:               round2(clamp(m.CPU+delta(5), 0, 100)),
		Memory:            round2(clamp(m.Memory+delta(5), 0, 100)),
		RequestsPerMinute: math.Round(math.Max(0, m.RequestsPerMinute*(1+delta(0.1)))),
		ErrorRate:         round2(math.Max(0, m.ErrorRate+delta(0.5))),
		ResponseTime:      math.Round(math.Max(0, m.ResponseTime*(1+delta(0.1)))),
	}
}

// DemoMetrics returns a freshly generated 24 hour bundle.
func (g *Generator) DemoMetrics() dashboard.MetricsBundle {
	return g.Bundle(DemoHours)
}

// HoursForRange maps a range selector to hours. Unknown values map to 24.
func HoursForRange(r string) int {
	switch r {
	case "1h":
		return 1
	case "7d":
		return 168
	}
	return 24
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
