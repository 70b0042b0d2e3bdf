// Package exporter publishes dashboard state as Prometheus metrics.
package exporter

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pulseboard/pulseboard/internal/dashboard"
)

var (
	servicesDesc = prometheus.NewDesc("pulseboard_services",
		"Number of services by status", []string{"status"}, nil)
	alertsDesc = prometheus.NewDesc("pulseboard_alerts",
		"Number of alerts by type and acknowledgement", []string{"type", "acknowledged"}, nil)
	cpuDesc = prometheus.NewDesc("pulseboard_service_cpu_percent",
		"Reported CPU usage per service", []string{"service"}, nil)
	memoryDesc = prometheus.NewDesc("pulseboard_service_memory_percent",
		"Reported memory usage per service", []string{"service"}, nil)
	requestsDesc = prometheus.NewDesc("pulseboard_service_requests_per_minute",
		"Reported request rate per service", []string{"service"}, nil)
)

// Exporter serves a Prometheus registry whose dashboard metrics are read
// from the store on every scrape, so each scrape sees one consistent copy
// of the services and alerts.
type Exporter struct {
	registry    *prometheus.Registry
	healthScore prometheus.Gauge
}

// New registers the dashboard collector plus the Go runtime and process
// collectors on a fresh registry.
func New(store *dashboard.Store) *Exporter {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		storeCollector{store: store},
	)

	return &Exporter{
		registry: reg,
		healthScore: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "pulseboard_system_health_score",
			Help: "Overall system health score (0-100)",
		}),
	}
}

// SetHealthScore records the latest system health score.
func (e *Exporter) SetHealthScore(score int) {
	e.healthScore.Set(float64(score))
}

func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

type storeCollector struct {
	store *dashboard.Store
}

func (c storeCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{servicesDesc, alertsDesc, cpuDesc, memoryDesc, requestsDesc} {
		ch <- d
	}
}

func (c storeCollector) Collect(ch chan<- prometheus.Metric) {
	services := c.store.Services()
	for _, sc := range dashboard.StatusDistribution(services) {
		ch <- prometheus.MustNewConstMetric(servicesDesc, prometheus.GaugeValue, float64(sc.Count), string(sc.Status))
	}

	// Duplicate ids are allowed in the store; the first occurrence wins.
	seen := make(map[string]bool, len(services))
	for _, svc := range services {
		if seen[svc.ID] {
			continue
		}
		seen[svc.ID] = true
		ch <- prometheus.MustNewConstMetric(cpuDesc, prometheus.GaugeValue, svc.Metrics.CPU, svc.ID)
		ch <- prometheus.MustNewConstMetric(memoryDesc, prometheus.GaugeValue, svc.Metrics.Memory, svc.ID)
		ch <- prometheus.MustNewConstMetric(requestsDesc, prometheus.GaugeValue, svc.Metrics.RequestsPerMinute, svc.ID)
	}

	type key struct {
		typ dashboard.AlertType
		ack bool
	}
	counts := make(map[key]int)
	for _, a := range c.store.Alerts() {
		counts[key{a.Type, a.Acknowledged}]++
	}
	for _, t := range []dashboard.AlertType{dashboard.AlertCritical, dashboard.AlertWarning} {
		for _, ack := range []bool{false, true} {
			ch <- prometheus.MustNewConstMetric(alertsDesc, prometheus.GaugeValue,
				float64(counts[key{t, ack}]), string(t), strconv.FormatBool(ack))
		}
	}
}
