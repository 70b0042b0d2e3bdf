package telemetry

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/pulseboard/pulseboard/internal/dashboard"
)

// DashboardSource is the state observed by the dashboard instruments.
type DashboardSource interface {
	Services() []dashboard.Service
	Alerts() []dashboard.Alert
}

// RegisterDashboardInstruments registers observable gauges for the service
// count per status, alert count per type and acknowledgement, and the system
// health score. score may be nil. The returned registration unregisters the
// callback.
func RegisterDashboardInstruments(meter metric.Meter, src DashboardSource, score func() int) (metric.Registration, error) {
	services, err := meter.Int64ObservableGauge(
		"pulseboard.services",
		metric.WithDescription("Number of monitored services by status"),
		metric.WithUnit("{service}"),
	)
	if err != nil {
		return nil, err
	}

	alerts, err := meter.Int64ObservableGauge(
		"pulseboard.alerts",
		metric.WithDescription("Number of alerts by type and acknowledgement"),
		metric.WithUnit("{alert}"),
	)
	if err != nil {
		return nil, err
	}

	healthScore, err := meter.Int64ObservableGauge(
		"pulseboard.system.health_score",
		metric.WithDescription("Overall system health score (0-100)"),
	)
	if err != nil {
		return nil, err
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		for _, sc := range dashboard.StatusDistribution(src.Services()) {
			o.ObserveInt64(services, int64(sc.Count),
				metric.WithAttributes(attribute.String("status", string(sc.Status))))
		}

		counts := make(map[[2]string]int64)
		for _, a := range src.Alerts() {
			counts[[2]string{string(a.Type), strconv.FormatBool(a.Acknowledged)}]++
		}
		for k, n := range counts {
			o.ObserveInt64(alerts, n, metric.WithAttributes(
				attribute.String("type", k[0]),
				attribute.String("acknowledged", k[1]),
			))
		}

		if score != nil {
			o.ObserveInt64(healthScore, int64(score()))
		}
		return nil
	}, services, alerts, healthScore)
}
