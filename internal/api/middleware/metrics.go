package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/pulseboard/pulseboard/internal/api/middleware"

// Metrics records HTTP server instruments plus a counter of dashboard
// mutations (writes under /api).
type Metrics struct {
	duration  metric.Float64Histogram
	requests  metric.Int64Counter
	inFlight  metric.Int64UpDownCounter
	size      metric.Int64Histogram
	mutations metric.Int64Counter
}

// NewMetrics creates the instruments on meter. A nil meter uses the global
// meter provider.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(meterName)
	}

	var (
		m    Metrics
		err  error
		errs []error
	)

	m.duration, err = meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("Duration of HTTP server requests"),
		metric.WithUnit("s"))
	errs = append(errs, err)

	m.requests, err = meter.Int64Counter("http.server.request.total",
		metric.WithDescription("HTTP server requests"),
		metric.WithUnit("{request}"))
	errs = append(errs, err)

	m.inFlight, err = meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("HTTP server requests in progress"),
		metric.WithUnit("{request}"))
	errs = append(errs, err)

	m.size, err = meter.Int64Histogram("http.server.response.body.size",
		metric.WithDescription("Size of HTTP server response bodies"),
		metric.WithUnit("By"))
	errs = append(errs, err)

	m.mutations, err = meter.Int64Counter("pulseboard.api.mutations",
		metric.WithDescription("Dashboard state changes requested through the API"),
		metric.WithUnit("{request}"))
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &m, nil
}

// Middleware records the request instruments. Requests are labelled with the
// chi route pattern so ids in the path do not explode cardinality.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()

			method := metric.WithAttributes(attribute.String("http.request.method", r.Method))
			m.inFlight.Add(ctx, 1, method)
			defer m.inFlight.Add(ctx, -1, method)

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			route := routePattern(r)
			opt := metric.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("http.response.status_code", strconv.Itoa(wrapped.statusCode)),
			)
			m.duration.Record(ctx, time.Since(start).Seconds(), opt)
			m.requests.Add(ctx, 1, opt)
			m.size.Record(ctx, wrapped.written, opt)

			if isMutation(r.Method) {
				m.mutations.Add(ctx, 1, metric.WithAttributes(
					attribute.String("http.route", route),
					attribute.String("outcome", outcome(wrapped.statusCode)),
				))
			}
		})
	}
}

func outcome(status int) string {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusTooManyRequests:
		return "rejected"
	case status >= 500:
		return "error"
	case status >= 400:
		return "invalid"
	default:
		return "applied"
	}
}
