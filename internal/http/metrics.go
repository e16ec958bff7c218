package http

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const httpInstrumentationName = "github.com/fyrsmithlabs/coachd/internal/http"

// durationBuckets reach from history reads to full sessions, which upload
// media to the model services and can take minutes.
var durationBuckets = []float64{0.005, 0.025, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300}

// requestMetrics holds the API's OTEL instruments. Attributes are method,
// route pattern and status.
type requestMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	size     metric.Int64Histogram
	inflight metric.Int64UpDownCounter
}

// newRequestMetrics creates the instruments on meter. On error it returns
// no-op instruments along with the error.
func newRequestMetrics(meter metric.Meter) (*requestMetrics, error) {
	var m requestMetrics
	var errs [4]error
	m.requests, errs[0] = meter.Int64Counter("coachd.http.requests_total",
		metric.WithDescription("HTTP requests by method, route and status"),
		metric.WithUnit("{request}"))
	m.duration, errs[1] = meter.Float64Histogram("coachd.http.request_duration_seconds",
		metric.WithDescription("HTTP request latency by method, route and status"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...))
	m.size, errs[2] = meter.Int64Histogram("coachd.http.response_size_bytes",
		metric.WithDescription("HTTP response body size by method, route and status"),
		metric.WithUnit("By"))
	m.inflight, errs[3] = meter.Int64UpDownCounter("coachd.http.active_requests",
		metric.WithDescription("HTTP requests in flight"),
		metric.WithUnit("{request}"))

	if err := errors.Join(errs[:]...); err != nil {
		nm, _ := newRequestMetrics(noop.NewMeterProvider().Meter(httpInstrumentationName))
		return nm, err
	}
	return &m, nil
}

// middleware records each request. It must run outside any middleware that
// turns handler errors into responses, or failures are counted as 200.
func (m *requestMetrics) middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			start := time.Now()
			m.inflight.Add(ctx, 1)
			defer m.inflight.Add(ctx, -1)

			err := next(c)

			attrs := metric.WithAttributes(
				attribute.String("method", c.Request().Method),
				attribute.String("endpoint", routeLabel(c.Path())),
				attribute.Int("status", c.Response().Status),
			)
			m.requests.Add(ctx, 1, attrs)
			m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
			m.size.Record(ctx, c.Response().Size, attrs)
			return err
		}
	}
}

// routeLabel maps an unmatched route to "/". Matched routes arrive as their
// pattern (/api/v1/users/:user_id/progress), so user ids never become label
// values.
func routeLabel(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
