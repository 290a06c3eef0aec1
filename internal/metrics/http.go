package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// unmatchedRoute labels requests gin could not route, so scanners hitting
// random paths add one series instead of one per path.
const unmatchedRoute = "unmatched"

type httpMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func newHTTPMetrics(meter metric.Meter, namespace string) (*httpMetrics, error) {
	requests, err := meter.Int64Counter(
		namespace+"_http_requests_total",
		metric.WithDescription("Admin API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		namespace+"_http_request_duration_seconds",
		metric.WithDescription("Admin API request latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &httpMetrics{requests: requests, duration: duration}, nil
}

// HTTPMetricsMiddleware counts admin API requests and their latency, labelled
// by method, gin route and status code. Query strings never reach a label, so
// /v1/jobs?status=failed and /v1/jobs share one series. If the instruments
// cannot be created the middleware only forwards the request.
func HTTPMetricsMiddleware(meterProvider metric.MeterProvider, namespace string) gin.HandlerFunc {
	m, err := newHTTPMetrics(meterProvider.Meter(namespace), namespace)
	if err != nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return m.handle
}

func (m *httpMetrics) handle(c *gin.Context) {
	start := time.Now()
	c.Next()

	attrs := metric.WithAttributes(
		attribute.String("method", c.Request.Method),
		attribute.String("route", routeLabel(c.FullPath())),
		attribute.String("status_code", strconv.Itoa(c.Writer.Status())),
	)
	ctx := c.Request.Context()
	m.requests.Add(ctx, 1, attrs)
	m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
}

func routeLabel(fullPath string) string {
	if fullPath == "" {
		return unmatchedRoute
	}
	return fullPath
}
