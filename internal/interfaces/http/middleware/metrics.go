package middleware

import (
	"context"
	"time"

	"github.com/backoffice/ledger/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// unmatchedRoute labels requests that hit no registered route
const unmatchedRoute = "unmatched"

type httpMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	bodySize metric.Float64Histogram
	inFlight metric.Int64UpDownCounter
}

// HTTPMetricsWithMeter records request count, latency, response size and
// in-flight requests per route pattern. A nil meter disables collection.
func HTTPMetricsWithMeter(meter metric.Meter) (gin.HandlerFunc, error) {
	if meter == nil {
		return func(c *gin.Context) { c.Next() }, nil
	}
	in := telemetry.NewInstruments(meter)
	m := &httpMetrics{
		requests: in.Counter("http.server.requests", "HTTP requests served", "{request}"),
		duration: in.Histogram("http.server.request.duration", "HTTP request latency", "s", telemetry.DurationBuckets...),
		bodySize: in.Histogram("http.server.response.body.size", "HTTP response body size", "By", telemetry.SizeBuckets...),
		inFlight: in.UpDownCounter("http.server.active_requests", "HTTP requests in flight", "{request}"),
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	return m.handle, nil
}

func (m *httpMetrics) handle(c *gin.Context) {
	// recorded after the handler, when the request context may already be done
	ctx := context.WithoutCancel(c.Request.Context())
	start := time.Now()

	m.inFlight.Add(ctx, 1)
	c.Next()
	m.inFlight.Add(ctx, -1)

	route := c.FullPath()
	if route == "" {
		route = unmatchedRoute
	}
	attrs := metric.WithAttributeSet(attribute.NewSet(
		semconv.HTTPRequestMethodKey.String(c.Request.Method),
		semconv.HTTPRoute(route),
		semconv.HTTPResponseStatusCode(c.Writer.Status()),
	))

	m.requests.Add(ctx, 1, attrs)
	m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	if size := c.Writer.Size(); size > 0 {
		m.bodySize.Record(ctx, float64(size), attrs)
	}
}
