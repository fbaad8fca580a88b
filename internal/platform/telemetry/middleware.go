package telemetry

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/stock-quote/internal/platform/logging"
)

const (
	instrumentationName = "github.com/jsamuelsen/stock-quote/telemetry"

	// opsPrefix marks the operational endpoints, which are neither traced nor measured.
	opsPrefix = "/-/"
)

// HTTPMetrics holds the local server instruments.
type HTTPMetrics struct {
	requestDuration metric.Float64Histogram
	activeRequests  metric.Int64UpDownCounter
}

// NewHTTPMetrics creates the local server instruments on the global meter.
func NewHTTPMetrics() (*HTTPMetrics, error) {
	meter := otel.Meter(instrumentationName)

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("Quote endpoint duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("In-flight quote requests"),
	)
	if err != nil {
		return nil, err
	}

	return &HTTPMetrics{
		requestDuration: requestDuration,
		activeRequests:  activeRequests,
	}, nil
}

// Middleware records request duration by route and status class, echoes
// the trace ID in X-Trace-ID and tags the request logger with it. Operational
// endpoints are skipped.
func Middleware() gin.HandlerFunc {
	metrics, err := NewHTTPMetrics()
	if err != nil {
		otel.Handle(err)
	}

	return func(c *gin.Context) {
		if metrics == nil || isOpsRoute(c.Request) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		start := time.Now()
		route := attribute.String("http.route", c.FullPath())

		metrics.activeRequests.Add(ctx, 1, metric.WithAttributes(route))
		defer metrics.activeRequests.Add(ctx, -1, metric.WithAttributes(route))

		// Set before the handler writes; otelgin has already started the span.
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			traceID := sc.TraceID().String()
			c.Header("X-Trace-ID", traceID)
			c.Request = c.Request.WithContext(logging.WithTraceID(ctx, traceID))
		}

		c.Next()

		metrics.requestDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			route,
			attribute.String("http.request.method", c.Request.Method),
			attribute.String("http.response.status_class", statusClass(c.Writer.Status())),
		))
	}
}

// TracingMiddleware returns the otelgin server middleware, skipping operational routes.
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName, otelgin.WithFilter(func(r *http.Request) bool {
		return !isOpsRoute(r)
	}))
}

func isOpsRoute(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, opsPrefix)
}

// statusClass buckets a status code as 2xx, 4xx, 5xx.
func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}
