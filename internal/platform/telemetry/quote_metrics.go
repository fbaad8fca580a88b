package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// QuoteMetrics records quote retrieval outcomes.
type QuoteMetrics struct {
	duration metric.Float64Histogram
	total    metric.Int64Counter
}

// NewQuoteMetrics creates quote retrieval instruments on the global meter.
func NewQuoteMetrics() (*QuoteMetrics, error) {
	meter := otel.Meter(instrumentationName)

	duration, err := meter.Float64Histogram(
		"quote.retrieval.duration",
		metric.WithDescription("Quote retrieval duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	total, err := meter.Int64Counter(
		"quote.retrieval.total",
		metric.WithDescription("Quote retrievals by outcome"),
	)
	if err != nil {
		return nil, err
	}

	return &QuoteMetrics{duration: duration, total: total}, nil
}

// Record adds one retrieval. Outcome is "ok" or an error kind.
// Nil receivers are ignored so callers need no guard.
func (m *QuoteMetrics) Record(ctx context.Context, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
	m.total.Add(ctx, 1, attrs)
}
