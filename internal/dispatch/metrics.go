package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the dispatch instruments.
type Metrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	failures metric.Int64Counter
}

// NewMetrics creates the dispatch instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	requests, err := meter.Int64Counter(
		"dispatch_requests_total",
		metric.WithDescription("Dispatched requests by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create requests counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"dispatch_duration_seconds",
		metric.WithDescription("Time spent dispatching a request"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	failures, err := meter.Int64Counter(
		"dispatch_failures_total",
		metric.WithDescription("Failed dispatches by error type"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create failures counter: %w", err)
	}

	return &Metrics{requests: requests, duration: duration, failures: failures}, nil
}

func (m *Metrics) record(ctx context.Context, outcome string, errType ErrorType, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.requests.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
	if errType != "" {
		m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(errType))))
	}
}
