// Package observe provides the service's observability primitives:
// OpenTelemetry metric instruments, the Prometheus-backed meter provider used
// by the local server, and a correlation-aware slog logger.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "suggest-combiner"

const (
	StrategyLLM      = "llm"
	StrategyFallback = "fallback"
)

// latencyBuckets defines histogram bucket boundaries (in seconds) for the
// outbound completion call.
var latencyBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30,
}

// Metrics holds the metric instruments. All fields are safe for concurrent
// use; the OTel types handle their own synchronisation.
type Metrics struct {
	// CombineRequests counts completed combinations by strategy.
	CombineRequests metric.Int64Counter

	// LLMFailures counts absorbed enhancement-path failures by kind.
	LLMFailures metric.Int64Counter

	// LLMDuration tracks the latency of the outbound completion call.
	LLMDuration metric.Float64Histogram
}

// NewMetrics creates all instruments from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.CombineRequests, err = m.Int64Counter("combiner.combine.requests",
		metric.WithDescription("Completed combinations by strategy."),
	); err != nil {
		return nil, err
	}
	if met.LLMFailures, err = m.Int64Counter("combiner.llm.failures",
		metric.WithDescription("LLM failures absorbed by the fallback path, by kind."),
	); err != nil {
		return nil, err
	}
	if met.LLMDuration, err = m.Float64Histogram("combiner.llm.duration",
		metric.WithDescription("Latency of the outbound chat completion call."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// NoopMetrics returns instruments that record nothing.
func NoopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider())
	return m
}

func (m *Metrics) RecordCombination(ctx context.Context, usedLLM bool) {
	strategy := StrategyFallback
	if usedLLM {
		strategy = StrategyLLM
	}
	m.CombineRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("strategy", strategy)))
}

func (m *Metrics) RecordLLMFailure(ctx context.Context, kind string) {
	m.LLMFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *Metrics) RecordLLMDuration(ctx context.Context, d time.Duration, ok bool) {
	m.LLMDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.Bool("ok", ok)))
}
