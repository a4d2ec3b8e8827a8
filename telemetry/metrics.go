package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Fallback paths reported with rag.fallbacks.
const (
	FallbackRetrieval  = "retrieval"
	FallbackGeneration = "generation"
)

type Metrics struct {
	IngestedChunks metric.Int64Counter
	Queries        metric.Int64Counter
	Fallbacks      metric.Int64Counter
	AnswerDuration metric.Float64Histogram
}

// NewMetrics registers the instruments on mp, or on the global provider when mp is nil.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	ingested, err := meter.Int64Counter(
		"rag.ingest.chunks",
		metric.WithDescription("Chunks embedded and upserted"),
	)
	if err != nil {
		return nil, err
	}

	queries, err := meter.Int64Counter(
		"rag.queries",
		metric.WithDescription("Questions answered"),
	)
	if err != nil {
		return nil, err
	}

	fallbacks, err := meter.Int64Counter(
		"rag.fallbacks",
		metric.WithDescription("Answers that fell back to the unknown sentinel"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"rag.answer.duration",
		metric.WithDescription("End to end answer latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		IngestedChunks: ingested,
		Queries:        queries,
		Fallbacks:      fallbacks,
		AnswerDuration: duration,
	}, nil
}

// MustMetrics is NewMetrics for wiring code where the global meter cannot fail.
func MustMetrics() *Metrics {
	m, err := NewMetrics(nil)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Metrics) RecordIngested(ctx context.Context, source string, n int) {
	m.IngestedChunks.Add(ctx, int64(n), metric.WithAttributes(attribute.String("source", source)))
}

func (m *Metrics) RecordFallback(ctx context.Context, path string) {
	m.Fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("path", path)))
}

func (m *Metrics) RecordAnswer(ctx context.Context, seconds float64) {
	m.Queries.Add(ctx, 1)
	m.AnswerDuration.Record(ctx, seconds)
}
