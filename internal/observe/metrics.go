// Package observe provides application-wide observability primitives for
// dictacheck: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware for the operations endpoint.
//
// Metrics are recorded through the OpenTelemetry Metrics API. [InitProvider]
// bridges them to a Prometheus registry so they can be scraped from the
// operations endpoint. Tests build [Metrics] with [NewMetrics] on a manual
// reader.
package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all dictacheck metrics.
const meterName = "github.com/MrWong99/dictacheck"

// Comparison outcomes used as the "outcome" attribute of
// [Metrics.CompareRequests].
const (
	OutcomeAligned = "aligned"
	OutcomeGated   = "gated"
	OutcomeEmpty   = "empty"
)

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// CompareDuration tracks the latency of one text comparison.
	CompareDuration metric.Float64Histogram

	// CompareRequests counts comparisons. Use with attribute:
	//   attribute.String("outcome", ...)
	CompareRequests metric.Int64Counter

	// Discrepancies tracks how many comparison spans each request produced.
	Discrepancies metric.Int64Histogram

	// Tokens tracks token counts per side. Use with attribute:
	//   attribute.String("side", "original"|"user")
	Tokens metric.Int64Histogram

	// DroppedTokens counts words the tokenizer could not locate.
	DroppedTokens metric.Int64Counter

	// BatchItems counts processed batch items. Use with attribute:
	//   attribute.String("status", "ok"|"error")
	BatchItems metric.Int64Counter

	// BatchInflight tracks the number of batch items being compared.
	BatchInflight metric.Int64UpDownCounter

	// HTTPRequestDuration tracks operations endpoint request time. Use with
	// attributes: attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) for
// in-process comparisons, which typically finish in well under a second.
var latencyBuckets = []float64{
	0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5, 1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.CompareDuration, err = m.Float64Histogram("dictacheck.compare.duration",
		metric.WithDescription("Latency of one text comparison."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.CompareRequests, err = m.Int64Counter("dictacheck.compare.requests",
		metric.WithDescription("Total comparisons by outcome."),
	); err != nil {
		return nil, err
	}

	if met.Discrepancies, err = m.Int64Histogram("dictacheck.compare.discrepancies",
		metric.WithDescription("Number of highlighted spans per comparison."),
	); err != nil {
		return nil, err
	}

	if met.Tokens, err = m.Int64Histogram("dictacheck.compare.tokens",
		metric.WithDescription("Number of word tokens per compared text by side."),
	); err != nil {
		return nil, err
	}

	if met.DroppedTokens, err = m.Int64Counter("dictacheck.tokenize.dropped",
		metric.WithDescription("Total words the tokenizer could not locate in the source text."),
	); err != nil {
		return nil, err
	}

	if met.BatchItems, err = m.Int64Counter("dictacheck.batch.items",
		metric.WithDescription("Total batch items by status."),
	); err != nil {
		return nil, err
	}

	if met.BatchInflight, err = m.Int64UpDownCounter("dictacheck.batch.inflight",
		metric.WithDescription("Number of batch items currently being compared."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("dictacheck.http.request.duration",
		metric.WithDescription("Operations endpoint request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// RecordComparison records the duration, outcome, span count and token counts
// of one comparison.
func (m *Metrics) RecordComparison(ctx context.Context, outcome string, seconds float64, spans, originalTokens, userTokens int) {
	m.CompareDuration.Record(ctx, seconds)
	m.CompareRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	m.Discrepancies.Record(ctx, int64(spans))
	if outcome == OutcomeAligned {
		m.Tokens.Record(ctx, int64(originalTokens), metric.WithAttributes(attribute.String("side", "original")))
		m.Tokens.Record(ctx, int64(userTokens), metric.WithAttributes(attribute.String("side", "user")))
	}
}

// RecordDroppedToken records one word lost by the tokenizer.
func (m *Metrics) RecordDroppedToken(ctx context.Context) {
	m.DroppedTokens.Add(ctx, 1)
}

// RecordBatchItem records one finished batch item.
func (m *Metrics) RecordBatchItem(ctx context.Context, status string) {
	m.BatchItems.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
