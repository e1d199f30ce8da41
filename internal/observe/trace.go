package observe

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope name for the dictacheck tracer.
const tracerName = "github.com/MrWong99/dictacheck"

// Tracer returns the [trace.Tracer] registered under the dictacheck scope on
// the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan starts a span named name. The caller must end it.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// StartCompareSpan starts the span wrapping one text comparison and tags it
// with the rune lengths of both inputs. Input text is never recorded.
func StartCompareSpan(ctx context.Context, original, user string) (context.Context, trace.Span) {
	return StartSpan(ctx, "compare.texts",
		trace.WithAttributes(
			attribute.Int("compare.original.runes", utf8.RuneCountInString(original)),
			attribute.Int("compare.user.runes", utf8.RuneCountInString(user)),
		),
	)
}

// CorrelationID returns the trace ID of the span in ctx as a hex string, or
// "" when ctx carries no valid span. Batch results and operations endpoint
// responses use it to tie output back to traces.
func CorrelationID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// Logger returns the default [slog.Logger] with trace_id and span_id attached
// when ctx carries a span.
func Logger(ctx context.Context) *slog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return slog.Default()
	}
	return slog.Default().With(
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	)
}
