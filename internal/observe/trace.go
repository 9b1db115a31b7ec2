package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope for voxmed spans. It mirrors
// meterName so spans and metrics group under the same scope.
const tracerName = "github.com/voxmed/voxmed"

// StartSpan opens a span named after the operation, typically the HTTP
// route or a pipeline stage. The caller ends it.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, opts...)
}

// CorrelationID returns the active trace id. It is the value the HTTP
// middleware echoes in the X-Correlation-ID header, so a misbehaving
// correction reported by a clinician can be matched to its server logs.
// Empty when ctx carries no sampled span.
func CorrelationID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// Logger returns the default logger with trace_id and span_id attached,
// lining handler log output up with the span of the request that produced
// it. Without an active span it is just the default logger.
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
