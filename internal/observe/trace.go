package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope for all Taleforge spans.
const tracerName = "github.com/taleforge/taleforge"

// Tracer returns the Taleforge tracer from the globally registered provider.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan opens a span on the Taleforge tracer. The caller ends it.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// SessionSpan opens a span for one narration-session operation, stamped with
// the campaign ruleset so traces can be sliced per game system. End it with
// [EndSpan] so a failed connect or teardown marks the span as errored.
func SessionSpan(ctx context.Context, op, ruleset string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, op,
		trace.WithAttributes(attribute.String("taleforge.ruleset", ruleset)),
	)
}

// EndSpan closes a span, recording err as the span's error status when the
// operation failed.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// CorrelationID returns the trace id of the active span in ctx, or the empty
// string outside a trace. It doubles as the X-Correlation-ID header value.
func CorrelationID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// Logger returns the default slog logger enriched with trace_id and span_id
// from ctx. Outside a trace it is the default logger unchanged.
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
