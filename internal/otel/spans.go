package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Standard attribute keys for harness spans.
var (
	AttrRoutine     = attribute.Key("routines.routine.name")
	AttrPattern     = attribute.Key("routines.pattern")
	AttrRunID       = attribute.Key("routines.run.id")
	AttrSessionID   = attribute.Key("routines.session.id")
	AttrNewSession  = attribute.Key("routines.session.new")
	AttrForked      = attribute.Key("routines.session.forked")
	AttrOutputBytes = attribute.Key("routines.output.bytes")
)

// StartSpan is a convenience wrapper that starts an internal span with common attributes.
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartClientSpan starts a span for an outbound call (agent dispatch, KV store).
func StartClientSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}
