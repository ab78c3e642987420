package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the singlet tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("singlet")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartCreationSpan starts a span covering one singleton creation.
	// Returns the context with span and the span itself.
	StartCreationSpan(ctx context.Context, registry, key string) (context.Context, trace.Span)

	// StartWaitSpan starts a span covering the time a caller spends
	// blocked on another caller's in-flight creation.
	StartWaitSpan(ctx context.Context, registry, key string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the
// provider before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartCreationSpan starts a span covering one singleton creation.
func (m *otelSpanManager) StartCreationSpan(ctx context.Context, registry, key string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "singlet.create",
		trace.WithAttributes(
			attribute.String("registry", registry),
			attribute.String("key", key),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartWaitSpan starts a span covering a blocked wait.
func (m *otelSpanManager) StartWaitSpan(ctx context.Context, registry, key string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "singlet.wait",
		trace.WithAttributes(
			attribute.String("registry", registry),
			attribute.String("key", key),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
