package fsm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "fsm"

// startSpan creates a span for a machine operation.
// The caller is responsible for calling finishSpan.
//
//nolint:spancheck // Span lifecycle managed by caller (factory pattern)
func (m *Machine) startSpan(ctx context.Context, op string, event string) (context.Context, trace.Span) {
	tracer := m.tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	ctx, span := tracer.Start(ctx, "fsm."+op)
	span.SetAttributes(
		attribute.String("fsm.machine", m.name),
		attribute.String("fsm.machine_id", m.id),
		attribute.String("fsm.event", event),
	)

	return ctx, span
}

// finishSpan records the outcome on the span and ends it.
func finishSpan(span trace.Span, src, dst string, err error) {
	span.SetAttributes(
		attribute.String("fsm.src", src),
		attribute.String("fsm.dst", dst),
		attribute.String("fsm.outcome", outcome(err)),
	)

	if isFailure(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "completed")
	}

	span.End()
}
