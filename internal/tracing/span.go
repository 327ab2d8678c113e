package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartRunSpan starts the span covering one complete send run.
func StartRunSpan(ctx context.Context, tracer trace.Tracer, target string, workers, payloadSize int, duration time.Duration) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "udp.run",
		trace.WithSpanKind(trace.SpanKindProducer),
	)
	span.SetAttributes(
		attribute.String("network.transport", "udp"),
		attribute.String("packetfire.target", target),
		attribute.Int("packetfire.workers", workers),
		attribute.Int("packetfire.payload_size", payloadSize),
		attribute.String("packetfire.duration", duration.String()),
	)
	return ctx, span
}

// StartWorkerSpan starts the span covering one worker's lifetime.
func StartWorkerSpan(ctx context.Context, tracer trace.Tracer, worker int) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "udp.worker",
		trace.WithSpanKind(trace.SpanKindProducer),
	)
	span.SetAttributes(attribute.Int("packetfire.worker", worker))
	return ctx, span
}

// EndSpan finishes a span, recording error status if applicable.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
