package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const Name = "github.com/stateforward/go-hybrid"

// Tracer returns the tracer of the globally registered provider.
func Tracer() trace.Tracer {
	return otel.Tracer(Name)
}

// Disabled returns a tracer that records nothing.
func Disabled() trace.Tracer {
	return noop.NewTracerProvider().Tracer(Name)
}

func Start(ctx context.Context, tracer trace.Tracer, operation string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	if tracer == nil {
		tracer = Tracer()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return tracer.Start(ctx, operation, trace.WithAttributes(attributes...))
}

// End closes span, marking it failed when err is non-nil.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
