package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts spans on the globally registered provider. Without an SDK
// provider the spans are no-ops.
type Tracer struct {
	t trace.Tracer
}

func NewTracer(name string) *Tracer {
	if name == "" {
		name = "ecommerce"
	}
	return &Tracer{t: otel.Tracer(name)}
}

func (t *Tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithAttributes(attrs...))
}

// End marks the span failed when err is non-nil, then ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
