package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hostfabriek/orderdesk/internal/domain"
)

// TracingEnqueuer wraps a domain.TaskEnqueuer with OpenTelemetry tracing.
type TracingEnqueuer struct {
	next   domain.TaskEnqueuer
	tracer trace.Tracer
}

// Compile-time check: TracingEnqueuer implements domain.TaskEnqueuer.
var _ domain.TaskEnqueuer = (*TracingEnqueuer)(nil)

// NewTracingEnqueuer creates a tracing decorator around the given enqueuer.
func NewTracingEnqueuer(next domain.TaskEnqueuer) *TracingEnqueuer {
	return &TracingEnqueuer{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (e *TracingEnqueuer) Enqueue(ctx context.Context, tasks []domain.FulfillmentTask) error {
	kinds := make([]string, len(tasks))
	for i, t := range tasks {
		kinds[i] = string(t.Kind)
	}

	ctx, span := e.tracer.Start(ctx, "TaskEnqueuer.Enqueue",
		trace.WithAttributes(
			attribute.Int("tasks.count", len(tasks)),
			attribute.StringSlice("tasks.kinds", kinds),
		),
	)
	defer span.End()

	err := e.next.Enqueue(ctx, tasks)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
