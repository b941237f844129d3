package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hostfabriek/orderdesk/internal/domain"
)

const tracerName = "github.com/hostfabriek/orderdesk/internal/adapter/otel"

// TracingOrderRepository wraps a domain.OrderRepository with OpenTelemetry
// tracing. Each method creates a span with semantic attributes and records
// errors.
type TracingOrderRepository struct {
	next   domain.OrderRepository
	tracer trace.Tracer
}

// Compile-time check: TracingOrderRepository implements domain.OrderRepository.
var _ domain.OrderRepository = (*TracingOrderRepository)(nil)

// NewTracingOrderRepository creates a tracing decorator around the given
// repository.
func NewTracingOrderRepository(next domain.OrderRepository) *TracingOrderRepository {
	return &TracingOrderRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingOrderRepository) CreateAggregate(ctx context.Context, agg domain.NewOrder) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.CreateAggregate",
		trace.WithAttributes(
			attribute.String("order.id", agg.Order.ID),
			attribute.String("order.number", agg.Order.Number),
			attribute.Bool("order.new_customer", agg.NewCustomer),
			attribute.Int("order.domains", len(agg.Domains)),
		),
	)
	defer span.End()

	err := r.next.CreateAggregate(ctx, agg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingOrderRepository) GetByID(ctx context.Context, id string) (domain.OrderAggregate, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.GetByID",
		trace.WithAttributes(attribute.String("order.id", id)),
	)
	defer span.End()

	agg, err := r.next.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return agg, err
}

func (r *TracingOrderRepository) GetByNumber(ctx context.Context, number string) (domain.OrderAggregate, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.GetByNumber",
		trace.WithAttributes(attribute.String("order.number", number)),
	)
	defer span.End()

	agg, err := r.next.GetByNumber(ctx, number)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return agg, err
}

func (r *TracingOrderRepository) NumberExists(ctx context.Context, number string) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.NumberExists",
		trace.WithAttributes(attribute.String("order.number", number)),
	)
	defer span.End()

	exists, err := r.next.NumberExists(ctx, number)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return exists, err
}

func (r *TracingOrderRepository) List(ctx context.Context, filter domain.OrderListFilter) ([]domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.List",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer span.End()

	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}

	orders, err := r.next.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(orders)))
	}
	return orders, err
}

func (r *TracingOrderRepository) Transition(ctx context.Context, id string, change domain.OrderStatusChange) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.Transition",
		trace.WithAttributes(
			attribute.String("order.id", id),
			attribute.String("transition.from", string(change.From)),
			attribute.String("transition.to", string(change.To)),
		),
	)
	defer span.End()

	err := r.next.Transition(ctx, id, change)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingOrderRepository) SetInvoiceRef(ctx context.Context, id, ref string) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.SetInvoiceRef",
		trace.WithAttributes(attribute.String("order.id", id)),
	)
	defer span.End()

	err := r.next.SetInvoiceRef(ctx, id, ref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingOrderRepository) ListDueForInvoicing(ctx context.Context, daysAhead int) ([]domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.ListDueForInvoicing",
		trace.WithAttributes(attribute.Int("window.days", daysAhead)),
	)
	defer span.End()

	orders, err := r.next.ListDueForInvoicing(ctx, daysAhead)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(orders)))
	}
	return orders, err
}
