package otel_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	adapter "github.com/hostfabriek/orderdesk/internal/adapter/otel"
	"github.com/hostfabriek/orderdesk/internal/domain"
)

// --- Test tracer setup ---

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter
}

// --- Mock repository ---

type mockRepo struct {
	aggs    map[string]domain.OrderAggregate
	numbers map[string]string
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		aggs:    make(map[string]domain.OrderAggregate),
		numbers: make(map[string]string),
	}
}

func (m *mockRepo) put(agg domain.OrderAggregate) {
	m.aggs[agg.Order.ID] = agg
	m.numbers[agg.Order.Number] = agg.Order.ID
}

func (m *mockRepo) CreateAggregate(_ context.Context, agg domain.NewOrder) error {
	m.put(domain.OrderAggregate{Order: agg.Order, Customer: agg.Customer, Domains: agg.Domains})
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (domain.OrderAggregate, error) {
	agg, ok := m.aggs[id]
	if !ok {
		return domain.OrderAggregate{}, domain.ErrOrderNotFound
	}
	return agg, nil
}

func (m *mockRepo) GetByNumber(_ context.Context, number string) (domain.OrderAggregate, error) {
	id, ok := m.numbers[number]
	if !ok {
		return domain.OrderAggregate{}, domain.ErrOrderNotFound
	}
	return m.aggs[id], nil
}

func (m *mockRepo) NumberExists(_ context.Context, number string) (bool, error) {
	_, ok := m.numbers[number]
	return ok, nil
}

func (m *mockRepo) List(_ context.Context, _ domain.OrderListFilter) ([]domain.Order, error) {
	out := make([]domain.Order, 0, len(m.aggs))
	for _, agg := range m.aggs {
		out = append(out, agg.Order)
	}
	return out, nil
}

func (m *mockRepo) Transition(_ context.Context, id string, change domain.OrderStatusChange) error {
	agg, ok := m.aggs[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if agg.Order.Status != change.From {
		return domain.ErrStatusConflict
	}
	agg.Order.Status = change.To
	m.aggs[id] = agg
	return nil
}

func (m *mockRepo) SetInvoiceRef(_ context.Context, id, ref string) error {
	agg, ok := m.aggs[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if agg.Order.InvoiceRef == "" {
		agg.Order.InvoiceRef = ref
		m.aggs[id] = agg
	}
	return nil
}

func (m *mockRepo) ListDueForInvoicing(_ context.Context, _ int) ([]domain.Order, error) {
	return nil, nil
}

func sampleAggregate(id, number string) domain.OrderAggregate {
	return domain.OrderAggregate{
		Order:    domain.Order{ID: id, Number: number, Status: domain.OrderPending},
		Customer: domain.Customer{ID: "cust-1"},
	}
}

// --- Tests ---

func TestTracingOrderRepository_CreateAggregate_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingOrderRepository(inner)

	err := repo.CreateAggregate(context.Background(), domain.NewOrder{
		Customer:    domain.Customer{ID: "cust-1"},
		NewCustomer: true,
		Order:       domain.Order{ID: "ord-1", Number: "HF-20260830-ABCDEF"},
		Domains:     []domain.Domain{{ID: "dom-1"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "OrderRepository.CreateAggregate" {
		t.Errorf("span name = %q", spans[0].Name)
	}

	assertAttribute(t, spans[0], "order.id", "ord-1")
	assertAttribute(t, spans[0], "order.number", "HF-20260830-ABCDEF")
	assertAttribute(t, spans[0], "order.domains", "1")
}

func TestTracingOrderRepository_GetByNumber_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingOrderRepository(inner)

	_, err := repo.GetByNumber(context.Background(), "HF-20260830-ZZZZZZ")
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[0].Status.Code, codes.Error)
	}

	if len(spans[0].Events) == 0 {
		t.Error("expected error event on span")
	}
}

func TestTracingOrderRepository_List_RecordsResultCount(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingOrderRepository(inner)

	inner.put(sampleAggregate("ord-1", "HF-20260830-AAAAAA"))
	inner.put(sampleAggregate("ord-2", "HF-20260830-BBBBBB"))

	orders, err := repo.List(context.Background(), domain.OrderListFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders) != 2 {
		t.Errorf("got %d orders, want 2", len(orders))
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	assertAttribute(t, spans[0], "result.count", "2")
}

func TestTracingOrderRepository_Transition_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingOrderRepository(inner)

	inner.put(sampleAggregate("ord-1", "HF-20260830-AAAAAA"))

	err := repo.Transition(context.Background(), "ord-1", domain.OrderStatusChange{
		From: domain.OrderPending,
		To:   domain.OrderPaid,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "OrderRepository.Transition" {
		t.Errorf("span name = %q", spans[0].Name)
	}

	assertAttribute(t, spans[0], "transition.from", "pending")
	assertAttribute(t, spans[0], "transition.to", "paid")
}

func TestTracingOrderRepository_Transition_ConflictRecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingOrderRepository(inner)

	inner.put(sampleAggregate("ord-1", "HF-20260830-AAAAAA"))

	err := repo.Transition(context.Background(), "ord-1", domain.OrderStatusChange{
		From: domain.OrderActive,
		To:   domain.OrderSuspended,
	})
	if !errors.Is(err, domain.ErrStatusConflict) {
		t.Fatalf("expected ErrStatusConflict, got %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[0].Status.Code, codes.Error)
	}
}

// --- Enqueuer decorator ---

type recordingEnqueuer struct {
	batches [][]domain.FulfillmentTask
	err     error
}

func (e *recordingEnqueuer) Enqueue(_ context.Context, tasks []domain.FulfillmentTask) error {
	if e.err != nil {
		return e.err
	}
	e.batches = append(e.batches, tasks)
	return nil
}

func TestTracingEnqueuer_RecordsTaskKinds(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := &recordingEnqueuer{}
	enq := adapter.NewTracingEnqueuer(inner)

	tasks := []domain.FulfillmentTask{
		{Kind: domain.TaskSyncCustomer, OrderID: "ord-1"},
		{Kind: domain.TaskCreateInvoice, OrderID: "ord-1"},
	}
	if err := enq.Enqueue(context.Background(), tasks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.batches) != 1 {
		t.Fatalf("inner enqueuer got %d batches, want 1", len(inner.batches))
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "TaskEnqueuer.Enqueue" {
		t.Errorf("span name = %q", spans[0].Name)
	}

	assertAttribute(t, spans[0], "tasks.count", "2")
	assertAttribute(t, spans[0], "tasks.kinds", `["sync_customer","create_invoice"]`)
}

func TestTracingEnqueuer_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := &recordingEnqueuer{err: errors.New("queue unavailable")}
	enq := adapter.NewTracingEnqueuer(inner)

	err := enq.Enqueue(context.Background(), []domain.FulfillmentTask{
		{Kind: domain.TaskSyncCustomer, OrderID: "ord-1"},
	})
	if err == nil {
		t.Fatal("expected error from inner enqueuer")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[0].Status.Code, codes.Error)
	}
}

// assertAttribute checks that a span has an attribute with the given key and string value.
func assertAttribute(t *testing.T, span tracetest.SpanStub, key, want string) {
	t.Helper()
	for _, attr := range span.Attributes {
		if string(attr.Key) == key {
			got := attr.Value.Emit()
			if got != want {
				t.Errorf("attribute %q = %q, want %q", key, got, want)
			}
			return
		}
	}
	t.Errorf("attribute %q not found on span %q", key, span.Name)
}
