package domain

import "time"

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderPaid       OrderStatus = "paid"
	OrderProcessing OrderStatus = "processing"
	OrderActive     OrderStatus = "active"
	OrderSuspended  OrderStatus = "suspended"
	OrderFailed     OrderStatus = "failed"
	OrderCancelled  OrderStatus = "cancelled"
)

// OrderEvent represents an action that triggers an order state transition.
type OrderEvent string

const (
	EventPaymentConfirmed  OrderEvent = "payment_confirmed"
	EventPaymentFailed     OrderEvent = "payment_failed"
	EventApprove           OrderEvent = "approve"
	EventProvisionComplete OrderEvent = "provision_complete"
	EventProvisionFailed   OrderEvent = "provision_failed"
	EventSuspend           OrderEvent = "suspend"
	EventReactivate        OrderEvent = "reactivate"
	EventCancel            OrderEvent = "cancel"
)

// OrderTransition defines a valid state change: an event moves an order
// from Src to Dst.
type OrderTransition struct {
	Event OrderEvent
	Src   OrderStatus
	Dst   OrderStatus
}

// OrderTransitions defines all valid state changes in the order lifecycle.
// This is domain knowledge consumed by the FSM adapter. provision_failed
// reverts the order to pending so an operator can re-approve it after a
// permanently failed provisioning run.
var OrderTransitions = []OrderTransition{
	{Event: EventPaymentConfirmed, Src: OrderPending, Dst: OrderPaid},
	{Event: EventPaymentFailed, Src: OrderPending, Dst: OrderFailed},
	{Event: EventApprove, Src: OrderPending, Dst: OrderProcessing},
	{Event: EventApprove, Src: OrderPaid, Dst: OrderProcessing},
	{Event: EventProvisionComplete, Src: OrderProcessing, Dst: OrderActive},
	{Event: EventProvisionFailed, Src: OrderProcessing, Dst: OrderPending},
	{Event: EventSuspend, Src: OrderActive, Dst: OrderSuspended},
	{Event: EventReactivate, Src: OrderSuspended, Dst: OrderActive},
	{Event: EventCancel, Src: OrderPending, Dst: OrderCancelled},
	{Event: EventCancel, Src: OrderPaid, Dst: OrderCancelled},
	{Event: EventCancel, Src: OrderProcessing, Dst: OrderCancelled},
	{Event: EventCancel, Src: OrderActive, Dst: OrderCancelled},
	{Event: EventCancel, Src: OrderSuspended, Dst: OrderCancelled},
	{Event: EventCancel, Src: OrderFailed, Dst: OrderCancelled},
}

// BillingCycle determines which package rate an order is priced at.
type BillingCycle string

const (
	CycleMonthly   BillingCycle = "monthly"
	CycleQuarterly BillingCycle = "quarterly"
	CycleYearly    BillingCycle = "yearly"
)

// Order is a customer's request for a hosting package plus zero or more
// domains. Monetary fields are fixed at creation and never recomputed.
// Each milestone timestamp is set at most once, by the transition that
// reaches that milestone, and never cleared.
type Order struct {
	ID         string
	CustomerID string
	PackageID  string // empty for domain-only orders
	Number     string // immutable, unique, human-readable

	Status       OrderStatus
	BillingCycle BillingCycle

	Subtotal float64
	Tax      float64
	Total    float64

	PaidAt        *time.Time
	ApprovedAt    *time.Time
	ProvisionedAt *time.Time
	ActivatedAt   *time.Time
	CancelledAt   *time.Time

	CancellationReason string
	NextBillingAt      *time.Time

	// InvoiceRef is the external invoice id, set at most once by a
	// successful invoicing task.
	InvoiceRef string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderAggregate is the fully hydrated order returned by assembly and
// read operations.
type OrderAggregate struct {
	Order    Order
	Customer Customer
	Package  *HostingPackage // nil for domain-only orders
	Domains  []Domain
}

// PrimaryDomain returns the first domain of the order, used as the
// subscription site name during provisioning.
func (a OrderAggregate) PrimaryDomain() *Domain {
	if len(a.Domains) == 0 {
		return nil
	}
	return &a.Domains[0]
}
