package domain

import (
	"context"
	"time"
)

// NewOrder is the atomic creation unit produced by order assembly: either
// all of its rows are persisted or none are.
type NewOrder struct {
	Customer Customer
	// NewCustomer marks that the customer row must be inserted in the same
	// transaction (first order for this email address).
	NewCustomer bool
	Order       Order
	Domains     []Domain
}

// OrderListFilter holds optional criteria for listing orders.
type OrderListFilter struct {
	Status     *OrderStatus
	CustomerID string
	Limit      int
	Offset     int
}

// OrderStatusChange is a compare-and-swap status update plus the milestone
// fields the transition is allowed to stamp. Nil timestamp fields are left
// untouched; a set field is written only if the column is still NULL, so a
// milestone is recorded at most once.
type OrderStatusChange struct {
	From OrderStatus
	To   OrderStatus

	PaidAt        *time.Time
	ApprovedAt    *time.Time
	ProvisionedAt *time.Time
	ActivatedAt   *time.Time
	CancelledAt   *time.Time

	CancellationReason string
}

// OrderRepository defines the persistence contract for orders and their
// aggregates.
type OrderRepository interface {
	CreateAggregate(ctx context.Context, agg NewOrder) error
	GetByID(ctx context.Context, id string) (OrderAggregate, error)
	GetByNumber(ctx context.Context, number string) (OrderAggregate, error)
	NumberExists(ctx context.Context, number string) (bool, error)
	List(ctx context.Context, filter OrderListFilter) ([]Order, error)
	// Transition applies a compare-and-swap status update. It returns
	// ErrStatusConflict when the stored status no longer equals From.
	Transition(ctx context.Context, id string, change OrderStatusChange) error
	SetInvoiceRef(ctx context.Context, id, ref string) error
	// ListDueForInvoicing returns active orders whose next billing date
	// falls within the window and that have no invoice reference yet.
	ListDueForInvoicing(ctx context.Context, daysAhead int) ([]Order, error)
}

// CustomerRepository defines the persistence contract for customers.
// The two Set*Ref methods are set-once: a call against a customer that
// already carries the reference leaves it unchanged.
type CustomerRepository interface {
	Create(ctx context.Context, c Customer) error
	GetByID(ctx context.Context, id string) (Customer, error)
	GetByEmail(ctx context.Context, email string) (Customer, error)
	UpdateStatus(ctx context.Context, id string, status CustomerStatus) error
	SetHostingAccountRef(ctx context.Context, id, ref string) error
	SetAccountingContactRef(ctx context.Context, id, ref string) error
}

// DomainRepository defines the persistence contract for domains.
type DomainRepository interface {
	GetByID(ctx context.Context, id string) (Domain, error)
	ListByOrder(ctx context.Context, orderID string) ([]Domain, error)
	// Transition applies a compare-and-swap status update, like its order
	// counterpart.
	Transition(ctx context.Context, id string, from, to DomainStatus) error
	SetRegistration(ctx context.Context, id, registrarRef string, registeredAt, expiresAt time.Time) error
	SetHostingRef(ctx context.Context, id, ref string) error
	// CancelByOrder cascades an order cancellation to every child domain.
	CancelByOrder(ctx context.Context, orderID string) error
}

// PackageRepository defines read access to the hosting package catalog.
type PackageRepository interface {
	GetByID(ctx context.Context, id string) (HostingPackage, error)
	ListActive(ctx context.Context) ([]HostingPackage, error)
}

// TransitionValidator is the single authority for which lifecycle
// transition is legal from which state.
type TransitionValidator interface {
	ApplyOrder(ctx context.Context, current OrderStatus, event OrderEvent) (OrderStatus, error)
	ApplyDomain(ctx context.Context, current DomainStatus, event DomainEvent) (DomainStatus, error)
}

// TaskEnqueuer schedules fulfillment tasks for asynchronous execution.
// The triggering transition only enqueues and returns; it never blocks on
// task completion.
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, tasks []FulfillmentTask) error
}

// HostingGateway provisions accounts and subscriptions on the hosting
// control panel. Every call is fallible and retryable.
type HostingGateway interface {
	CreateCustomerAccount(ctx context.Context, profile ContactProfile) (accountRef string, err error)
	CreateSubscription(ctx context.Context, accountRef, domainName, planName string) (subscriptionRef string, err error)
}

// RegistrarGateway checks and registers domain names.
type RegistrarGateway interface {
	CheckAvailability(ctx context.Context, domainName string) (bool, error)
	RegisterDomain(ctx context.Context, domainName string, contact ContactProfile, periodYears int) (registrationRef string, err error)
}

// InvoiceLine is one line item on an external invoice.
type InvoiceLine struct {
	Description string
	Price       float64
	Quantity    int
}

// AccountingGateway syncs contacts and creates invoices on the external
// accounting service.
type AccountingGateway interface {
	CreateContact(ctx context.Context, profile ContactProfile) (contactRef string, err error)
	CreateInvoice(ctx context.Context, contactRef string, lines []InvoiceLine, reference string) (invoiceRef string, err error)
}
