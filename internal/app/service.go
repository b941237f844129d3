package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/hostfabriek/orderdesk/internal/domain"
)

// maxNumberAttempts bounds the order-number collision retry loop.
const maxNumberAttempts = 5

// OrderService orchestrates order assembly, lifecycle transitions and
// payment reconciliation.
type OrderService struct {
	orders    domain.OrderRepository
	customers domain.CustomerRepository
	domains   domain.DomainRepository
	packages  domain.PackageRepository
	validator domain.TransitionValidator
	enqueuer  domain.TaskEnqueuer
	registrar domain.RegistrarGateway
}

// NewOrderService creates a service with the given adapters.
func NewOrderService(
	orders domain.OrderRepository,
	customers domain.CustomerRepository,
	domains domain.DomainRepository,
	packages domain.PackageRepository,
	validator domain.TransitionValidator,
	enqueuer domain.TaskEnqueuer,
	registrar domain.RegistrarGateway,
) *OrderService {
	return &OrderService{
		orders:    orders,
		customers: customers,
		domains:   domains,
		packages:  packages,
		validator: validator,
		enqueuer:  enqueuer,
		registrar: registrar,
	}
}

// CustomerInput is the canonical customer shape accepted at the boundary.
type CustomerInput struct {
	Email      string
	FirstName  string
	LastName   string
	Company    string
	Phone      string
	Address    string
	PostalCode string
	City       string
	Country    string
	VATNumber  string
}

// DomainInput is one requested domain name. Register marks whether the
// name must be registered at the registrar, as opposed to being an
// existing domain pointed at the new hosting account.
type DomainInput struct {
	Name     string
	Register bool
}

// CreateOrderInput is the canonical order-assembly input, validated once
// at the boundary.
type CreateOrderInput struct {
	Customer     CustomerInput
	PackageID    string
	BillingCycle domain.BillingCycle
	Domains      []DomainInput
}

var domainNameRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)+$`)

func (in *CreateOrderInput) validate() error {
	if in.Customer.Email == "" || !strings.Contains(in.Customer.Email, "@") {
		return &domain.ValidationError{Field: "customer.email", Reason: "must be a valid email address"}
	}
	if in.Customer.FirstName == "" {
		return &domain.ValidationError{Field: "customer.first_name", Reason: "is required"}
	}
	if in.Customer.LastName == "" {
		return &domain.ValidationError{Field: "customer.last_name", Reason: "is required"}
	}

	switch in.BillingCycle {
	case "":
		in.BillingCycle = domain.CycleMonthly
	case domain.CycleMonthly, domain.CycleQuarterly, domain.CycleYearly:
	default:
		return &domain.ValidationError{Field: "billing_cycle", Reason: fmt.Sprintf("unknown cycle %q", in.BillingCycle)}
	}

	if in.PackageID == "" && len(in.Domains) == 0 {
		return &domain.ValidationError{Field: "order", Reason: "needs a hosting package or at least one domain"}
	}

	for _, d := range in.Domains {
		if !domainNameRe.MatchString(strings.ToLower(d.Name)) {
			return &domain.ValidationError{Field: "domains", Reason: fmt.Sprintf("%q is not a valid domain name", d.Name)}
		}
	}

	return nil
}

// CreateOrder assembles and persists an order: it finds or creates the
// customer by email, prices the package and requested domains, generates
// a unique order number, and writes the whole aggregate atomically. No
// partial orders are ever visible.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (domain.OrderAggregate, error) {
	if err := in.validate(); err != nil {
		return domain.OrderAggregate{}, err
	}

	var pkg *domain.HostingPackage
	if in.PackageID != "" {
		p, err := s.packages.GetByID(ctx, in.PackageID)
		if err != nil {
			if errors.Is(err, domain.ErrPackageNotFound) {
				return domain.OrderAggregate{}, &domain.InvalidPackageError{PackageID: in.PackageID}
			}
			return domain.OrderAggregate{}, fmt.Errorf("resolving package: %w", err)
		}
		if !p.Active {
			return domain.OrderAggregate{}, &domain.InvalidPackageError{PackageID: in.PackageID}
		}
		pkg = &p
	}

	now := time.Now().UTC()

	customer, isNew, err := s.resolveCustomer(ctx, in.Customer, now)
	if err != nil {
		return domain.OrderAggregate{}, err
	}

	quote := PriceOrder(pkg, in.BillingCycle, len(in.Domains))

	number, err := s.uniqueNumber(ctx, now)
	if err != nil {
		return domain.OrderAggregate{}, err
	}

	order := domain.Order{
		ID:           newID(),
		CustomerID:   customer.ID,
		PackageID:    in.PackageID,
		Number:       number,
		Status:       domain.OrderPending,
		BillingCycle: in.BillingCycle,
		Subtotal:     quote.Subtotal,
		Tax:          quote.Tax,
		Total:        quote.Total,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	orderDomains := make([]domain.Domain, 0, len(in.Domains))
	for _, d := range in.Domains {
		name := strings.ToLower(d.Name)
		orderDomains = append(orderDomains, domain.Domain{
			ID:         newID(),
			OrderID:    order.ID,
			CustomerID: customer.ID,
			Name:       name,
			TLD:        name[strings.LastIndex(name, ".")+1:],
			Register:   d.Register,
			Status:     domain.DomainPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	agg := domain.NewOrder{
		Customer:    customer,
		NewCustomer: isNew,
		Order:       order,
		Domains:     orderDomains,
	}
	if err := s.orders.CreateAggregate(ctx, agg); err != nil {
		return domain.OrderAggregate{}, fmt.Errorf("creating order %s: %w", number, err)
	}

	return domain.OrderAggregate{
		Order:    order,
		Customer: customer,
		Package:  pkg,
		Domains:  orderDomains,
	}, nil
}

// resolveCustomer finds an existing customer by exact email match (first
// match wins, no merge logic) or builds a fresh one for insertion in the
// order transaction.
func (s *OrderService) resolveCustomer(ctx context.Context, in CustomerInput, now time.Time) (domain.Customer, bool, error) {
	existing, err := s.customers.GetByEmail(ctx, in.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrCustomerNotFound) {
		return domain.Customer{}, false, fmt.Errorf("looking up customer: %w", err)
	}

	return domain.Customer{
		ID:         newID(),
		Email:      in.Email,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Company:    in.Company,
		Phone:      in.Phone,
		Address:    in.Address,
		PostalCode: in.PostalCode,
		City:       in.City,
		Country:    in.Country,
		VATNumber:  in.VATNumber,
		Status:     domain.CustomerPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, true, nil
}

func (s *OrderService) uniqueNumber(ctx context.Context, now time.Time) (string, error) {
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		number, err := newOrderNumber(now)
		if err != nil {
			return "", err
		}

		exists, err := s.orders.NumberExists(ctx, number)
		if err != nil {
			return "", fmt.Errorf("checking order number: %w", err)
		}
		if !exists {
			return number, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique order number after %d attempts", maxNumberAttempts)
}

// GetByNumber returns the hydrated order aggregate for an order number.
func (s *OrderService) GetByNumber(ctx context.Context, number string) (domain.OrderAggregate, error) {
	return s.orders.GetByNumber(ctx, number)
}

// List returns orders matching the given filter.
func (s *OrderService) List(ctx context.Context, filter domain.OrderListFilter) ([]domain.Order, error) {
	return s.orders.List(ctx, filter)
}

// ListPackages returns the active hosting package catalog.
func (s *OrderService) ListPackages(ctx context.Context) ([]domain.HostingPackage, error) {
	return s.packages.ListActive(ctx)
}

// CheckDomainAvailability asks the registrar whether a domain name can be
// registered.
func (s *OrderService) CheckDomainAvailability(ctx context.Context, name string) (bool, error) {
	if !domainNameRe.MatchString(strings.ToLower(name)) {
		return false, &domain.ValidationError{Field: "domain", Reason: fmt.Sprintf("%q is not a valid domain name", name)}
	}
	return s.registrar.CheckAvailability(ctx, strings.ToLower(name))
}

// Approve transitions a pending or paid order to processing, stamps
// approved_at, and enqueues the fulfillment task plan. The approval only
// enqueues and returns; it never waits for task completion.
func (s *OrderService) Approve(ctx context.Context, number string) (domain.OrderAggregate, error) {
	agg, err := s.orders.GetByNumber(ctx, number)
	if err != nil {
		return domain.OrderAggregate{}, err
	}

	next, err := s.validator.ApplyOrder(ctx, agg.Order.Status, domain.EventApprove)
	if err != nil {
		return domain.OrderAggregate{}, err
	}

	now := time.Now().UTC()
	change := domain.OrderStatusChange{
		From:       agg.Order.Status,
		To:         next,
		ApprovedAt: &now,
	}
	if err := s.orders.Transition(ctx, agg.Order.ID, change); err != nil {
		return domain.OrderAggregate{}, fmt.Errorf("approving order %s: %w", number, err)
	}

	agg.Order.Status = next
	if agg.Order.ApprovedAt == nil {
		agg.Order.ApprovedAt = &now
	}

	if err := s.enqueuer.Enqueue(ctx, domain.FulfillmentPlan(agg)); err != nil {
		// The enqueue is a separate write from the status change. A failed
		// enqueue would otherwise strand the order in processing with no
		// tasks; put it back so it can be re-approved.
		revert := domain.OrderStatusChange{From: next, To: change.From}
		if revertErr := s.orders.Transition(ctx, agg.Order.ID, revert); revertErr != nil {
			slog.ErrorContext(ctx, "could not revert approval after enqueue failure",
				"order_number", agg.Order.Number,
				"error", revertErr.Error(),
			)
		}
		return domain.OrderAggregate{}, fmt.Errorf("enqueuing fulfillment for %s: %w", number, err)
	}

	slog.InfoContext(ctx, "order approved",
		"order_number", agg.Order.Number,
		"customer_id", agg.Customer.ID,
	)

	return agg, nil
}

// Cancel transitions an order to cancelled from any non-terminal status
// and cascades the cancellation to every child domain. Cancelling an
// already-cancelled order is a no-op, not an error.
func (s *OrderService) Cancel(ctx context.Context, number, reason string) (domain.OrderAggregate, error) {
	agg, err := s.orders.GetByNumber(ctx, number)
	if err != nil {
		return domain.OrderAggregate{}, err
	}

	if agg.Order.Status == domain.OrderCancelled {
		return agg, nil
	}

	next, err := s.validator.ApplyOrder(ctx, agg.Order.Status, domain.EventCancel)
	if err != nil {
		return domain.OrderAggregate{}, err
	}

	now := time.Now().UTC()
	change := domain.OrderStatusChange{
		From:               agg.Order.Status,
		To:                 next,
		CancelledAt:        &now,
		CancellationReason: reason,
	}
	if err := s.orders.Transition(ctx, agg.Order.ID, change); err != nil {
		return domain.OrderAggregate{}, fmt.Errorf("cancelling order %s: %w", number, err)
	}

	if err := s.domains.CancelByOrder(ctx, agg.Order.ID); err != nil {
		return domain.OrderAggregate{}, fmt.Errorf("cancelling domains of %s: %w", number, err)
	}

	agg.Order.Status = next
	agg.Order.CancelledAt = &now
	agg.Order.CancellationReason = reason
	for i := range agg.Domains {
		agg.Domains[i].Status = domain.DomainCancelled
	}

	slog.InfoContext(ctx, "order cancelled",
		"order_number", agg.Order.Number,
		"reason", reason,
	)

	return agg, nil
}

// Suspend transitions an active order to suspended.
func (s *OrderService) Suspend(ctx context.Context, number string) (domain.OrderAggregate, error) {
	return s.simpleTransition(ctx, number, domain.EventSuspend)
}

// Reactivate transitions a suspended order back to active.
func (s *OrderService) Reactivate(ctx context.Context, number string) (domain.OrderAggregate, error) {
	return s.simpleTransition(ctx, number, domain.EventReactivate)
}

func (s *OrderService) simpleTransition(ctx context.Context, number string, event domain.OrderEvent) (domain.OrderAggregate, error) {
	agg, err := s.orders.GetByNumber(ctx, number)
	if err != nil {
		return domain.OrderAggregate{}, err
	}

	next, err := s.validator.ApplyOrder(ctx, agg.Order.Status, event)
	if err != nil {
		return domain.OrderAggregate{}, err
	}

	change := domain.OrderStatusChange{From: agg.Order.Status, To: next}
	if err := s.orders.Transition(ctx, agg.Order.ID, change); err != nil {
		return domain.OrderAggregate{}, fmt.Errorf("applying %s to order %s: %w", event, number, err)
	}

	agg.Order.Status = next
	return agg, nil
}

// PaymentStatus is the provider-reported outcome of a payment.
type PaymentStatus string

const (
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentExpired  PaymentStatus = "expired"
	PaymentCanceled PaymentStatus = "canceled"
)

// PaymentEvent is a payment-status callback or poll result. OrderID comes
// from the provider's metadata correlation field; the order is looked up
// by it, never re-derived.
type PaymentEvent struct {
	PaymentRef string
	Status     PaymentStatus
	OrderID    string
}

// HandlePaymentEvent maps a provider payment status onto the order. Only
// orders currently in pending are eligible: a duplicate webhook arriving
// after the order already left pending is a no-op, not an error. A
// confirmed payment marks the order paid, auto-approves it, and enqueues
// the fulfillment sequence.
func (s *OrderService) HandlePaymentEvent(ctx context.Context, ev PaymentEvent) (domain.OrderAggregate, error) {
	agg, err := s.orders.GetByID(ctx, ev.OrderID)
	if err != nil {
		return domain.OrderAggregate{}, err
	}

	if agg.Order.Status != domain.OrderPending {
		slog.InfoContext(ctx, "payment event ignored, order no longer pending",
			"order_number", agg.Order.Number,
			"order_status", string(agg.Order.Status),
			"payment_ref", ev.PaymentRef,
		)
		return agg, nil
	}

	switch ev.Status {
	case PaymentPaid:
		return s.confirmPayment(ctx, agg)

	case PaymentFailed, PaymentExpired:
		next, err := s.validator.ApplyOrder(ctx, agg.Order.Status, domain.EventPaymentFailed)
		if err != nil {
			return domain.OrderAggregate{}, err
		}
		change := domain.OrderStatusChange{From: agg.Order.Status, To: next}
		if err := s.orders.Transition(ctx, agg.Order.ID, change); err != nil {
			return s.resolveRace(ctx, agg.Order.Number, err)
		}
		agg.Order.Status = next
		return agg, nil

	case PaymentCanceled:
		return s.Cancel(ctx, agg.Order.Number, "payment cancelled by customer")

	default:
		return domain.OrderAggregate{}, &domain.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown payment status %q", ev.Status)}
	}
}

func (s *OrderService) confirmPayment(ctx context.Context, agg domain.OrderAggregate) (domain.OrderAggregate, error) {
	next, err := s.validator.ApplyOrder(ctx, agg.Order.Status, domain.EventPaymentConfirmed)
	if err != nil {
		return domain.OrderAggregate{}, err
	}

	now := time.Now().UTC()
	change := domain.OrderStatusChange{
		From:   agg.Order.Status,
		To:     next,
		PaidAt: &now,
	}
	if err := s.orders.Transition(ctx, agg.Order.ID, change); err != nil {
		return s.resolveRace(ctx, agg.Order.Number, err)
	}
	agg.Order.Status = next
	agg.Order.PaidAt = &now

	// Paid orders are approved automatically; manual approval remains for
	// orders paid out of band.
	return s.Approve(ctx, agg.Order.Number)
}

// resolveRace turns a lost compare-and-swap race into the no-op result the
// at-most-once guarantee requires: the order is re-read and returned as-is.
func (s *OrderService) resolveRace(ctx context.Context, number string, err error) (domain.OrderAggregate, error) {
	if !errors.Is(err, domain.ErrStatusConflict) {
		return domain.OrderAggregate{}, err
	}
	return s.orders.GetByNumber(ctx, number)
}

// ApproveCustomer moves a customer account to approved.
func (s *OrderService) ApproveCustomer(ctx context.Context, customerID string) (domain.Customer, error) {
	if err := s.customers.UpdateStatus(ctx, customerID, domain.CustomerApproved); err != nil {
		return domain.Customer{}, err
	}
	return s.customers.GetByID(ctx, customerID)
}

// DueForInvoicing returns active orders whose next billing date falls
// within the window and that carry no invoice reference yet.
func (s *OrderService) DueForInvoicing(ctx context.Context, daysAhead int) ([]domain.Order, error) {
	return s.orders.ListDueForInvoicing(ctx, daysAhead)
}
