package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hostfabriek/orderdesk/internal/domain"
)

// FulfillmentService implements the bodies of the four asynchronous
// fulfillment tasks. Each method is idempotent and safe to re-run after
// queue redelivery: progress is judged from persisted state, never from
// in-memory sequencing.
type FulfillmentService struct {
	orders     domain.OrderRepository
	customers  domain.CustomerRepository
	domains    domain.DomainRepository
	validator  domain.TransitionValidator
	hosting    domain.HostingGateway
	registrar  domain.RegistrarGateway
	accounting domain.AccountingGateway
}

// NewFulfillmentService creates a fulfillment service with the given
// adapters.
func NewFulfillmentService(
	orders domain.OrderRepository,
	customers domain.CustomerRepository,
	domains domain.DomainRepository,
	validator domain.TransitionValidator,
	hosting domain.HostingGateway,
	registrar domain.RegistrarGateway,
	accounting domain.AccountingGateway,
) *FulfillmentService {
	return &FulfillmentService{
		orders:     orders,
		customers:  customers,
		domains:    domains,
		validator:  validator,
		hosting:    hosting,
		registrar:  registrar,
		accounting: accounting,
	}
}

// SyncCustomer creates the customer's contact on the accounting service.
// Exactly one successful sync ever sets the contact reference; any later
// attempt observes the persisted reference and returns without a call.
func (s *FulfillmentService) SyncCustomer(ctx context.Context, customerID string) error {
	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		return err
	}

	if customer.AccountingContactRef != "" {
		slog.InfoContext(ctx, "customer already synced to accounting",
			"customer_id", customer.ID,
			"contact_ref", customer.AccountingContactRef,
		)
		return nil
	}

	ref, err := s.accounting.CreateContact(ctx, customer.Profile())
	if err != nil {
		return fmt.Errorf("syncing customer %s: %w", customer.ID, err)
	}

	if err := s.customers.SetAccountingContactRef(ctx, customer.ID, ref); err != nil {
		return fmt.Errorf("storing contact ref for %s: %w", customer.ID, err)
	}

	slog.InfoContext(ctx, "customer synced to accounting",
		"customer_id", customer.ID,
		"contact_ref", ref,
	)
	return nil
}

// ProvisionHosting creates the customer's hosting-panel account if absent,
// then a subscription for the order's primary domain, and activates the
// order. It runs only against orders in processing: an order that has been
// cancelled or reverted since dispatch is skipped, not failed.
func (s *FulfillmentService) ProvisionHosting(ctx context.Context, orderID string) error {
	agg, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if agg.Order.Status != domain.OrderProcessing {
		slog.InfoContext(ctx, "skipping provisioning, order not in processing",
			"order_number", agg.Order.Number,
			"order_status", string(agg.Order.Status),
		)
		return nil
	}

	accountRef := agg.Customer.HostingAccountRef
	if accountRef == "" {
		accountRef, err = s.hosting.CreateCustomerAccount(ctx, agg.Customer.Profile())
		if err != nil {
			return fmt.Errorf("creating hosting account for order %s: %w", agg.Order.Number, err)
		}
		if err := s.customers.SetHostingAccountRef(ctx, agg.Customer.ID, accountRef); err != nil {
			return fmt.Errorf("storing hosting account ref: %w", err)
		}
		slog.InfoContext(ctx, "hosting account created",
			"customer_id", agg.Customer.ID,
			"account_ref", accountRef,
		)
	}

	if primary := agg.PrimaryDomain(); primary != nil && agg.Package != nil {
		subRef, err := s.hosting.CreateSubscription(ctx, accountRef, primary.Name, agg.Package.Name)
		if err != nil {
			return fmt.Errorf("creating subscription for order %s: %w", agg.Order.Number, err)
		}
		if err := s.domains.SetHostingRef(ctx, primary.ID, subRef); err != nil {
			return fmt.Errorf("storing subscription ref: %w", err)
		}
		// A domain awaiting registration stays in its lifecycle until the
		// registration task has run; activating it here would put it past
		// the registrable states and the registrar would never be called.
		if !primary.Register || primary.RegisteredAt != nil {
			s.activateDomain(ctx, *primary)
		}
		slog.InfoContext(ctx, "subscription created",
			"order_number", agg.Order.Number,
			"domain", primary.Name,
			"subscription_ref", subRef,
		)
	}

	now := time.Now().UTC()
	change := domain.OrderStatusChange{
		From:          domain.OrderProcessing,
		To:            domain.OrderActive,
		ProvisionedAt: &now,
		ActivatedAt:   &now,
	}
	if err := s.orders.Transition(ctx, agg.Order.ID, change); err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			// A concurrent cancel won the status race; the provisioning
			// result stays recorded on the customer and domain rows.
			slog.WarnContext(ctx, "order status changed during provisioning",
				"order_number", agg.Order.Number,
			)
			return nil
		}
		return fmt.Errorf("activating order %s: %w", agg.Order.Number, err)
	}

	slog.InfoContext(ctx, "hosting provisioned", "order_number", agg.Order.Number)
	return nil
}

// activateDomain moves a domain to active where its lifecycle allows it.
// A domain that is already active, or terminal, is left as-is.
func (s *FulfillmentService) activateDomain(ctx context.Context, d domain.Domain) {
	next, err := s.validator.ApplyDomain(ctx, d.Status, domain.EventDomainActivate)
	if err != nil {
		return
	}
	if err := s.domains.Transition(ctx, d.ID, d.Status, next); err != nil {
		slog.WarnContext(ctx, "could not activate domain",
			"domain", d.Name,
			"error", err.Error(),
		)
	}
}

// RevertProvisioning rolls a processing order back to pending after
// provisioning has permanently failed, so an operator can re-approve it.
func (s *FulfillmentService) RevertProvisioning(ctx context.Context, orderID string) error {
	agg, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if agg.Order.Status != domain.OrderProcessing {
		return nil
	}

	change := domain.OrderStatusChange{From: domain.OrderProcessing, To: domain.OrderPending}
	if err := s.orders.Transition(ctx, agg.Order.ID, change); err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			return nil
		}
		return fmt.Errorf("reverting order %s: %w", agg.Order.Number, err)
	}

	slog.ErrorContext(ctx, "provisioning failed permanently, order reverted to pending",
		"order_number", agg.Order.Number,
	)
	return nil
}

// RegisterDomain checks availability and registers one domain for the
// fixed registration period. An unavailable name is a terminal outcome,
// not an error; any provider failure marks the domain failed and returns
// the error so the task is retried.
func (s *FulfillmentService) RegisterDomain(ctx context.Context, domainID string) error {
	d, err := s.domains.GetByID(ctx, domainID)
	if err != nil {
		return err
	}

	switch d.Status {
	case domain.DomainPending, domain.DomainFailed:
		// registrable
	default:
		slog.InfoContext(ctx, "skipping registration, domain not registrable",
			"domain", d.Name,
			"domain_status", string(d.Status),
		)
		return nil
	}

	order, err := s.orders.GetByID(ctx, d.OrderID)
	if err != nil {
		return err
	}
	if order.Order.Status == domain.OrderCancelled {
		slog.InfoContext(ctx, "skipping registration, order cancelled", "domain", d.Name)
		return nil
	}

	customer, err := s.customers.GetByID(ctx, d.CustomerID)
	if err != nil {
		return err
	}

	available, err := s.registrar.CheckAvailability(ctx, d.Name)
	if err != nil {
		s.markDomain(ctx, d, domain.EventRegisterFailed)
		return fmt.Errorf("checking availability of %s: %w", d.Name, err)
	}

	if !available {
		slog.WarnContext(ctx, "domain not available for registration", "domain", d.Name)
		s.markDomain(ctx, d, domain.EventRegisterUnavailable)
		return nil
	}

	ref, err := s.registrar.RegisterDomain(ctx, d.Name, customer.Profile(), domain.RegistrationPeriodYears)
	if err != nil {
		s.markDomain(ctx, d, domain.EventRegisterFailed)
		return fmt.Errorf("registering %s: %w", d.Name, err)
	}

	registeredAt := time.Now().UTC()
	expiresAt := registeredAt.AddDate(domain.RegistrationPeriodYears, 0, 0)
	if err := s.domains.SetRegistration(ctx, d.ID, ref, registeredAt, expiresAt); err != nil {
		return fmt.Errorf("storing registration of %s: %w", d.Name, err)
	}
	s.markDomain(ctx, d, domain.EventRegisterComplete)

	slog.InfoContext(ctx, "domain registered",
		"domain", d.Name,
		"registrar_ref", ref,
		"expires_at", expiresAt.Format(time.RFC3339),
	)
	return nil
}

// markDomain applies a lifecycle event to a domain, tolerating races: a
// transition that is no longer legal or that loses a compare-and-swap is
// logged and dropped.
func (s *FulfillmentService) markDomain(ctx context.Context, d domain.Domain, event domain.DomainEvent) {
	next, err := s.validator.ApplyDomain(ctx, d.Status, event)
	if err != nil {
		slog.WarnContext(ctx, "domain event not applicable",
			"domain", d.Name,
			"event", string(event),
			"domain_status", string(d.Status),
		)
		return
	}
	if err := s.domains.Transition(ctx, d.ID, d.Status, next); err != nil {
		slog.WarnContext(ctx, "domain status write lost a race",
			"domain", d.Name,
			"event", string(event),
		)
	}
}

// CreateInvoice builds the external invoice for an order: one line for the
// hosting package at the order's billed rate and one per successfully
// registered domain. It requires the accounting contact sync to have
// completed and returns a PrerequisiteError otherwise; the queue retries
// it after the sync has had time to finish.
func (s *FulfillmentService) CreateInvoice(ctx context.Context, orderID string) error {
	agg, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if agg.Order.InvoiceRef != "" {
		slog.InfoContext(ctx, "invoice already created",
			"order_number", agg.Order.Number,
			"invoice_ref", agg.Order.InvoiceRef,
		)
		return nil
	}
	if agg.Order.Status == domain.OrderCancelled {
		slog.InfoContext(ctx, "skipping invoice, order cancelled", "order_number", agg.Order.Number)
		return nil
	}

	if agg.Customer.AccountingContactRef == "" {
		return &domain.PrerequisiteError{
			Task:    domain.TaskCreateInvoice,
			Missing: "customer has no accounting contact reference yet",
		}
	}

	var lines []domain.InvoiceLine
	if agg.Package != nil {
		lines = append(lines, domain.InvoiceLine{
			Description: fmt.Sprintf("%s hosting (%s)", agg.Package.Name, agg.Order.BillingCycle),
			Price:       agg.Package.Rate(agg.Order.BillingCycle),
			Quantity:    1,
		})
	}
	for _, d := range agg.Domains {
		// Only domains that actually went through the registrar are
		// billed; an activated hosting-only domain carries no fee.
		if d.RegisteredAt == nil {
			continue
		}
		lines = append(lines, domain.InvoiceLine{
			Description: fmt.Sprintf("Domain registration: %s", d.Name),
			Price:       DomainFee,
			Quantity:    1,
		})
	}

	ref, err := s.accounting.CreateInvoice(ctx, agg.Customer.AccountingContactRef, lines, agg.Order.Number)
	if err != nil {
		return fmt.Errorf("creating invoice for %s: %w", agg.Order.Number, err)
	}

	if err := s.orders.SetInvoiceRef(ctx, agg.Order.ID, ref); err != nil {
		return fmt.Errorf("storing invoice ref for %s: %w", agg.Order.Number, err)
	}

	slog.InfoContext(ctx, "invoice created",
		"order_number", agg.Order.Number,
		"invoice_ref", ref,
	)
	return nil
}
