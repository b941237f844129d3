package river

import (
	"github.com/riverqueue/river"
)

// taskMaxAttempts is the attempt limit shared by all fulfillment tasks.
const taskMaxAttempts = 3

// SyncCustomerArgs pushes a customer to the accounting service.
type SyncCustomerArgs struct {
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (SyncCustomerArgs) Kind() string { return "fulfillment.sync_customer" }

func (SyncCustomerArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{MaxAttempts: taskMaxAttempts}
}

// ProvisionHostingArgs creates the hosting account and subscription.
type ProvisionHostingArgs struct {
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
}

func (ProvisionHostingArgs) Kind() string { return "fulfillment.provision_hosting" }

func (ProvisionHostingArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{MaxAttempts: taskMaxAttempts}
}

// RegisterDomainArgs registers a single domain at the registrar.
type RegisterDomainArgs struct {
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
	DomainID   string `json:"domain_id"`
}

func (RegisterDomainArgs) Kind() string { return "fulfillment.register_domain" }

func (RegisterDomainArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{MaxAttempts: taskMaxAttempts}
}

// CreateInvoiceArgs creates the order invoice on the accounting service.
type CreateInvoiceArgs struct {
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
}

func (CreateInvoiceArgs) Kind() string { return "fulfillment.create_invoice" }

func (CreateInvoiceArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{MaxAttempts: taskMaxAttempts}
}
