package river

import (
	"context"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/hostfabriek/orderdesk/internal/app"
)

// Fixed retry intervals per task. Registration waits longest because
// registrar operations are the slowest to clear transient failures.
const (
	syncRetryInterval      = 30 * time.Second
	provisionRetryInterval = 60 * time.Second
	registerRetryInterval  = 120 * time.Second
	invoiceRetryInterval   = 60 * time.Second
)

// SyncCustomerWorker pushes customer contact data to the accounting service.
type SyncCustomerWorker struct {
	river.WorkerDefaults[SyncCustomerArgs]
	fulfillment *app.FulfillmentService
}

func (w *SyncCustomerWorker) NextRetry(*river.Job[SyncCustomerArgs]) time.Time {
	return time.Now().Add(syncRetryInterval)
}

func (w *SyncCustomerWorker) Work(ctx context.Context, job *river.Job[SyncCustomerArgs]) error {
	slog.InfoContext(ctx, "syncing customer",
		"customer_id", job.Args.CustomerID,
		"order_id", job.Args.OrderID,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return w.fulfillment.SyncCustomer(ctx, job.Args.CustomerID)
}

// ProvisionHostingWorker creates the hosting account and subscription.
// When the final attempt fails the order is moved back to pending so an
// operator can re-approve it once the hosting panel recovers.
type ProvisionHostingWorker struct {
	river.WorkerDefaults[ProvisionHostingArgs]
	fulfillment *app.FulfillmentService
}

func (w *ProvisionHostingWorker) NextRetry(*river.Job[ProvisionHostingArgs]) time.Time {
	return time.Now().Add(provisionRetryInterval)
}

func (w *ProvisionHostingWorker) Work(ctx context.Context, job *river.Job[ProvisionHostingArgs]) error {
	slog.InfoContext(ctx, "provisioning hosting",
		"order_id", job.Args.OrderID,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)

	err := w.fulfillment.ProvisionHosting(ctx, job.Args.OrderID)
	if err != nil && job.Attempt >= job.MaxAttempts {
		slog.ErrorContext(ctx, "provisioning exhausted retries, reverting order",
			"order_id", job.Args.OrderID,
			"error", err,
		)
		if revertErr := w.fulfillment.RevertProvisioning(ctx, job.Args.OrderID); revertErr != nil {
			slog.ErrorContext(ctx, "reverting order failed",
				"order_id", job.Args.OrderID,
				"error", revertErr,
			)
		}
	}
	return err
}

// RegisterDomainWorker registers a single domain at the registrar.
type RegisterDomainWorker struct {
	river.WorkerDefaults[RegisterDomainArgs]
	fulfillment *app.FulfillmentService
}

func (w *RegisterDomainWorker) NextRetry(*river.Job[RegisterDomainArgs]) time.Time {
	return time.Now().Add(registerRetryInterval)
}

func (w *RegisterDomainWorker) Work(ctx context.Context, job *river.Job[RegisterDomainArgs]) error {
	slog.InfoContext(ctx, "registering domain",
		"domain_id", job.Args.DomainID,
		"order_id", job.Args.OrderID,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return w.fulfillment.RegisterDomain(ctx, job.Args.DomainID)
}

// CreateInvoiceWorker creates the order invoice on the accounting service.
// It fails until the customer sync has stored an accounting contact, which
// the retry schedule absorbs.
type CreateInvoiceWorker struct {
	river.WorkerDefaults[CreateInvoiceArgs]
	fulfillment *app.FulfillmentService
}

func (w *CreateInvoiceWorker) NextRetry(*river.Job[CreateInvoiceArgs]) time.Time {
	return time.Now().Add(invoiceRetryInterval)
}

func (w *CreateInvoiceWorker) Work(ctx context.Context, job *river.Job[CreateInvoiceArgs]) error {
	slog.InfoContext(ctx, "creating invoice",
		"order_id", job.Args.OrderID,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return w.fulfillment.CreateInvoice(ctx, job.Args.OrderID)
}
