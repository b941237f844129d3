package domain

// TaskKind identifies one of the asynchronous fulfillment tasks.
type TaskKind string

const (
	TaskSyncCustomer     TaskKind = "sync_customer"
	TaskProvisionHosting TaskKind = "provision_hosting"
	TaskRegisterDomain   TaskKind = "register_domain"
	TaskCreateInvoice    TaskKind = "create_invoice"
)

// FulfillmentTask is one unit of asynchronous work produced by a lifecycle
// transition. The state machine returns an explicit tagged list of these
// instead of firing hidden event listeners, so the full fan-out of an
// approval is visible at the call site and in tests.
type FulfillmentTask struct {
	Kind       TaskKind
	OrderID    string
	CustomerID string
	// DomainID is set for register_domain tasks only.
	DomainID string
}

// FulfillmentPlan builds the task list for an order that has just entered
// processing: accounting sync, hosting provisioning (when the order has a
// package), one registration per domain flagged for registration, and
// invoicing. Invoicing depends on the sync having completed; that ordering
// is enforced durably by the invoicing task itself, not by list position.
func FulfillmentPlan(agg OrderAggregate) []FulfillmentTask {
	tasks := []FulfillmentTask{
		{Kind: TaskSyncCustomer, OrderID: agg.Order.ID, CustomerID: agg.Customer.ID},
	}

	if agg.Order.PackageID != "" {
		tasks = append(tasks, FulfillmentTask{
			Kind:       TaskProvisionHosting,
			OrderID:    agg.Order.ID,
			CustomerID: agg.Customer.ID,
		})
	}

	for _, d := range agg.Domains {
		if !d.Register {
			continue
		}
		tasks = append(tasks, FulfillmentTask{
			Kind:       TaskRegisterDomain,
			OrderID:    agg.Order.ID,
			CustomerID: agg.Customer.ID,
			DomainID:   d.ID,
		})
	}

	tasks = append(tasks, FulfillmentTask{
		Kind:       TaskCreateInvoice,
		OrderID:    agg.Order.ID,
		CustomerID: agg.Customer.ID,
	})

	return tasks
}
