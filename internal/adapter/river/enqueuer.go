package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/hostfabriek/orderdesk/internal/domain"
)

// Compile-time check: Enqueuer implements domain.TaskEnqueuer.
var _ domain.TaskEnqueuer = (*Enqueuer)(nil)

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Enqueuer implements domain.TaskEnqueuer by inserting River jobs, one
// per fulfillment task. Tasks making up one plan are inserted in a single
// batch.
type Enqueuer struct {
	client *Client
}

// NewEnqueuer creates an enqueuer backed by the given River client.
func NewEnqueuer(client *Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// Enqueue inserts one job per task. Each task kind maps to its own job
// type so workers, retry policies, and queue metrics stay per-task.
func (e *Enqueuer) Enqueue(ctx context.Context, tasks []domain.FulfillmentTask) error {
	if len(tasks) == 0 {
		return nil
	}

	params := make([]river.InsertManyParams, 0, len(tasks))
	for _, task := range tasks {
		args, err := jobArgs(task)
		if err != nil {
			return err
		}
		params = append(params, river.InsertManyParams{Args: args})
	}

	if _, err := e.client.InsertMany(ctx, params); err != nil {
		return fmt.Errorf("enqueuing fulfillment tasks: %w", err)
	}
	return nil
}

func jobArgs(task domain.FulfillmentTask) (river.JobArgs, error) {
	switch task.Kind {
	case domain.TaskSyncCustomer:
		return SyncCustomerArgs{OrderID: task.OrderID, CustomerID: task.CustomerID}, nil
	case domain.TaskProvisionHosting:
		return ProvisionHostingArgs{OrderID: task.OrderID, CustomerID: task.CustomerID}, nil
	case domain.TaskRegisterDomain:
		return RegisterDomainArgs{OrderID: task.OrderID, CustomerID: task.CustomerID, DomainID: task.DomainID}, nil
	case domain.TaskCreateInvoice:
		return CreateInvoiceArgs{OrderID: task.OrderID, CustomerID: task.CustomerID}, nil
	default:
		return nil, fmt.Errorf("unknown task kind %q", task.Kind)
	}
}
