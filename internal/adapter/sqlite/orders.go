package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hostfabriek/orderdesk/internal/domain"
)

// OrderRepo implements domain.OrderRepository using SQLite.
type OrderRepo struct {
	db *sql.DB
}

// Compile-time check: OrderRepo implements domain.OrderRepository.
var _ domain.OrderRepository = (*OrderRepo)(nil)

const orderColumns = `id, customer_id, COALESCE(package_id, ''), number, status, billing_cycle,
	subtotal, tax, total, paid_at, approved_at, provisioned_at, activated_at, cancelled_at,
	cancellation_reason, next_billing_at, COALESCE(invoice_ref, ''), created_at, updated_at`

func (r *OrderRepo) CreateAggregate(ctx context.Context, agg domain.NewOrder) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning order transaction: %w", err)
	}
	defer tx.Rollback()

	if agg.NewCustomer {
		if err := insertCustomer(ctx, tx, agg.Customer); err != nil {
			return err
		}
	}

	o := agg.Order
	var packageID any
	if o.PackageID != "" {
		packageID = o.PackageID
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, customer_id, package_id, number, status, billing_cycle,
		 subtotal, tax, total, cancellation_reason, next_billing_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, '', ?, ?, ?)`,
		o.ID, o.CustomerID, packageID, o.Number, string(o.Status), string(o.BillingCycle),
		o.Subtotal, o.Tax, o.Total, nullTime(o.NextBillingAt),
		o.CreatedAt.UTC().Format(timeFormat), o.UpdatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("order number %s already exists: %w", o.Number, err)
		}
		return fmt.Errorf("inserting order: %w", err)
	}

	for _, d := range agg.Domains {
		register := 0
		if d.Register {
			register = 1
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO domains (id, order_id, customer_id, name, tld, register, status, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ID, d.OrderID, d.CustomerID, d.Name, d.TLD, register, string(d.Status),
			d.CreatedAt.UTC().Format(timeFormat), d.UpdatedAt.UTC().Format(timeFormat),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("domain %s already exists: %w", d.Name, err)
			}
			return fmt.Errorf("inserting domain %s: %w", d.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing order transaction: %w", err)
	}
	return nil
}

func (r *OrderRepo) GetByID(ctx context.Context, id string) (domain.OrderAggregate, error) {
	return r.hydrate(ctx, r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`, id,
	))
}

func (r *OrderRepo) GetByNumber(ctx context.Context, number string) (domain.OrderAggregate, error) {
	return r.hydrate(ctx, r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE number = ?`, number,
	))
}

func (r *OrderRepo) NumberExists(ctx context.Context, number string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM orders WHERE number = ?`, number,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking order number: %w", err)
	}
	return n > 0, nil
}

func (r *OrderRepo) List(ctx context.Context, filter domain.OrderListFilter) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	var conds []string
	var args []any

	if filter.Status != nil {
		conds = append(conds, `status = ?`)
		args = append(args, string(*filter.Status))
	}
	if filter.CustomerID != "" {
		conds = append(conds, `customer_id = ?`)
		args = append(args, filter.CustomerID)
	}
	for i, c := range conds {
		if i == 0 {
			query += ` WHERE ` + c
		} else {
			query += ` AND ` + c
		}
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

// Transition applies a compare-and-swap status update. Milestone columns
// are written through COALESCE so each is stamped at most once; the
// cancellation reason is only written when non-empty.
func (r *OrderRepo) Transition(ctx context.Context, id string, change domain.OrderStatusChange) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE orders SET
			status = ?,
			paid_at = COALESCE(paid_at, ?),
			approved_at = COALESCE(approved_at, ?),
			provisioned_at = COALESCE(provisioned_at, ?),
			activated_at = COALESCE(activated_at, ?),
			cancelled_at = COALESCE(cancelled_at, ?),
			cancellation_reason = COALESCE(NULLIF(?, ''), cancellation_reason),
			updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(change.To),
		nullTime(change.PaidAt),
		nullTime(change.ApprovedAt),
		nullTime(change.ProvisionedAt),
		nullTime(change.ActivatedAt),
		nullTime(change.CancelledAt),
		change.CancellationReason,
		time.Now().UTC().Format(timeFormat),
		id, string(change.From),
	)
	if err != nil {
		return fmt.Errorf("transitioning order: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		// Distinguish a missing order from a lost race.
		var status string
		err := r.db.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = ?`, id).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("re-reading order status: %w", err)
		}
		return domain.ErrStatusConflict
	}

	return nil
}

// SetInvoiceRef records the external invoice id. The reference is written
// once; a repeated call against an order that already carries one is a
// no-op.
func (r *OrderRepo) SetInvoiceRef(ctx context.Context, id, ref string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE orders SET invoice_ref = ?, updated_at = ?
		 WHERE id = ? AND invoice_ref IS NULL`,
		ref, time.Now().UTC().Format(timeFormat), id,
	)
	if err != nil {
		return fmt.Errorf("setting invoice ref: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		var n int
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM orders WHERE id = ?`, id).Scan(&n); err != nil {
			return fmt.Errorf("re-reading order: %w", err)
		}
		if n == 0 {
			return domain.ErrOrderNotFound
		}
	}

	return nil
}

func (r *OrderRepo) ListDueForInvoicing(ctx context.Context, daysAhead int) ([]domain.Order, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, daysAhead).Format(timeFormat)

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE status = ? AND next_billing_at IS NOT NULL AND next_billing_at <= ?
		   AND invoice_ref IS NULL
		 ORDER BY next_billing_at`,
		string(domain.OrderActive), cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("listing orders due for invoicing: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

// hydrate assembles the full aggregate around a scanned order row.
func (r *OrderRepo) hydrate(ctx context.Context, row *sql.Row) (domain.OrderAggregate, error) {
	o, err := scanOrderRow(row)
	if err != nil {
		return domain.OrderAggregate{}, err
	}

	customer, err := getCustomerByID(ctx, r.db, o.CustomerID)
	if err != nil {
		return domain.OrderAggregate{}, fmt.Errorf("loading order customer: %w", err)
	}

	var pkg *domain.HostingPackage
	if o.PackageID != "" {
		p, err := getPackageByID(ctx, r.db, o.PackageID)
		if err != nil && !errors.Is(err, domain.ErrPackageNotFound) {
			return domain.OrderAggregate{}, fmt.Errorf("loading order package: %w", err)
		}
		if err == nil {
			pkg = &p
		}
	}

	domains, err := listDomainsByOrder(ctx, r.db, o.ID)
	if err != nil {
		return domain.OrderAggregate{}, fmt.Errorf("loading order domains: %w", err)
	}

	return domain.OrderAggregate{
		Order:    o,
		Customer: customer,
		Package:  pkg,
		Domains:  domains,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrderFields(sc rowScanner) (domain.Order, error) {
	var o domain.Order
	var status, cycle, createdAt, updatedAt string
	var paidAt, approvedAt, provisionedAt, activatedAt, cancelledAt, nextBillingAt sql.NullString

	err := sc.Scan(
		&o.ID, &o.CustomerID, &o.PackageID, &o.Number, &status, &cycle,
		&o.Subtotal, &o.Tax, &o.Total,
		&paidAt, &approvedAt, &provisionedAt, &activatedAt, &cancelledAt,
		&o.CancellationReason, &nextBillingAt, &o.InvoiceRef,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}

	o.Status = domain.OrderStatus(status)
	o.BillingCycle = domain.BillingCycle(cycle)
	o.PaidAt = scanTime(paidAt)
	o.ApprovedAt = scanTime(approvedAt)
	o.ProvisionedAt = scanTime(provisionedAt)
	o.ActivatedAt = scanTime(activatedAt)
	o.CancelledAt = scanTime(cancelledAt)
	o.NextBillingAt = scanTime(nextBillingAt)
	o.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	o.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return o, nil
}

func scanOrderRow(row *sql.Row) (domain.Order, error) {
	o, err := scanOrderFields(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("scanning order: %w", err)
	}
	return o, nil
}

func scanOrder(rows *sql.Rows) (domain.Order, error) {
	o, err := scanOrderFields(rows)
	if err != nil {
		return domain.Order{}, fmt.Errorf("scanning order row: %w", err)
	}
	return o, nil
}
