package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hostfabriek/orderdesk/internal/domain"
)

// DomainRepo implements domain.DomainRepository using SQLite.
type DomainRepo struct {
	db *sql.DB
}

// Compile-time check: DomainRepo implements domain.DomainRepository.
var _ domain.DomainRepository = (*DomainRepo)(nil)

const domainColumns = `id, order_id, customer_id, name, tld, register, status,
	COALESCE(registrar_ref, ''), COALESCE(hosting_ref, ''), registered_at, expires_at, created_at, updated_at`

func (r *DomainRepo) GetByID(ctx context.Context, id string) (domain.Domain, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+domainColumns+` FROM domains WHERE id = ?`, id,
	)
	d, err := scanDomainFields(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Domain{}, domain.ErrDomainNotFound
	}
	if err != nil {
		return domain.Domain{}, fmt.Errorf("scanning domain: %w", err)
	}
	return d, nil
}

func (r *DomainRepo) ListByOrder(ctx context.Context, orderID string) ([]domain.Domain, error) {
	return listDomainsByOrder(ctx, r.db, orderID)
}

func listDomainsByOrder(ctx context.Context, db *sql.DB, orderID string) ([]domain.Domain, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+domainColumns+` FROM domains WHERE order_id = ? ORDER BY created_at`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing domains: %w", err)
	}
	defer rows.Close()

	var domains []domain.Domain
	for rows.Next() {
		d, err := scanDomainFields(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning domain row: %w", err)
		}
		domains = append(domains, d)
	}

	return domains, rows.Err()
}

// Transition applies a compare-and-swap status update on a domain.
func (r *DomainRepo) Transition(ctx context.Context, id string, from, to domain.DomainStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE domains SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), time.Now().UTC().Format(timeFormat), id, string(from),
	)
	if err != nil {
		return fmt.Errorf("transitioning domain: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		var status string
		err := r.db.QueryRowContext(ctx, `SELECT status FROM domains WHERE id = ?`, id).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrDomainNotFound
		}
		if err != nil {
			return fmt.Errorf("re-reading domain status: %w", err)
		}
		return domain.ErrStatusConflict
	}

	return nil
}

// SetRegistration records the registrar reference and registration window.
// Dates are written through COALESCE so a retried registration never
// overwrites an earlier success.
func (r *DomainRepo) SetRegistration(ctx context.Context, id, registrarRef string, registeredAt, expiresAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE domains SET
			registrar_ref = COALESCE(registrar_ref, ?),
			registered_at = COALESCE(registered_at, ?),
			expires_at = COALESCE(expires_at, ?),
			updated_at = ?
		 WHERE id = ?`,
		registrarRef,
		registeredAt.UTC().Format(timeFormat),
		expiresAt.UTC().Format(timeFormat),
		time.Now().UTC().Format(timeFormat),
		id,
	)
	if err != nil {
		return fmt.Errorf("setting domain registration: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrDomainNotFound
	}
	return nil
}

func (r *DomainRepo) SetHostingRef(ctx context.Context, id, ref string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE domains SET hosting_ref = ?, updated_at = ? WHERE id = ? AND hosting_ref IS NULL`,
		ref, time.Now().UTC().Format(timeFormat), id,
	)
	if err != nil {
		return fmt.Errorf("setting domain hosting ref: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		var n int
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM domains WHERE id = ?`, id).Scan(&n); err != nil {
			return fmt.Errorf("re-reading domain: %w", err)
		}
		if n == 0 {
			return domain.ErrDomainNotFound
		}
	}

	return nil
}

// CancelByOrder cancels every domain still in flight for an order.
func (r *DomainRepo) CancelByOrder(ctx context.Context, orderID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE domains SET status = ?, updated_at = ? WHERE order_id = ? AND status != ?`,
		string(domain.DomainCancelled), time.Now().UTC().Format(timeFormat),
		orderID, string(domain.DomainCancelled),
	)
	if err != nil {
		return fmt.Errorf("cancelling order domains: %w", err)
	}
	return nil
}

func scanDomainFields(sc rowScanner) (domain.Domain, error) {
	var d domain.Domain
	var status, createdAt, updatedAt string
	var register int
	var registeredAt, expiresAt sql.NullString

	err := sc.Scan(
		&d.ID, &d.OrderID, &d.CustomerID, &d.Name, &d.TLD, &register, &status,
		&d.RegistrarRef, &d.HostingRef, &registeredAt, &expiresAt,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return domain.Domain{}, err
	}

	d.Register = register != 0
	d.Status = domain.DomainStatus(status)
	d.RegisteredAt = scanTime(registeredAt)
	d.ExpiresAt = scanTime(expiresAt)
	d.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	d.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return d, nil
}
