package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hostfabriek/orderdesk/internal/domain"
)

// CustomerRepo implements domain.CustomerRepository using SQLite.
type CustomerRepo struct {
	db *sql.DB
}

// Compile-time check: CustomerRepo implements domain.CustomerRepository.
var _ domain.CustomerRepository = (*CustomerRepo)(nil)

const customerColumns = `id, first_name, last_name, email, phone, company, address, postal_code, city, country,
	vat_number, status, COALESCE(hosting_account_ref, ''), COALESCE(accounting_contact_ref, ''), created_at, updated_at`

func (r *CustomerRepo) Create(ctx context.Context, c domain.Customer) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning customer transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertCustomer(ctx, tx, c); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing customer transaction: %w", err)
	}
	return nil
}

// insertCustomer writes a customer row inside an existing transaction so
// order creation can persist a new customer atomically with its order.
func insertCustomer(ctx context.Context, tx *sql.Tx, c domain.Customer) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO customers (id, first_name, last_name, email, phone, company, address, postal_code, city, country,
		 vat_number, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.FirstName, c.LastName, c.Email, c.Phone, c.Company, c.Address, c.PostalCode, c.City, c.Country,
		c.VATNumber, string(c.Status), c.CreatedAt.UTC().Format(timeFormat), c.UpdatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("customer email %s already exists: %w", c.Email, err)
		}
		return fmt.Errorf("inserting customer: %w", err)
	}
	return nil
}

func (r *CustomerRepo) GetByID(ctx context.Context, id string) (domain.Customer, error) {
	return getCustomerByID(ctx, r.db, id)
}

func getCustomerByID(ctx context.Context, db *sql.DB, id string) (domain.Customer, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = ?`, id,
	)
	return scanCustomer(row)
}

func (r *CustomerRepo) GetByEmail(ctx context.Context, email string) (domain.Customer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE email = ?`, email,
	)
	return scanCustomer(row)
}

func (r *CustomerRepo) UpdateStatus(ctx context.Context, id string, status domain.CustomerStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE customers SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC().Format(timeFormat), id,
	)
	if err != nil {
		return fmt.Errorf("updating customer status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}

func (r *CustomerRepo) SetHostingAccountRef(ctx context.Context, id, ref string) error {
	return r.setRef(ctx, id, "hosting_account_ref", ref)
}

func (r *CustomerRepo) SetAccountingContactRef(ctx context.Context, id, ref string) error {
	return r.setRef(ctx, id, "accounting_contact_ref", ref)
}

// setRef writes an external reference once. A repeated call against a
// customer that already carries the reference is a no-op.
func (r *CustomerRepo) setRef(ctx context.Context, id, column, ref string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE customers SET `+column+` = ?, updated_at = ? WHERE id = ? AND `+column+` IS NULL`,
		ref, time.Now().UTC().Format(timeFormat), id,
	)
	if err != nil {
		return fmt.Errorf("setting customer %s: %w", column, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		var n int
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM customers WHERE id = ?`, id).Scan(&n); err != nil {
			return fmt.Errorf("re-reading customer: %w", err)
		}
		if n == 0 {
			return domain.ErrCustomerNotFound
		}
	}

	return nil
}

func scanCustomer(row *sql.Row) (domain.Customer, error) {
	var c domain.Customer
	var status, createdAt, updatedAt string

	err := row.Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Company,
		&c.Address, &c.PostalCode, &c.City, &c.Country, &c.VATNumber,
		&status, &c.HostingAccountRef, &c.AccountingContactRef,
		&createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	if err != nil {
		return domain.Customer{}, fmt.Errorf("scanning customer: %w", err)
	}

	c.Status = domain.CustomerStatus(status)
	c.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	c.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return c, nil
}
