package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hostfabriek/orderdesk/internal/domain"
)

// PackageRepo implements domain.PackageRepository using SQLite.
type PackageRepo struct {
	db *sql.DB
}

// Compile-time check: PackageRepo implements domain.PackageRepository.
var _ domain.PackageRepository = (*PackageRepo)(nil)

const packageColumns = `id, name, description, price_monthly, price_yearly,
	disk_space_mb, bandwidth_gb, email_accounts, databases, domains, subdomains, active, created_at, updated_at`

func (r *PackageRepo) GetByID(ctx context.Context, id string) (domain.HostingPackage, error) {
	return getPackageByID(ctx, r.db, id)
}

func getPackageByID(ctx context.Context, db *sql.DB, id string) (domain.HostingPackage, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+packageColumns+` FROM hosting_packages WHERE id = ?`, id,
	)
	p, err := scanPackage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.HostingPackage{}, domain.ErrPackageNotFound
	}
	if err != nil {
		return domain.HostingPackage{}, fmt.Errorf("scanning package: %w", err)
	}
	return p, nil
}

func (r *PackageRepo) ListActive(ctx context.Context) ([]domain.HostingPackage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+packageColumns+` FROM hosting_packages WHERE active = 1 ORDER BY price_monthly`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing packages: %w", err)
	}
	defer rows.Close()

	var packages []domain.HostingPackage
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning package row: %w", err)
		}
		packages = append(packages, p)
	}

	return packages, rows.Err()
}

func scanPackage(sc rowScanner) (domain.HostingPackage, error) {
	var p domain.HostingPackage
	var active int
	var createdAt, updatedAt string

	err := sc.Scan(
		&p.ID, &p.Name, &p.Description, &p.PriceMonthly, &p.PriceYearly,
		&p.DiskSpaceMB, &p.BandwidthGB, &p.EmailAccounts, &p.Databases, &p.Domains, &p.Subdomains,
		&active, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.HostingPackage{}, err
	}

	p.Active = active != 0
	p.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	p.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return p, nil
}
