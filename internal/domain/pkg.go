package domain

import "time"

// HostingPackage is catalog data: read-only from the core's perspective,
// looked up for pricing at order assembly time. The yearly price is a
// distinct rate, not twelve times the monthly one.
type HostingPackage struct {
	ID           string
	Name         string
	Description  string
	PriceMonthly float64
	PriceYearly  float64

	DiskSpaceMB   int
	BandwidthGB   int
	EmailAccounts int
	Databases     int
	Domains       int
	Subdomains    int

	Active bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Rate returns the unit price for the given billing cycle. A quarterly
// cycle bills three monthly periods at once; there is no separate
// quarterly rate in the catalog.
func (p HostingPackage) Rate(cycle BillingCycle) float64 {
	switch cycle {
	case CycleYearly:
		return p.PriceYearly
	case CycleQuarterly:
		return p.PriceMonthly * 3
	default:
		return p.PriceMonthly
	}
}
