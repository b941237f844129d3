package app

import (
	"math"

	"github.com/hostfabriek/orderdesk/internal/domain"
)

// TaxRate is the fixed VAT percentage applied to every order subtotal.
const TaxRate = 0.21

// DomainFee is the flat per-domain fee added to the subtotal for each
// domain on the order.
const DomainFee = 9.99

// Quote holds the monetary fields fixed at order creation.
type Quote struct {
	Subtotal float64
	Tax      float64
	Total    float64
}

// round2 rounds to two decimal places, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// PriceOrder computes the quote for a package (nil for domain-only orders)
// at the given billing cycle plus a fixed fee per requested domain. Tax is
// computed once here and never revised.
func PriceOrder(pkg *domain.HostingPackage, cycle domain.BillingCycle, domainCount int) Quote {
	subtotal := float64(domainCount) * DomainFee
	if pkg != nil {
		subtotal += pkg.Rate(cycle)
	}
	subtotal = round2(subtotal)

	tax := round2(subtotal * TaxRate)

	return Quote{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    round2(subtotal + tax),
	}
}
