package domain

import "time"

// CustomerStatus represents the lifecycle state of a customer account.
type CustomerStatus string

const (
	CustomerPending   CustomerStatus = "pending"
	CustomerApproved  CustomerStatus = "approved"
	CustomerSuspended CustomerStatus = "suspended"
	CustomerRejected  CustomerStatus = "rejected"
)

// Customer is the account placing orders. The two external reference fields
// are empty until the corresponding sync task succeeds, and are written
// exactly once.
type Customer struct {
	ID         string
	Email      string
	FirstName  string
	LastName   string
	Company    string
	Phone      string
	Address    string
	PostalCode string
	City       string
	Country    string
	VATNumber  string
	Status     CustomerStatus

	// HostingAccountRef is the customer's account id on the hosting panel.
	HostingAccountRef string
	// AccountingContactRef is the contact id on the accounting service.
	AccountingContactRef string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName joins first and last name for provider profiles.
func (c Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

// ContactProfile is the provider-facing slice of customer data shared by
// the hosting and accounting gateways.
type ContactProfile struct {
	Name       string
	Company    string
	Email      string
	Phone      string
	Address    string
	PostalCode string
	City       string
	Country    string
}

// Profile builds the provider-facing contact profile for this customer.
func (c Customer) Profile() ContactProfile {
	return ContactProfile{
		Name:       c.FullName(),
		Company:    c.Company,
		Email:      c.Email,
		Phone:      c.Phone,
		Address:    c.Address,
		PostalCode: c.PostalCode,
		City:       c.City,
		Country:    c.Country,
	}
}
