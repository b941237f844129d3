package domain

import "time"

// DomainStatus represents the lifecycle state of a domain name. Domains
// have their own lifecycle because registration is a separate asynchronous
// operation with its own failure modes.
type DomainStatus string

const (
	DomainPending     DomainStatus = "pending"
	DomainRegistered  DomainStatus = "registered"
	DomainActive      DomainStatus = "active"
	DomainUnavailable DomainStatus = "unavailable" // terminal, no retry
	DomainFailed      DomainStatus = "failed"      // retryable by re-dispatch
	DomainCancelled   DomainStatus = "cancelled"
)

// DomainEvent represents an action that triggers a domain state transition.
type DomainEvent string

const (
	EventRegisterComplete    DomainEvent = "register_complete"
	EventRegisterUnavailable DomainEvent = "register_unavailable"
	EventRegisterFailed      DomainEvent = "register_failed"
	EventDomainActivate      DomainEvent = "activate"
	EventDomainCancel        DomainEvent = "cancel"
)

// DomainTransition defines a valid domain state change.
type DomainTransition struct {
	Event DomainEvent
	Src   DomainStatus
	Dst   DomainStatus
}

// DomainTransitions defines all valid state changes in the domain
// lifecycle. "failed" is a retryable source for registration so a
// re-dispatched job can complete; "unavailable" has no outgoing edges
// besides cancellation.
var DomainTransitions = []DomainTransition{
	{Event: EventRegisterComplete, Src: DomainPending, Dst: DomainRegistered},
	{Event: EventRegisterComplete, Src: DomainFailed, Dst: DomainRegistered},
	{Event: EventRegisterUnavailable, Src: DomainPending, Dst: DomainUnavailable},
	{Event: EventRegisterUnavailable, Src: DomainFailed, Dst: DomainUnavailable},
	{Event: EventRegisterFailed, Src: DomainPending, Dst: DomainFailed},
	{Event: EventRegisterFailed, Src: DomainRegistered, Dst: DomainFailed},
	{Event: EventDomainActivate, Src: DomainPending, Dst: DomainActive},
	{Event: EventDomainActivate, Src: DomainRegistered, Dst: DomainActive},
	{Event: EventDomainCancel, Src: DomainPending, Dst: DomainCancelled},
	{Event: EventDomainCancel, Src: DomainRegistered, Dst: DomainCancelled},
	{Event: EventDomainCancel, Src: DomainActive, Dst: DomainCancelled},
	{Event: EventDomainCancel, Src: DomainUnavailable, Dst: DomainCancelled},
	{Event: EventDomainCancel, Src: DomainFailed, Dst: DomainCancelled},
}

// RegistrationPeriod is the fixed registration term for new domains.
const RegistrationPeriodYears = 1

// Domain is a single domain name associated with an order. CustomerID is
// denormalized and always equals the parent order's customer.
type Domain struct {
	ID         string
	OrderID    string
	CustomerID string

	Name string // fully qualified, e.g. "example.nl"
	TLD  string // e.g. "nl"

	// Register marks whether the customer asked us to register the name,
	// as opposed to pointing an existing domain at the hosting account.
	Register bool

	Status DomainStatus

	RegisteredAt *time.Time
	ExpiresAt    *time.Time // RegisteredAt + registration period

	// RegistrarRef is the registration id at the domain registrar.
	RegistrarRef string
	// HostingRef is the subscription id on the hosting panel.
	HostingRef string

	CreatedAt time.Time
	UpdatedAt time.Time
}
