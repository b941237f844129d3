package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrDomainNotFound   = errors.New("domain not found")
	ErrPackageNotFound  = errors.New("hosting package not found")

	// ErrStatusConflict is returned by a compare-and-swap status update
	// when the stored status no longer matches the expected one: a
	// concurrent writer won the race.
	ErrStatusConflict = errors.New("status changed concurrently")
)

// ValidationError is returned when order-assembly input is malformed.
// It is raised before any persistence, so it never leaves side effects.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidPackageError is returned when an order references a package id
// that does not resolve to an active package.
type InvalidPackageError struct {
	PackageID string
}

func (e *InvalidPackageError) Error() string {
	return fmt.Sprintf("package %q is not an active hosting package", e.PackageID)
}

// TransitionError is returned when an order state transition is not allowed.
type TransitionError struct {
	Event   OrderEvent
	Current OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from status %q", e.Event, e.Current)
}

// DomainTransitionError is the domain-lifecycle counterpart of
// TransitionError.
type DomainTransitionError struct {
	Event   DomainEvent
	Current DomainStatus
}

func (e *DomainTransitionError) Error() string {
	return fmt.Sprintf("domain event %q is not valid from status %q", e.Event, e.Current)
}

// ProviderError wraps any gateway call failure. The core never interprets
// upstream error codes beyond success/failure; the upstream message is
// carried for operator visibility.
type ProviderError struct {
	Provider string // "hosting", "registrar", "accounting"
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// PrerequisiteError is returned when a fulfillment task runs before a task
// it depends on has observably completed (e.g. invoicing before the
// accounting contact sync). It fails fast rather than silently skipping.
type PrerequisiteError struct {
	Task    TaskKind
	Missing string
}

func (e *PrerequisiteError) Error() string {
	return fmt.Sprintf("task %q prerequisite unmet: %s", e.Task, e.Missing)
}
