package fsm

import (
	"context"
	"errors"

	loopfsm "github.com/looplab/fsm"

	"github.com/hostfabriek/orderdesk/internal/domain"
)

// Compile-time check: Validator implements domain.TransitionValidator.
var _ domain.TransitionValidator = (*Validator)(nil)

// transition is the table-agnostic shape shared by the order and domain
// lifecycle tables.
type transition struct {
	event string
	src   string
	dst   string
}

// orderEvents and domainEvents convert the domain transition tables into
// looplab/fsm EventDesc format. Transitions with the same event+destination
// are consolidated into a single EventDesc with multiple source states
// (e.g., EventCancel is valid from every non-terminal order status).
var (
	orderEvents  = buildEvents(orderTransitions())
	domainEvents = buildEvents(domainTransitions())
)

func orderTransitions() []transition {
	out := make([]transition, 0, len(domain.OrderTransitions))
	for _, t := range domain.OrderTransitions {
		out = append(out, transition{event: string(t.Event), src: string(t.Src), dst: string(t.Dst)})
	}
	return out
}

func domainTransitions() []transition {
	out := make([]transition, 0, len(domain.DomainTransitions))
	for _, t := range domain.DomainTransitions {
		out = append(out, transition{event: string(t.Event), src: string(t.Src), dst: string(t.Dst)})
	}
	return out
}

func buildEvents(transitions []transition) []loopfsm.EventDesc {
	type key struct {
		event string
		dst   string
	}
	grouped := make(map[key][]string)
	order := make([]key, 0)

	for _, t := range transitions {
		k := key{event: t.event, dst: t.dst}
		if _, exists := grouped[k]; !exists {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], t.src)
	}

	out := make([]loopfsm.EventDesc, 0, len(order))
	for _, k := range order {
		out = append(out, loopfsm.EventDesc{
			Name: k.event,
			Src:  grouped[k],
			Dst:  k.dst,
		})
	}
	return out
}

// Validator implements domain.TransitionValidator using looplab/fsm.
// It creates a short-lived FSM instance per Apply call, initialized with
// the entity's current state. This is necessary because looplab/fsm is
// stateful (it tracks the current state internally).
type Validator struct{}

// New creates a new FSM-backed transition validator.
func New() *Validator {
	return &Validator{}
}

// ApplyOrder checks if the given event is valid from the current order
// status and returns the destination status. Returns a
// domain.TransitionError if the transition is not allowed.
func (v *Validator) ApplyOrder(ctx context.Context, current domain.OrderStatus, event domain.OrderEvent) (domain.OrderStatus, error) {
	next, rejected, err := apply(ctx, orderEvents, string(current), string(event))
	if rejected {
		return "", &domain.TransitionError{Event: event, Current: current}
	}
	if err != nil {
		return "", err
	}
	return domain.OrderStatus(next), nil
}

// ApplyDomain is the domain-lifecycle counterpart of ApplyOrder.
func (v *Validator) ApplyDomain(ctx context.Context, current domain.DomainStatus, event domain.DomainEvent) (domain.DomainStatus, error) {
	next, rejected, err := apply(ctx, domainEvents, string(current), string(event))
	if rejected {
		return "", &domain.DomainTransitionError{Event: event, Current: current}
	}
	if err != nil {
		return "", err
	}
	return domain.DomainStatus(next), nil
}

func apply(ctx context.Context, events []loopfsm.EventDesc, current, event string) (next string, rejected bool, err error) {
	machine := loopfsm.NewFSM(current, events, nil)

	if err := machine.Event(ctx, event); err != nil {
		var invalidEvent loopfsm.InvalidEventError
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &invalidEvent) || errors.As(err, &noTransition) {
			return "", true, nil
		}
		return "", false, err
	}

	return machine.Current(), false, nil
}
