// Package fsm implements a generic finite-state machine for guarded,
// permissioned state transitions. It knows nothing about any particular
// domain: rules are value objects supplied at construction, the subject's
// state is read through an accessor, and the state write happens through an
// injected apply function. Permission checking ("who may do this") is kept
// separate from guards ("is this safe to do right now") so both can be
// composed and tested independently.
package fsm

import (
	"context"
	"fmt"
)

// State is a node in the transition graph.
type State string

// Guard validates a business precondition for one edge. It returns false with
// a human-readable reason when the precondition is unmet; the reason is
// surfaced verbatim to callers.
type Guard[S any] func(ctx context.Context, subject S) (bool, string)

// Permission decides whether the actor may traverse the edge at all. Nil
// permission means the edge is open to any actor.
type Permission[S, A any] func(ctx context.Context, subject S, actor A, from, to State) bool

// Rule declares one edge of the machine: where it goes, who may take it, and
// which preconditions must hold. Rules are plain values so a domain's whole
// table can be inspected and tested without a live subject.
type Rule[S, A any] struct {
	From       State
	To         State
	Label      string
	Permission Permission[S, A]
	Guards     []Guard[S]
}

// Target is one legally available transition for a given subject and actor.
type Target struct {
	State State
	Label string
}

// Denial classifies why a transition was refused.
type Denial int

const (
	DenialNone Denial = iota
	DenialInvalidEdge
	DenialPermission
	DenialGuard
)

// Decision is the full outcome of evaluating one candidate transition.
type Decision struct {
	Allowed bool
	Denial  Denial
	Reason  string
}

// Machine evaluates and performs transitions according to its rule table. It
// holds only immutable configuration and is safe for concurrent use.
type Machine[S, A any] struct {
	current func(S) State
	apply   func(ctx context.Context, subject S, to State) error
	rules   map[State][]Rule[S, A]
	order   map[State][]State
}

// New builds a machine from an ordered rule list. current reads the subject's
// state; apply mutates (and, if it chooses, persists) it. Rule order is
// preserved per source state and drives AvailableTransitions ordering.
func New[S, A any](
	current func(S) State,
	apply func(ctx context.Context, subject S, to State) error,
	rules []Rule[S, A],
) *Machine[S, A] {
	m := &Machine[S, A]{
		current: current,
		apply:   apply,
		rules:   make(map[State][]Rule[S, A]),
		order:   make(map[State][]State),
	}
	for _, r := range rules {
		m.rules[r.From] = append(m.rules[r.From], r)
		m.order[r.From] = append(m.order[r.From], r.To)
	}
	return m
}

// CurrentState reads the subject's state through the injected accessor.
func (m *Machine[S, A]) CurrentState(subject S) State {
	return m.current(subject)
}

// IsValidTransition reports whether the edge exists in the table. A state
// with no rules, including an unrecognized one, has an empty reachable set.
func (m *Machine[S, A]) IsValidTransition(subject S, to State) bool {
	_, ok := m.rule(m.current(subject), to)
	return ok
}

func (m *Machine[S, A]) rule(from, to State) (Rule[S, A], bool) {
	for _, r := range m.rules[from] {
		if r.To == to {
			return r, true
		}
	}
	return Rule[S, A]{}, false
}

// Evaluate runs the full edge-permission-guard chain for one candidate
// transition. Guards run in registration order and short-circuit on the
// first failure.
func (m *Machine[S, A]) Evaluate(ctx context.Context, subject S, to State, actor A) Decision {
	from := m.current(subject)

	rule, ok := m.rule(from, to)
	if !ok {
		return Decision{
			Denial: DenialInvalidEdge,
			Reason: fmt.Sprintf("Invalid transition from '%s' to '%s'", from, to),
		}
	}

	if rule.Permission != nil && !rule.Permission(ctx, subject, actor, from, to) {
		return Decision{
			Denial: DenialPermission,
			Reason: "You do not have permission to perform this transition",
		}
	}

	for _, guard := range rule.Guards {
		if ok, reason := guard(ctx, subject); !ok {
			return Decision{Denial: DenialGuard, Reason: reason}
		}
	}

	return Decision{Allowed: true, Reason: "Validation passed"}
}

// CanTransition answers "may this actor move the subject to this state right
// now" without side effects. It never returns an error: rule failures are
// data, not exceptions.
func (m *Machine[S, A]) CanTransition(ctx context.Context, subject S, to State, actor A) (bool, string) {
	d := m.Evaluate(ctx, subject, to, actor)
	return d.Allowed, d.Reason
}

// Transition re-evaluates the rule chain and, on success, applies the state
// change through the injected apply function. Refusals come back as
// *TransitionError carrying the exact reason.
func (m *Machine[S, A]) Transition(ctx context.Context, subject S, to State, actor A) error {
	from := m.current(subject)
	d := m.Evaluate(ctx, subject, to, actor)
	if !d.Allowed {
		return &TransitionError{From: from, To: to, Denial: d.Denial, Reason: d.Reason}
	}
	return m.apply(ctx, subject, to)
}

// AvailableTransitions lists, in table order, every state reachable from the
// subject's current state that this actor could transition to right now.
func (m *Machine[S, A]) AvailableTransitions(ctx context.Context, subject S, actor A) []Target {
	from := m.current(subject)

	var targets []Target
	for _, r := range m.rules[from] {
		if d := m.Evaluate(ctx, subject, r.To, actor); d.Allowed {
			targets = append(targets, Target{State: r.To, Label: r.Label})
		}
	}
	return targets
}

// ReachableFrom returns the raw table entry for a state, ignoring permissions
// and guards. Useful for introspection and tests.
func (m *Machine[S, A]) ReachableFrom(from State) []State {
	return append([]State(nil), m.order[from]...)
}
