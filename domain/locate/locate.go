// Package locate models the locate-request aggregate and its lifecycle
// state machine, owned by the locate workflow (C6).
package locate

import (
	"fmt"
	"time"
)

// State is a locate-request lifecycle state (§4.6).
type State string

const (
	StateReceived     State = "received"
	StateValidating   State = "validating"
	StatePendingReview State = "pending-review"
	StateAutoApproved State = "auto-approved"
	StateAutoRejected State = "auto-rejected"
	StateUnderReview  State = "under-review"
	StateApproved     State = "approved"
	StateRejected     State = "rejected"
	StateChecking     State = "checking"
	StateConfirmed    State = "confirmed"
	StateFailed       State = "failed"
	StateExpired      State = "expired"
)

// terminal holds the states from which no further transition is possible.
var terminal = map[State]bool{
	StateConfirmed: true,
	StateRejected:  true,
	StateExpired:   true,
}

// transitions enumerates the legal edges of the state machine (§4.6).
var transitions = map[State][]State{
	StateReceived:      {StateValidating},
	StateValidating:    {StatePendingReview, StateAutoApproved, StateAutoRejected},
	StatePendingReview:  {StateUnderReview},
	StateAutoApproved:  {StateApproved, StateChecking},
	StateAutoRejected:  {StateRejected},
	StateUnderReview:   {StateApproved, StateRejected},
	StateApproved:      {StateChecking},
	StateChecking:      {StateConfirmed, StateFailed},
	StateFailed:        {StateUnderReview, StateRejected},
}

// Terminal reports whether s has no further legal transitions.
func (s State) Terminal() bool {
	return terminal[s]
}

// CanTransition reports whether moving from s to next is a legal edge, or
// whether s can expire unconditionally (any non-terminal state expires on
// TTL breach).
func (s State) CanTransition(next State) bool {
	if next == StateExpired {
		return !s.Terminal()
	}
	for _, candidate := range transitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// RejectReason enumerates why a locate was rejected.
type RejectReason string

const (
	RejectInvalid             RejectReason = "invalid"
	RejectInsufficientInventory RejectReason = "insufficient-inventory"
	RejectRuleOutcome         RejectReason = "rule-rejected"
	RejectManual              RejectReason = "manual-rejection"
)

// Request is the locate-request aggregate.
type Request struct {
	ID           string
	ClientID     string
	SecurityID   string
	RequestedQty int64
	BusinessDate time.Time

	State State

	ApprovedQty  int64
	DecrementQty int64
	ExecutedQty  int64

	RejectReason RejectReason

	CreatedAt time.Time
	ExpiresAt time.Time
}

// Transition moves the request to next, or returns an error describing the
// illegal edge.
func (r *Request) Transition(next State) error {
	if !r.State.CanTransition(next) {
		return fmt.Errorf("illegal locate transition %s -> %s", r.State, next)
	}
	r.State = next
	return nil
}

// Expired reports whether the request has passed its TTL without reaching
// a terminal state (§4.6 "Expiry").
func (r *Request) Expired(asOf time.Time) bool {
	return !r.State.Terminal() && asOf.After(r.ExpiresAt)
}

// ReviseDecrement recomputes the decrement quantity intraday per §4.6 step
// 4: raise to executed quantity when executions exceed the current
// decrement (capped at approved-qty), or shrink toward executions near
// close, never below floor.
func (r *Request) ReviseDecrement(executedQty, floor int64) {
	target := r.DecrementQty
	if executedQty > target {
		target = executedQty
		if target > r.ApprovedQty {
			target = r.ApprovedQty
		}
	} else if executedQty < target {
		target = executedQty
		if target < floor {
			target = floor
		}
	}
	r.DecrementQty = target
	r.ExecutedQty = executedQty
}
