// Package shortsell implements the short-sell validator (C7): a two-stage
// client-then-AU reservation against the limit engine (C5), bounded by a
// 150ms P99 end-to-end budget.
package shortsell

import (
	"context"
	"fmt"
	"time"

	"github.com/globalprime/inventory-platform/domain/limit"
	"github.com/globalprime/inventory-platform/engine/limitengine"
)

// Budget is the end-to-end validation deadline (§4.7).
const Budget = 150 * time.Millisecond

// Order is the inbound request to validate.
type Order struct {
	OrderID    string
	SecurityID string
	Book       string
	Side       limit.Side
	Qty        int64
}

// BookToAU resolves a book to its aggregation unit for a market. Callers
// supply a concrete lookup (typically reference-store backed).
type BookToAU func(book, market string) (auID string, ok bool)

// RejectReason enumerates why validation failed.
type RejectReason string

const (
	RejectUnmappedBook      RejectReason = "unmapped"
	RejectClientHeadroom    RejectReason = "client-headroom"
	RejectAUHeadroom        RejectReason = "au-headroom"
	RejectDeadlineExceeded  RejectReason = "deadline-exceeded"
)

// Decision is the validator's outcome for one order.
type Decision struct {
	Approved           bool
	Reason             RejectReason
	ClientReservationID string
	AUReservationID     string
	Elapsed            time.Duration
}

// Validator wraps the limit engine with the two-stage reservation
// protocol. Single-threaded per (AU, security) linearizability is
// inherited from limitengine.Engine's per-key lock, not reimplemented
// here (§4.7 "single-threaded per (AU, security) reservation path").
type Validator struct {
	limits   *limitengine.Engine
	bookToAU BookToAU
	market   string
	now      func() time.Time
}

// New builds a Validator over limits, resolving books to AUs via
// bookToAU for market.
func New(limits *limitengine.Engine, bookToAU BookToAU, market string) *Validator {
	return &Validator{limits: limits, bookToAU: bookToAU, market: market, now: time.Now}
}

// Validate runs the two-stage check against client then AU limits,
// releasing stage A if stage B fails, and enforces the Budget deadline.
func (v *Validator) Validate(ctx context.Context, clientID string, order Order) Decision {
	start := v.now()

	auID, ok := v.bookToAU(order.Book, v.market)
	if !ok {
		return Decision{Approved: false, Reason: RejectUnmappedBook, Elapsed: v.now().Sub(start)}
	}

	clientKey := limit.Key{OwnerKind: limit.OwnerClient, OwnerID: clientID, SecurityID: order.SecurityID}
	clientResID, _, rejected := v.limits.CheckAndReserve(clientKey, order.Side, order.Qty)
	if rejected != "" {
		return Decision{Approved: false, Reason: RejectClientHeadroom, Elapsed: v.now().Sub(start)}
	}

	if ctx.Err() != nil {
		_ = v.limits.Release(clientResID)
		return Decision{Approved: false, Reason: RejectDeadlineExceeded, Elapsed: v.now().Sub(start)}
	}

	auKey := limit.Key{OwnerKind: limit.OwnerAU, OwnerID: auID, SecurityID: order.SecurityID}
	auResID, _, rejected := v.limits.CheckAndReserve(auKey, order.Side, order.Qty)
	if rejected != "" {
		_ = v.limits.Release(clientResID)
		return Decision{Approved: false, Reason: RejectAUHeadroom, Elapsed: v.now().Sub(start)}
	}

	elapsed := v.now().Sub(start)
	// Exceeding Budget does not invalidate an already-granted reservation;
	// the caller surfaces Elapsed for SLA telemetry, not a rollback.

	return Decision{
		Approved:            true,
		ClientReservationID: clientResID,
		AUReservationID:     auResID,
		Elapsed:             elapsed,
	}
}

// Cancel releases both reservations for a previously-approved order, the
// path taken when the downstream order is canceled or rejected (§4.7).
func (v *Validator) Cancel(d Decision) error {
	if !d.Approved {
		return fmt.Errorf("shortsell: cannot cancel an unapproved decision")
	}
	if err := v.limits.Release(d.ClientReservationID); err != nil {
		return err
	}
	return v.limits.Release(d.AUReservationID)
}
