// Package position defines the Position aggregate and its settlement ladder,
// the core mutable state owned by the position engine (C3).
package position

import (
	"fmt"
	"time"
)

// LadderDays is N, the number of forward settlement buckets tracked
// (SD0..SD4 by default — see ladder.days configuration).
const LadderDays = 5

// Side enumerates trade directions affecting the ladder and intraday counters.
type Side string

const (
	SideBuy       Side = "buy"
	SideSell      Side = "sell"
	SideShortSell Side = "short-sell"
)

func (s Side) Valid() bool {
	switch s {
	case SideBuy, SideSell, SideShortSell:
		return true
	default:
		return false
	}
}

// Key identifies a Position: (book, security, business-date).
type Key struct {
	Book         string
	SecurityID   string
	BusinessDate time.Time
}

func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%s", k.Book, k.SecurityID, k.BusinessDate.Format("2006-01-02"))
}

// Flags carry the inclusion-category annotations referenced by the
// inventory engine's include/exclude rule sets (§4.4).
type Flags struct {
	Hypothecatable        bool
	Segregated            bool
	PledgedRepo           bool
	PledgedSwap           bool
	TriParty              bool
	PayToHold             bool
	CorporateActionPending bool
}

// Position is the per-(book, security, business-date) aggregate. Deliver and
// Receipt are day-bucketed ladder arrays of length LadderDays; bucket 0 is
// same-day settlement, bucket N-1 absorbs everything beyond the ladder
// horizon (the "long-dated" tail bucket, §8 boundary).
type Position struct {
	Key Key

	ContractualQty int64 // TD
	SettledQty     int64 // SD

	Deliver [LadderDays]int64
	Receipt [LadderDays]int64

	IntradayBuy       int64
	IntradaySell      int64
	IntradayShortSell int64

	Flags Flags

	// Sequence is the event-sequence watermark of the last applied event,
	// used to compute delta publications (the diff since last publish).
	Sequence uint64
}

// New creates a zeroed Position for key.
func New(key Key) *Position {
	return &Position{Key: key}
}

// BucketFor maps a settlement date to a ladder index relative to
// businessDate. Dates beyond the ladder horizon collapse into the tail
// bucket (index LadderDays-1), flagged long-dated by the caller.
func BucketFor(businessDate, settlementDate time.Time) (idx int, longDated bool) {
	days := int(settlementDate.Sub(businessDate).Hours() / 24)
	if days < 0 {
		days = 0
	}
	if days >= LadderDays {
		return LadderDays - 1, true
	}
	return days, false
}

// ApplyTrade posts qty into the correct ladder bucket and intraday counter
// for side, per §4.3: sell/short-sell increments Deliver and decrements
// ContractualQty, buy increments Receipt and ContractualQty. Zero-qty
// trades are accepted as a no-op (§8 boundary) — the caller should skip
// event emission in that case.
func (p *Position) ApplyTrade(side Side, qty int64, tradeDate, settlementDate time.Time) error {
	if !side.Valid() {
		return fmt.Errorf("invalid trade side %q", side)
	}
	if qty < 0 {
		return fmt.Errorf("trade qty cannot be negative: %d", qty)
	}
	if qty == 0 {
		return nil
	}

	bucket, _ := BucketFor(p.Key.BusinessDate, settlementDate)

	switch side {
	case SideSell, SideShortSell:
		p.Deliver[bucket] += qty
		p.ContractualQty -= qty
	case SideBuy:
		p.Receipt[bucket] += qty
		p.ContractualQty += qty
	}

	switch side {
	case SideBuy:
		p.IntradayBuy += qty
	case SideSell:
		p.IntradaySell += qty
	case SideShortSell:
		p.IntradayShortSell += qty
	}

	return p.checkInvariants()
}

// ResetIntraday zeroes the intraday counters at the SOD boundary (§4.3
// invariant 2: intraday counters reset at SOD).
func (p *Position) ResetIntraday() {
	p.IntradayBuy = 0
	p.IntradaySell = 0
	p.IntradayShortSell = 0
}

// ApplySODLoad replaces the SOD baseline. businessDate must equal the
// position's current business date, else the caller should reject with
// stale-sod (§4.3) rather than calling this method.
func (p *Position) ApplySODLoad(contractualQty, settledQty int64, deliver, receipt [LadderDays]int64) {
	p.ContractualQty = contractualQty
	p.SettledQty = settledQty
	p.Deliver = deliver
	p.Receipt = receipt
	p.ResetIntraday()
}

// ApplyCorporateAction applies a multiplier to TD/SD. If valueDateKnown is
// false, the position is annotated pending-ca but the multiplier is still
// applied so totals include it; downstream projections honor the flag to
// decide inclusion.
func (p *Position) ApplyCorporateAction(factor float64, valueDateKnown bool) {
	p.ContractualQty = int64(float64(p.ContractualQty) * factor)
	p.SettledQty = int64(float64(p.SettledQty) * factor)
	p.Flags.CorporateActionPending = !valueDateKnown
}

// ProjectedAt returns the settlement-ladder-projected position as of bucket
// k: SD_k = SD + Σ_{i<=k}(Receipt_i - Deliver_i).
func (p *Position) ProjectedAt(k int) int64 {
	if k < 0 {
		k = 0
	}
	if k >= LadderDays {
		k = LadderDays - 1
	}
	projected := p.SettledQty
	for i := 0; i <= k; i++ {
		projected += p.Receipt[i] - p.Deliver[i]
	}
	return projected
}

// checkInvariants enforces the per-event invariants of §4.3 and §8:
// settled <= contractual + incoming unsettled (approximated here by
// non-negative post-state on Deliver/Receipt, which upstream the engine
// additionally checks against the contractual/settled relationship before
// committing the event).
func (p *Position) checkInvariants() error {
	for i := 0; i < LadderDays; i++ {
		if p.Deliver[i] < 0 {
			return fmt.Errorf("invariant violated: Deliver[%d] went negative", i)
		}
		if p.Receipt[i] < 0 {
			return fmt.Errorf("invariant violated: Receipt[%d] went negative", i)
		}
	}
	return nil
}

// Delta is what is published to the position.delta stream for a change: the
// full post-change Position and its sequence number. It carries no
// field-level diff against the previous state.
type Delta struct {
	Book       string
	SecurityID string
	PostState  Position
	Sequence   uint64
}
