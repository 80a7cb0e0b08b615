// Package contract models securities-financing contracts: loans, borrows,
// repos, pledges, and swap-driven positions that move securities outside the
// trade/settlement pipeline.
package contract

import "time"

// Type enumerates the contract variants (§3 "tagged variant instead of
// inheritance" design note).
type Type string

const (
	TypeLoan         Type = "loan"
	TypeBorrow       Type = "borrow"
	TypeRepo         Type = "repo"
	TypePledge       Type = "pledge"
	TypeSwapPosition Type = "swap-position"
)

func (t Type) Valid() bool {
	switch t {
	case TypeLoan, TypeBorrow, TypeRepo, TypePledge, TypeSwapPosition:
		return true
	default:
		return false
	}
}

// Status reflects the contract's lifecycle relative to settlement and return.
type Status string

const (
	StatusPending    Status = "pending"
	StatusOpen       Status = "open"
	StatusPartial    Status = "partial"
	StatusClosed     Status = "closed"
	StatusRecalled   Status = "recalled"
	StatusDefaulted  Status = "defaulted"
)

// CollateralLeg describes one piece of the collateral schedule backing a
// loan/borrow/repo/pledge contract.
type CollateralLeg struct {
	SecurityID string
	Quantity   int64
	Haircut    float64
}

// SettlementBucket is a future-dated settlement quantity on the contract,
// mirroring the position settlement ladder bucketing (§4.3).
type SettlementBucket struct {
	SettlementDate time.Time
	Quantity       int64
}

// Contract is the aggregate for all securities-financing variants. Fields
// not applicable to a given Type are left zero-valued; callers branch on
// Type rather than embedding behavior in subtypes.
type Contract struct {
	ID   string
	Type Type

	LenderCounterpartyID   string
	BorrowerCounterpartyID string

	SecurityID string
	Quantity   int64
	SettledQty int64

	Collateral []CollateralLeg
	Rate       float64

	EffectiveDate time.Time
	ExpiryDate    time.Time

	FutureSettlement []SettlementBucket

	Status Status
}

// OpenQty is the quantity still outstanding against the contract.
func (c *Contract) OpenQty() int64 {
	return c.Quantity - c.SettledQty
}

// Validate checks structural invariants independent of market data.
func (c *Contract) Validate() error {
	if !c.Type.Valid() {
		return errInvalidType(c.Type)
	}
	if c.Quantity < 0 {
		return errNegativeQty
	}
	if c.SettledQty < 0 || c.SettledQty > c.Quantity {
		return errSettledExceedsQty
	}
	if !c.ExpiryDate.IsZero() && c.ExpiryDate.Before(c.EffectiveDate) {
		return errExpiryBeforeEffective
	}
	return nil
}
