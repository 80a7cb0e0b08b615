// Package availability models externally-sourced lending availability
// offered by street-side lenders, an input to the inventory engine's
// locate-availability category.
package availability

import "time"

// Type enumerates the firmness of a lender's offered quantity.
type Type string

const (
	TypeIndicative Type = "indicative"
	TypeFirm       Type = "firm"
	TypeExclusive  Type = "exclusive"
)

func (t Type) Valid() bool {
	switch t {
	case TypeIndicative, TypeFirm, TypeExclusive:
		return true
	default:
		return false
	}
}

// Key identifies an availability record: one lender's quote for one
// security as of one effective date.
type Key struct {
	LenderID     string
	SecurityID   string
	EffectiveDate time.Time
}

// Availability is a lender's offered quantity and rate for a security.
type Availability struct {
	Key Key

	Type     Type
	Quantity int64
	Rate     float64

	// ProviderVersion lets the reference store detect stale feeds and
	// apply last-write-wins within a feed, per-feed ordering across feeds.
	ProviderVersion int64
}

// Exclusive reports whether this quote reserves the quantity to a single
// borrower, making it unavailable to other locate requests once consumed.
func (a Availability) Exclusive() bool {
	return a.Type == TypeExclusive
}
