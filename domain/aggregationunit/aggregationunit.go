// Package aggregationunit defines the Aggregation Unit (AU) aggregate, a
// reporting/segregation subdivision of a legal entity within a market.
package aggregationunit

import "fmt"

// Type enumerates how an AU nets its positions.
type Type string

const (
	TypeLong  Type = "long"
	TypeShort Type = "short"
	TypeNet   Type = "net"
)

func (t Type) Valid() bool {
	switch t {
	case TypeLong, TypeShort, TypeNet:
		return true
	default:
		return false
	}
}

// AggregationUnit. Invariant: (Market, Name) is unique; each AU belongs to
// exactly one market.
type AggregationUnit struct {
	ID     string
	Market string
	Name   string
	Type   Type
}

// Key returns the (market, name) uniqueness key enforced by the reference store.
func (a AggregationUnit) Key() string {
	return fmt.Sprintf("%s:%s", a.Market, a.Name)
}
