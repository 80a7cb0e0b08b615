// Package security defines the Security aggregate: an internally stable
// identifier over the set of external (source, id-type, value) mappings a
// reference-data provider may send for the same instrument.
package security

import "fmt"

// Type enumerates the instrument variants the platform tracks. Modeled as a
// tagged variant rather than a type hierarchy: operations on a Security
// dispatch on Type with exhaustive handling instead of subclassing.
type Type string

const (
	TypeEquity          Type = "equity"
	TypeCorporateBond    Type = "corporate-bond"
	TypeSovereignBond    Type = "sovereign-bond"
	TypeMunicipalBond    Type = "municipal-bond"
	TypeConvertible      Type = "convertible"
	TypeETF              Type = "etf"
	TypeIndex            Type = "index"
)

func (t Type) Valid() bool {
	switch t {
	case TypeEquity, TypeCorporateBond, TypeSovereignBond, TypeMunicipalBond, TypeConvertible, TypeETF, TypeIndex:
		return true
	default:
		return false
	}
}

// Status reflects the current lifecycle state of a Security record.
type Status string

const (
	StatusActive     Status = "active"
	StatusSuspended  Status = "suspended"
	StatusDelisted   Status = "delisted"
)

// ExternalID is a single (source, id-type, value) mapping contributed by a
// reference-data provider.
type ExternalID struct {
	Source string
	IDType string
	Value  string
}

// Key identifies an ExternalID within the identifier graph.
func (x ExternalID) Key() string {
	return fmt.Sprintf("%s:%s:%s", x.Source, x.IDType, x.Value)
}

// Security is the internal reference-data aggregate. InternalID is opaque,
// stable, and never rebound once assigned — see §3 invariant.
type Security struct {
	InternalID      string
	ExternalIDs     []ExternalID
	Type            Type
	Issuer          string
	Market          string
	Currency        string
	Status          Status
	ProviderVersion int64
}

// HasExternalID reports whether id is already present on this Security.
func (s *Security) HasExternalID(id ExternalID) bool {
	for _, existing := range s.ExternalIDs {
		if existing.Key() == id.Key() {
			return true
		}
	}
	return false
}

// Equal reports whether two Securities carry identical attributes, ignoring
// ProviderVersion — used by the reference store to decide whether an
// incoming upsert is a no-op (§8 idempotence: unchanged attributes bump
// nothing, publish nothing).
func (s *Security) Equal(other *Security) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.Type == other.Type &&
		s.Issuer == other.Issuer &&
		s.Market == other.Market &&
		s.Currency == other.Currency &&
		s.Status == other.Status
}
