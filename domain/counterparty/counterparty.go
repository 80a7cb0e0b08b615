// Package counterparty defines the Counterparty aggregate: internal desks,
// clients, brokers, custodians, advisors, and agents the platform tracks
// positions and limits against.
package counterparty

// Type enumerates the counterparty variants.
type Type string

const (
	TypeInternal   Type = "internal"
	TypeClient     Type = "client"
	TypeBroker     Type = "broker"
	TypeCustodian  Type = "custodian"
	TypeAdvisor    Type = "advisor"
	TypeAgent      Type = "agent"
	TypeOperations Type = "operations"
)

func (t Type) Valid() bool {
	switch t {
	case TypeInternal, TypeClient, TypeBroker, TypeCustodian, TypeAdvisor, TypeAgent, TypeOperations:
		return true
	default:
		return false
	}
}

// KYCStatus reflects whether a counterparty has cleared onboarding checks.
type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCApproved KYCStatus = "approved"
	KYCRejected KYCStatus = "rejected"
)

// LifecycleStatus reflects whether a counterparty is usable for new activity.
type LifecycleStatus string

const (
	LifecycleActive   LifecycleStatus = "active"
	LifecycleDormant  LifecycleStatus = "dormant"
	LifecycleClosed   LifecycleStatus = "closed"
)

// SelfID is the reserved internal ID of the platform's own self counterparty.
// Invariant: exactly one Counterparty with this ID and Type == TypeInternal
// exists in the reference store at any instant.
const SelfID = "SELF"

// Counterparty is a party positions, trades, or contracts can reference.
type Counterparty struct {
	ID        string
	Type      Type
	KYC       KYCStatus
	Lifecycle LifecycleStatus
	ParentID  string
}

// IsSelf reports whether this record is the platform's designated self entity.
func (c *Counterparty) IsSelf() bool {
	return c.ID == SelfID && c.Type == TypeInternal
}
