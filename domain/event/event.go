// Package event defines the immutable event envelope carried on the fabric
// and the dedup key consumers use to collapse at-least-once delivery into
// exactly-once effect.
package event

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Type identifies the kind of record carried in an envelope's payload.
type Type string

const (
	TypeReferenceSecurity      Type = "reference.security"
	TypeReferenceCounterparty  Type = "reference.counterparty"
	TypeReferenceAU            Type = "reference.aggregation-unit"
	TypeReferenceIndex         Type = "reference.index-composition"
	TypeMarketPrice            Type = "market.price"
	TypeMarketNAV              Type = "market.nav"
	TypeMarketVolatility       Type = "market.volatility"
	TypeMarketFX               Type = "market.fx"
	TypeTradeSODPosition       Type = "trade.sod-position"
	TypeTradeOrder             Type = "trade.order"
	TypeTradeExecution         Type = "trade.execution"
	TypeTradeDepotPosition     Type = "trade.depot-position"
	TypeContractFinancing      Type = "contract.financing"
	TypeContractSwap           Type = "contract.swap"
	TypeAvailabilityExternal   Type = "availability.external"
	TypePositionDelta          Type = "position.delta"
	TypeInventoryDelta         Type = "inventory.delta"
	TypeLimitDelta             Type = "limit.delta"
	TypeLocateReceived         Type = "locate.received"
	TypeLocateDecision         Type = "locate.decision"
	TypeLocateDecrementChange  Type = "locate.decrement-change"
	TypeLocateExpired          Type = "locate.expired"
	TypeOrderValidated         Type = "order.validated"
	TypeOrderRejected          Type = "order.rejected"
	TypeException              Type = "exception"
	TypeRuleChange             Type = "rule-change"
)

// Stream names, partitioned logical topics carried by the fabric.
const (
	StreamReference      = "reference"
	StreamMarket         = "market"
	StreamTrade          = "trade"
	StreamContract       = "contract"
	StreamPositionDelta  = "position-delta"
	StreamInventoryDelta = "inventory-delta"
	StreamLocate         = "locate"
	StreamOrderValidate  = "order-validation"
	StreamRuleChange     = "rule-change"
	StreamDeadLetter     = "dead-letter"
)

// Envelope is the immutable unit of transport on the event fabric. Identity
// for dedup purposes is the (Source, ID, SchemaVersion) fingerprint — see DedupKey.
type Envelope struct {
	ID              string    `json:"event_id"`
	Type            Type      `json:"type"`
	Stream          string    `json:"stream"`
	Source          string    `json:"source"`
	LogicalTime     uint64    `json:"logical_timestamp"`
	WallTime        time.Time `json:"wall_time"`
	CorrelationID   string    `json:"correlation_id"`
	PartitionKey    string    `json:"partition_key"`
	SchemaVersion   int       `json:"schema_version"`
	Payload         []byte    `json:"payload"`
}

// New constructs an envelope with a freshly generated event ID.
func New(typ Type, stream, source, partitionKey, correlationID string, schemaVersion int, payload []byte) Envelope {
	return Envelope{
		ID:            uuid.NewString(),
		Type:          typ,
		Stream:        stream,
		Source:        source,
		WallTime:      time.Now().UTC(),
		CorrelationID: correlationID,
		PartitionKey:  partitionKey,
		SchemaVersion: schemaVersion,
		Payload:       payload,
	}
}

// DedupKey is the fingerprint of a delivery: (source, event-id, schema-version).
// Two envelopes with the same DedupKey represent the same logical delivery
// regardless of how many times the fabric redelivers them.
type DedupKey struct {
	Source        string
	EventID       string
	SchemaVersion int
}

// Key returns the envelope's dedup fingerprint.
func (e Envelope) Key() DedupKey {
	return DedupKey{Source: e.Source, EventID: e.ID, SchemaVersion: e.SchemaVersion}
}

// String renders the dedup key as a stable cache/store key.
func (k DedupKey) String() string {
	return k.Source + "|" + k.EventID + "|" + strconv.Itoa(k.SchemaVersion)
}
