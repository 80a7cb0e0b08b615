package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/globalprime/inventory-platform/domain/event"
	"github.com/globalprime/inventory-platform/domain/limit"
	"github.com/globalprime/inventory-platform/domain/position"
	"github.com/globalprime/inventory-platform/domain/rule"
	"github.com/globalprime/inventory-platform/engine/inventory"
	"github.com/globalprime/inventory-platform/engine/limitengine"
	"github.com/globalprime/inventory-platform/engine/positionengine"
	"github.com/globalprime/inventory-platform/engine/reference"
	"github.com/globalprime/inventory-platform/infrastructure/fabric"
	"github.com/globalprime/inventory-platform/infrastructure/hotlog"
	"github.com/globalprime/inventory-platform/pkg/pgnotify"
)

// dispatcher applies ingress envelopes to the engines that own the
// affected partition key, the handler every PartitionWorker calls.
type dispatcher struct {
	positions *positionengine.Engine
	inventory *inventory.Engine
	limits    *limitengine.Engine
	rules     *rule.Snapshot
	refStore  *reference.Store
	bus       *fabric.Bus
	notify    *pgnotify.Bus
	log       hotlog.Logger
}

type sodLoadPayload struct {
	SecurityID     string        `json:"security_id"`
	Book           string        `json:"book"`
	BusinessDate   time.Time     `json:"business_date"`
	ContractualQty int64         `json:"contractual_qty"`
	SettledQty     int64         `json:"settled_qty"`
	Deliver        [position.LadderDays]int64 `json:"deliver"`
	Receipt        [position.LadderDays]int64 `json:"receipt"`
}

type tradeExecutionPayload struct {
	SecurityID     string    `json:"security_id"`
	Book           string    `json:"book"`
	Side           string    `json:"side"`
	Qty            int64     `json:"qty"`
	TradeDate      time.Time `json:"trade_date"`
	SettlementDate time.Time `json:"settlement_date"`
}

type corporateActionPayload struct {
	SecurityID     string  `json:"security_id"`
	Factor         float64 `json:"factor"`
	ValueDateKnown bool    `json:"value_date_known"`
}

type limitRebuildPayload struct {
	OwnerKind      string `json:"owner_kind"`
	OwnerID        string `json:"owner_id"`
	SecurityID     string `json:"security_id"`
	LongSellLimit  int64  `json:"long_sell_limit"`
	ShortSellLimit int64  `json:"short_sell_limit"`
}

// handle implements fabric.Handler, routing by the envelope's declared
// event type to the engine that owns its partition key.
func (d *dispatcher) handle(ctx context.Context, env event.Envelope) error {
	switch env.Type {
	case event.TypeTradeSODPosition:
		return d.applySODLoad(env)
	case event.TypeTradeExecution:
		return d.applyTradeExecution(env)
	case event.TypeContractFinancing, event.TypeContractSwap:
		return d.applyCorporateAction(env)
	case event.TypeRuleChange:
		return d.applyRuleChange(env)
	case event.TypeLimitDelta:
		return d.applyLimitRebuild(env)
	default:
		// Reference, market, availability, and locate-workflow envelopes
		// are owned by the reference store and the HTTP-facing locate
		// submission path respectively; nothing further to apply here.
		return nil
	}
}

func (d *dispatcher) applySODLoad(env event.Envelope) error {
	var p sodLoadPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return fmt.Errorf("decode sod-load: %w", err)
	}
	if err := d.positions.SODLoad(p.SecurityID, p.Book, p.BusinessDate, p.ContractualQty, p.SettledQty, p.Deliver, p.Receipt); err != nil {
		return &fabric.InvariantError{Invariant: "position.sod-load", Err: err}
	}
	return nil
}

func (d *dispatcher) applyTradeExecution(env event.Envelope) error {
	var p tradeExecutionPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return fmt.Errorf("decode trade-execution: %w", err)
	}
	side := position.Side(p.Side)
	if !side.Valid() {
		return &fabric.InvariantError{Invariant: "position.trade-side", Err: fmt.Errorf("unknown side %q", p.Side)}
	}
	if err := d.positions.Trade(p.SecurityID, p.Book, side, p.Qty, p.TradeDate, p.SettlementDate); err != nil {
		return &fabric.InvariantError{Invariant: "position.trade", Err: err}
	}
	return nil
}

func (d *dispatcher) applyCorporateAction(env event.Envelope) error {
	var p corporateActionPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return fmt.Errorf("decode corporate-action: %w", err)
	}
	d.positions.CorporateAction(p.SecurityID, p.Factor, p.ValueDateKnown)
	return nil
}

func (d *dispatcher) applyRuleChange(env event.Envelope) error {
	var r rule.Rule
	if err := json.Unmarshal(env.Payload, &r); err != nil {
		return fmt.Errorf("decode rule-change: %w", err)
	}
	d.rules.Version++
	replaced := false
	for i, existing := range d.rules.Rules {
		if existing.ID == r.ID {
			d.rules.Rules[i] = &r
			replaced = true
			break
		}
	}
	if !replaced {
		d.rules.Rules = append(d.rules.Rules, &r)
	}

	if d.notify != nil {
		if err := d.notify.Publish(context.Background(), ruleChangeChannel, d.rules.Version); err != nil {
			return fmt.Errorf("notify rule-change: %w", err)
		}
	}
	return nil
}

func (d *dispatcher) applyLimitRebuild(env event.Envelope) error {
	var p limitRebuildPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return fmt.Errorf("decode limit-rebuild: %w", err)
	}
	ownerKind := limit.OwnerKind(p.OwnerKind)
	if !ownerKind.Valid() {
		return &fabric.InvariantError{Invariant: "limit.owner-kind", Err: fmt.Errorf("unknown owner kind %q", p.OwnerKind)}
	}
	d.limits.Rebuild(limit.Key{OwnerKind: ownerKind, OwnerID: p.OwnerID, SecurityID: p.SecurityID}, p.LongSellLimit, p.ShortSellLimit)
	return nil
}

func marshalDelta(delta position.Delta) ([]byte, error) {
	return json.Marshal(delta)
}

func newEnvelope(typ event.Type, stream, source, partitionKey string, payload []byte) event.Envelope {
	return event.Envelope{
		ID:            uuid.NewString(),
		Type:          typ,
		Stream:        stream,
		Source:        source,
		WallTime:      time.Now().UTC(),
		PartitionKey:  partitionKey,
		SchemaVersion: 1,
		Payload:       payload,
	}
}
