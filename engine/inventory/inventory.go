// Package inventory implements the inventory engine (C4): for-loan,
// for-pledge, overborrow, and locate-availability categories computed per
// (security, market, business-date), incrementally recomputed on position
// deltas and fully recomputed on rule-change or drift-verification.
package inventory

import (
	"sync"

	"github.com/globalprime/inventory-platform/domain/position"
)

// Buckets are the pre-aggregated include/exclude totals the engine
// maintains per (security, market) so a single position delta can be
// applied incrementally instead of re-scanning every book (§4.4
// "Determinism"/"incremental recompute").
type Buckets struct {
	IncludeLong       int64 // long positions, hypothecatable, repo/swap-pledged-retrievable, exclusives, cross-border
	ExcludeSLABLoaned int64
	ExcludePayToHold  int64
	ExcludeReserved   int64
	ExcludePendingCA  int64

	AlreadyPledged int64

	BorrowContracts int64
	RequiredCover   int64

	ApprovedLocateDecrement int64
}

// Snapshot is the computed output for one (security, market, business-date).
type Snapshot struct {
	ForLoan          int64
	ForPledge        int64
	Overborrow       int64
	LocateAvailable  int64
}

func (b Buckets) forLoan() int64 {
	exclude := b.ExcludeSLABLoaned + b.ExcludePayToHold + b.ExcludeReserved + b.ExcludePendingCA
	v := b.IncludeLong - exclude
	if v < 0 {
		v = 0
	}
	return v
}

func (b Buckets) forPledge() int64 {
	v := b.forLoan() - b.AlreadyPledged - b.ExcludePendingCA
	if v < 0 {
		v = 0
	}
	return v
}

func (b Buckets) overborrow() int64 {
	return b.BorrowContracts - b.RequiredCover
}

func (b Buckets) locateAvailable() int64 {
	v := b.forLoan() - b.ApprovedLocateDecrement
	if v < 0 {
		v = 0
	}
	return v
}

// Compute derives a Snapshot from Buckets.
func (b Buckets) Compute() Snapshot {
	return Snapshot{
		ForLoan:         b.forLoan(),
		ForPledge:       b.forPledge(),
		Overborrow:      b.overborrow(),
		LocateAvailable: b.locateAvailable(),
	}
}

// Key identifies one inventory aggregation cell.
type Key struct {
	SecurityID   string
	Market       string
	BusinessDate string
}

// Engine holds pre-aggregated Buckets per Key and the rule-snapshot
// version they were last computed against.
type Engine struct {
	mu      sync.RWMutex
	buckets map[Key]*Buckets
	version int64 // rule snapshot version Buckets were last recomputed under
}

// New builds an empty Engine.
func New() *Engine {
	return &Engine{buckets: make(map[Key]*Buckets)}
}

func (e *Engine) bucketsFor(key Key) *Buckets {
	if b, ok := e.buckets[key]; ok {
		return b
	}
	b := &Buckets{}
	e.buckets[key] = b
	return b
}

// ApplyPositionDelta incrementally folds a position change into the
// bucket totals for key, classifying the position's flags into
// include/exclude per the default rule set (§4.4 point 1). include/exclude
// membership beyond these defaults is injected by the rule engine (C8);
// this is the rule-agnostic baseline the engine falls back to.
func (e *Engine) ApplyPositionDelta(key Key, prev, next *position.Position) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	b := e.bucketsFor(key)
	if prev != nil {
		b.IncludeLong -= includableQty(prev)
		if prev.Flags.PayToHold {
			b.ExcludePayToHold -= prev.ContractualQty
		}
		if prev.Flags.CorporateActionPending {
			b.ExcludePendingCA -= prev.ContractualQty
		}
		if prev.Flags.PledgedRepo || prev.Flags.PledgedSwap {
			b.AlreadyPledged -= prev.ContractualQty
		}
	}
	if next != nil {
		b.IncludeLong += includableQty(next)
		if next.Flags.PayToHold {
			b.ExcludePayToHold += next.ContractualQty
		}
		if next.Flags.CorporateActionPending {
			b.ExcludePendingCA += next.ContractualQty
		}
		if next.Flags.PledgedRepo || next.Flags.PledgedSwap {
			b.AlreadyPledged += next.ContractualQty
		}
	}

	return b.Compute()
}

// includableQty reports the position quantity eligible for the default
// for-loan include set: long (positive contractual), hypothecatable or
// retrievable pledged holdings, excluding anything already excluded.
func includableQty(p *position.Position) int64 {
	if p.ContractualQty <= 0 {
		return 0
	}
	if p.Flags.Segregated {
		return 0
	}
	return p.ContractualQty
}

// SetBorrowContracts and SetRequiredCover feed the overborrow calculation
// from the contract engine and limit engine respectively.
func (e *Engine) SetBorrowContracts(key Key, qty int64) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	b := e.bucketsFor(key)
	b.BorrowContracts = qty
	return b.Compute()
}

func (e *Engine) SetRequiredCover(key Key, qty int64) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	b := e.bucketsFor(key)
	b.RequiredCover = qty
	return b.Compute()
}

// SetApprovedLocateDecrement records the sum of decrement quantities for
// currently-approved locates against key, consumed by locate-availability.
func (e *Engine) SetApprovedLocateDecrement(key Key, qty int64) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	b := e.bucketsFor(key)
	b.ApprovedLocateDecrement = qty
	return b.Compute()
}

// Get returns the current snapshot for key.
func (e *Engine) Get(key Key) Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.buckets[key]
	if !ok {
		return Snapshot{}
	}
	return b.Compute()
}

// FullRecompute replaces the bucket for key wholesale, the path triggered
// by rule-change events and periodic drift-verification rather than
// incremental position deltas.
func (e *Engine) FullRecompute(key Key, b Buckets, ruleVersion int64) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := b
	e.buckets[key] = &cp
	e.version = ruleVersion
	return cp.Compute()
}

// Version reports the rule snapshot version the engine's buckets were
// last fully recomputed against.
func (e *Engine) Version() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.version
}

// KeyCount reports the number of (security, market) cells currently
// tracked, a cheap diagnostic surfaced by the /stats endpoint.
func (e *Engine) KeyCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.buckets)
}
