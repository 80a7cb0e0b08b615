// Package positionengine implements the position engine (C3): a sharded
// in-memory map of Position aggregates, mutated only by the single writer
// owning each (internal-security-id) shard.
package positionengine

import (
	"fmt"
	"sync"
	"time"

	"github.com/globalprime/inventory-platform/domain/position"
)

// ErrStaleSOD is returned by SODLoad when the load's business date does
// not match the engine's current business date (§4.3).
var ErrStaleSOD = fmt.Errorf("positionengine: stale sod load business date")

// shard holds all books' positions for one security, guarded by its own
// lock so unrelated securities never contend.
type shard struct {
	mu    sync.Mutex
	books map[string]*position.Position
}

// Engine is the sharded position store: internal-security-id -> shard ->
// book -> Position.
type Engine struct {
	mu     sync.RWMutex
	shards map[string]*shard

	businessDate time.Time

	onDelta func(position.Delta)
}

// New builds an Engine for businessDate. onDelta, if non-nil, receives a
// Delta after each applied mutation for publication to the fabric.
func New(businessDate time.Time, onDelta func(position.Delta)) *Engine {
	return &Engine{
		shards:       make(map[string]*shard),
		businessDate: businessDate,
		onDelta:      onDelta,
	}
}

func (e *Engine) shardFor(securityID string) *shard {
	e.mu.RLock()
	s, ok := e.shards[securityID]
	e.mu.RUnlock()
	if ok {
		return s
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.shards[securityID]; ok {
		return s
	}
	s = &shard{books: make(map[string]*position.Position)}
	e.shards[securityID] = s
	return s
}

func (e *Engine) positionFor(s *shard, securityID, book string) *position.Position {
	p, ok := s.books[book]
	if !ok {
		p = position.New(position.Key{Book: book, SecurityID: securityID, BusinessDate: e.businessDate})
		s.books[book] = p
	}
	return p
}

// Get returns a snapshot copy of the position for (book, security), or
// false if none exists yet.
func (e *Engine) Get(securityID, book string) (position.Position, bool) {
	s := e.shardFor(securityID)
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.books[book]
	if !ok {
		return position.Position{}, false
	}
	return *p, true
}

// SODLoad applies the start-of-day baseline to (book, security).
func (e *Engine) SODLoad(securityID, book string, businessDate time.Time, contractualQty, settledQty int64, deliver, receipt [position.LadderDays]int64) error {
	if !businessDate.Equal(e.businessDate) {
		return ErrStaleSOD
	}

	s := e.shardFor(securityID)
	s.mu.Lock()
	defer s.mu.Unlock()

	p := e.positionFor(s, securityID, book)
	p.ApplySODLoad(contractualQty, settledQty, deliver, receipt)
	e.publish(p)
	return nil
}

// Trade applies a trade to (book, security).
func (e *Engine) Trade(securityID, book string, side position.Side, qty int64, tradeDate, settlementDate time.Time) error {
	s := e.shardFor(securityID)
	s.mu.Lock()
	defer s.mu.Unlock()

	p := e.positionFor(s, securityID, book)
	if err := p.ApplyTrade(side, qty, tradeDate, settlementDate); err != nil {
		return err
	}
	e.publish(p)
	return nil
}

// CorporateAction applies a corporate-action multiplier to every book
// holding securityID.
func (e *Engine) CorporateAction(securityID string, factor float64, valueDateKnown bool) {
	s := e.shardFor(securityID)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.books {
		p.ApplyCorporateAction(factor, valueDateKnown)
		e.publish(p)
	}
}

// SetFlags mutates the inclusion-category flags for (book, security),
// applied by contract events (pledge/loan/tri-party/pay-to-hold).
func (e *Engine) SetFlags(securityID, book string, mutate func(*position.Flags)) {
	s := e.shardFor(securityID)
	s.mu.Lock()
	defer s.mu.Unlock()

	p := e.positionFor(s, securityID, book)
	mutate(&p.Flags)
	e.publish(p)
}

func (e *Engine) publish(p *position.Position) {
	p.Sequence++
	if e.onDelta != nil {
		e.onDelta(position.Delta{Book: p.Key.Book, SecurityID: p.Key.SecurityID, PostState: *p, Sequence: p.Sequence})
	}
}

// ResetIntradayAll zeroes intraday counters across every tracked position,
// the SOD boundary action that runs once per business date before the
// first SOD load of the new day.
func (e *Engine) ResetIntradayAll(newBusinessDate time.Time) {
	e.mu.Lock()
	e.businessDate = newBusinessDate
	shards := make([]*shard, 0, len(e.shards))
	for _, s := range e.shards {
		shards = append(shards, s)
	}
	e.mu.Unlock()

	for _, s := range shards {
		s.mu.Lock()
		for _, p := range s.books {
			p.ResetIntraday()
		}
		s.mu.Unlock()
	}
}

// BySecurity returns a snapshot of every book's position for securityID,
// used by the inventory engine to aggregate per-security totals.
func (e *Engine) BySecurity(securityID string) []position.Position {
	s := e.shardFor(securityID)
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]position.Position, 0, len(s.books))
	for _, p := range s.books {
		out = append(out, *p)
	}
	return out
}

// ShardCount reports the number of securities currently tracked, a cheap
// diagnostic surfaced by the /stats endpoint.
func (e *Engine) ShardCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.shards)
}
