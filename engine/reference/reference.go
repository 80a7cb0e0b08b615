// Package reference implements the reference store (C2): identifier
// resolution and reconciliation across security, counterparty, index, and
// aggregation-unit feeds.
package reference

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/globalprime/inventory-platform/domain/security"
)

// ResolveResult is the outcome of resolve(source, id-type, id-value).
type ResolveResult string

const (
	ResolveUnmapped  ResolveResult = "unmapped"
	ResolveAmbiguous ResolveResult = "ambiguous"
)

// ErrStaleVersion is returned by Upsert when an incoming record's provider
// version does not advance the stored version (§4.2 "rejects downgrade").
var ErrStaleVersion = fmt.Errorf("reference: stale provider version")

// ConflictRecord is an open exception awaiting human resolution. While
// open, the conflicting identifier resolves to neither candidate internal
// ID (§4.2 invariant: "conflict state suspends mapping rather than
// guessing").
type ConflictRecord struct {
	ExternalID  security.ExternalID
	Candidates  []string
	Resolved    bool
}

// Store is the in-memory identifier graph and security registry backing
// the reference store operations. An LRU cache fronts hot resolve() calls
// so the batch-load reconciliation path does not thrash the full map.
type Store struct {
	mu sync.RWMutex

	// identifiers maps an external identifier key to the internal ID it
	// is currently bound to.
	identifiers map[string]string

	// securities holds the canonical record per internal ID.
	securities map[string]*security.Security

	// conflicts holds open exceptions keyed by external identifier.
	conflicts map[string]*ConflictRecord

	cache *lru.Cache[string, string]
}

// NewStore builds a Store with a bounded LRU cache of cacheSize hot
// identifier resolutions.
func NewStore(cacheSize int) (*Store, error) {
	if cacheSize <= 0 {
		cacheSize = 10000
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("reference: lru cache: %w", err)
	}
	return &Store{
		identifiers: make(map[string]string),
		securities:  make(map[string]*security.Security),
		conflicts:   make(map[string]*ConflictRecord),
		cache:       cache,
	}, nil
}

// Resolve maps an external identifier to its bound internal ID.
func (s *Store) Resolve(id security.ExternalID) (internalID string, result ResolveResult, err error) {
	key := id.Key()

	if cached, ok := s.cache.Get(key); ok {
		return cached, "", nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, conflicted := s.conflicts[key]; conflicted {
		return "", ResolveAmbiguous, nil
	}
	internal, ok := s.identifiers[key]
	if !ok {
		return "", ResolveUnmapped, nil
	}

	s.cache.Add(key, internal)
	return internal, "", nil
}

// Upsert inserts or updates a security record, idempotent on
// ProviderVersion: a version not strictly greater than the stored one is
// rejected as stale rather than silently applied.
func (s *Store) Upsert(sec *security.Security) (changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.securities[sec.InternalID]
	if ok && sec.ProviderVersion <= existing.ProviderVersion {
		return false, ErrStaleVersion
	}

	changed = !ok || !existing.Equal(sec)
	if changed {
		s.securities[sec.InternalID] = sec
	}

	for _, id := range sec.ExternalIDs {
		key := id.Key()
		if bound, already := s.identifiers[key]; already && bound != sec.InternalID {
			s.openConflict(id, []string{bound, sec.InternalID})
			continue
		}
		s.identifiers[key] = sec.InternalID
		s.cache.Remove(key)
	}

	return changed, nil
}

// openConflict records a conflicting binding and evicts it from the
// cache so subsequent resolves see the suspended state.
func (s *Store) openConflict(id security.ExternalID, candidates []string) {
	key := id.Key()
	s.conflicts[key] = &ConflictRecord{ExternalID: id, Candidates: candidates}
	delete(s.identifiers, key)
	s.cache.Remove(key)
}

// Conflict explicitly opens (or re-confirms) an exception for a
// conflicting identifier, per the C2 conflict operation.
func (s *Store) Conflict(id security.ExternalID, candidates []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openConflict(id, candidates)
}

// ResolveConflict closes an open conflict, binding the identifier to
// winner and discarding the other candidates.
func (s *Store) ResolveConflict(id security.ExternalID, winner string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := id.Key()
	if rec, ok := s.conflicts[key]; ok {
		rec.Resolved = true
	}
	delete(s.conflicts, key)
	s.identifiers[key] = winner
	s.cache.Remove(key)
}

// Reconcile implements the batch-load identifier reconciliation algorithm
// of §4.2: for record candidates matched via each of its external IDs,
// tie-break by (1) multi-source consensus of >=2 agreeing sources, (2) the
// highest-priority source's own mapping, (3) otherwise mint a new ID.
// sourcePriority ranks sources low-to-high index as decreasing priority
// (index 0 is the most authoritative).
func Reconcile(candidateIDs []security.ExternalID, resolve func(security.ExternalID) (string, ResolveResult, error), sourcePriority []string, newID func() string) (internalID string, conflicted bool, err error) {
	votes := make(map[string]int)
	bySource := make(map[string]string)

	for _, id := range candidateIDs {
		internal, result, rErr := resolve(id)
		if rErr != nil {
			return "", false, rErr
		}
		if result == ResolveAmbiguous {
			return "", true, nil
		}
		if result == ResolveUnmapped {
			continue
		}
		votes[internal]++
		bySource[id.Source] = internal
	}

	if len(votes) == 0 {
		return newID(), false, nil
	}

	distinct := make([]string, 0, len(votes))
	for id, count := range votes {
		if count >= 2 {
			return id, false, nil
		}
		distinct = append(distinct, id)
	}

	for _, src := range sourcePriority {
		if internal, ok := bySource[src]; ok {
			return internal, false, nil
		}
	}

	if len(distinct) > 1 {
		// Disjoint identifiers point at different existing internal IDs
		// and no priority source resolves the tie: do not merge, surface
		// as a conflict for human resolution.
		return "", true, nil
	}

	return distinct[0], false, nil
}
