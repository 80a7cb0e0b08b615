package httpapi

import (
	"fmt"
	"sync"

	"github.com/globalprime/inventory-platform/domain/locate"
)

// MemoryLocateRepository is an in-process LocateRepository, suitable for
// tests and single-node deployments; production wiring backs this with a
// Postgres-backed implementation sharing the same interface.
type MemoryLocateRepository struct {
	mu      sync.Mutex
	byID    map[string]*locate.Request
	counter int64
}

// NewMemoryLocateRepository builds an empty repository.
func NewMemoryLocateRepository() *MemoryLocateRepository {
	return &MemoryLocateRepository{byID: make(map[string]*locate.Request)}
}

func (r *MemoryLocateRepository) NextID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counter++
	return fmt.Sprintf("LOC-%d", r.counter)
}

func (r *MemoryLocateRepository) Save(req *locate.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *req
	r.byID[req.ID] = &cp
	return nil
}

func (r *MemoryLocateRepository) Get(id string) (*locate.Request, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	cp := *req
	return &cp, true
}
