package history

import (
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/mvnfetch/pkg/errors"
)

// DefaultMemoryCapacity is the number of runs a MemoryStore keeps.
const DefaultMemoryCapacity = 1000

// MemoryStore keeps the most recent runs in memory. Once full, saving a new
// run evicts the oldest.
type MemoryStore struct {
	mu       sync.RWMutex
	runs     map[string]*Run
	order    []string // insertion order, oldest first
	capacity int
}

// NewMemoryStore creates a store holding up to capacity runs
// (DefaultMemoryCapacity when capacity <= 0).
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{runs: make(map[string]*Run), capacity: capacity}
}

func (s *MemoryStore) Save(_ context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *run
	if _, exists := s.runs[run.ID]; !exists {
		s.order = append(s.order, run.ID)
	}
	s.runs[run.ID] = &cp

	for len(s.order) > s.capacity {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeRunNotFound, "run %s not found", id)
	}
	cp := *run
	return &cp, nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Run, 0, min(limit, len(s.order)))
	for _, id := range slices.Backward(s.order) {
		if len(out) == limit {
			break
		}
		cp := *s.runs[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }
