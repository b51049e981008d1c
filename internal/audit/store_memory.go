package audit

import (
	"context"
	"sync"

	"relieflink/pkg/domain"
)

// InMemoryStore keeps events in process memory, indexed by family
// commitment. Used in development and as the fixture for publisher tests.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[domain.Commitment][]Event
	all    []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[domain.Commitment][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.FamilyCommitment] = append(s.events[event.FamilyCommitment], event)
	s.all = append(s.all, event)
	return nil
}

// ListByFamily returns the events recorded for one family commitment.
func (s *InMemoryStore) ListByFamily(_ context.Context, commitment domain.Commitment) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[commitment]...), nil
}

// ListAll returns every recorded event in append order.
func (s *InMemoryStore) ListAll(_ context.Context) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.all...), nil
}
