package family

import (
	"context"
	"sync"

	"relieflink/internal/registry/models"
	"relieflink/pkg/domain"
	"relieflink/pkg/platform/sentinel"
)

// InMemoryStore keeps family records in a process-local map. It is the
// default backend for development and tests; production deployments swap in
// the PostgreSQL store without touching the service layer.
type InMemoryStore struct {
	mu       sync.RWMutex
	families map[domain.Commitment]models.FamilyRecord
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		families: make(map[domain.Commitment]models.FamilyRecord),
	}
}

// Get returns the family record for a commitment.
// Returns sentinel.ErrNotFound when no record exists.
func (s *InMemoryStore) Get(_ context.Context, commitment domain.Commitment) (*models.FamilyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.families[commitment]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copy := record
	return &copy, nil
}

// Put creates the family record.
// Returns sentinel.ErrConflict when a record already exists for the commitment.
func (s *InMemoryStore) Put(_ context.Context, record *models.FamilyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.families[record.Commitment]; exists {
		return sentinel.ErrConflict
	}
	s.families[record.Commitment] = *record
	return nil
}

// SetActive toggles the active flag. Records are never removed.
func (s *InMemoryStore) SetActive(_ context.Context, commitment domain.Commitment, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.families[commitment]
	if !ok {
		return sentinel.ErrNotFound
	}
	record.Active = active
	s.families[commitment] = record
	return nil
}

// Count returns the number of registered families.
func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.families), nil
}
