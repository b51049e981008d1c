package distribution

import (
	"context"
	"sort"
	"sync"

	"relieflink/internal/ledger/models"
	"relieflink/pkg/domain"
	"relieflink/pkg/platform/sentinel"
)

type ledgerKey struct {
	commitment domain.Commitment
	aidType    domain.AidType
}

// InMemoryStore keeps the ledger in process memory. All appends share one
// mutex, so the check inside AppendIfLatest and the append itself are atomic.
type InMemoryStore struct {
	mu      sync.RWMutex
	byKey   map[ledgerKey][]*models.DistributionRecord
	history map[domain.Commitment][]*models.DistributionRecord
}

// NewMemory constructs an empty in-memory ledger.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		byKey:   make(map[ledgerKey][]*models.DistributionRecord),
		history: make(map[domain.Commitment][]*models.DistributionRecord),
	}
}

// Latest returns the most recent record for the commitment and aid type.
func (s *InMemoryStore) Latest(ctx context.Context, commitment domain.Commitment, aidType domain.AidType) (*models.DistributionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.byKey[ledgerKey{commitment: commitment, aidType: aidType}]
	if len(records) == 0 {
		return nil, sentinel.ErrNotFound
	}
	latest := *records[len(records)-1]
	return &latest, nil
}

// AppendIfLatest appends rec only if prev still matches the tail for rec's
// commitment and aid type.
func (s *InMemoryStore) AppendIfLatest(ctx context.Context, rec *models.DistributionRecord, prev *models.DistributionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ledgerKey{commitment: rec.FamilyCommitment, aidType: rec.AidType}
	records := s.byKey[key]

	switch {
	case prev == nil:
		if len(records) != 0 {
			return sentinel.ErrConflict
		}
	default:
		if len(records) == 0 || records[len(records)-1].ID != prev.ID {
			return sentinel.ErrConflict
		}
	}

	stored := *rec
	s.byKey[key] = append(records, &stored)
	s.history[rec.FamilyCommitment] = append(s.history[rec.FamilyCommitment], &stored)
	return nil
}

// History returns every record for the commitment, oldest first.
func (s *InMemoryStore) History(ctx context.Context, commitment domain.Commitment) ([]*models.DistributionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.history[commitment]
	out := make([]*models.DistributionRecord, 0, len(records))
	for _, rec := range records {
		copied := *rec
		out = append(out, &copied)
	}
	// Appends already arrive in insertion order; sort keeps the timestamp
	// ordering stable when callers backfill historical records.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

var _ Store = (*InMemoryStore)(nil)
