// Package distribution provides append-only storage for relief distribution
// records. The ledger never updates or deletes a record; concurrent writers
// for the same family and aid type are serialized by a conditional append.
package distribution

import (
	"context"

	"relieflink/internal/ledger/models"
	"relieflink/pkg/domain"
)

// Store is the append-only distribution ledger contract.
type Store interface {
	// Latest returns the most recent record for the commitment and aid type,
	// or sentinel.ErrNotFound when the family has no history for that type.
	Latest(ctx context.Context, commitment domain.Commitment, aidType domain.AidType) (*models.DistributionRecord, error)

	// AppendIfLatest appends rec only if prev is still the latest record for
	// rec's commitment and aid type (prev nil means "no history"). Returns
	// sentinel.ErrConflict when another record landed in between.
	AppendIfLatest(ctx context.Context, rec *models.DistributionRecord, prev *models.DistributionRecord) error

	// History returns every record for the commitment across all aid types,
	// ordered by timestamp then insertion order.
	History(ctx context.Context, commitment domain.Commitment) ([]*models.DistributionRecord, error)
}
