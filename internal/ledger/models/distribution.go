package models

import (
	"time"

	"relieflink/pkg/domain"
)

// DistributionRecord is one immutable entry in the append-only ledger.
// Records are never updated or deleted after a successful append.
type DistributionRecord struct {
	ID               string
	FamilyCommitment domain.Commitment
	AidType          domain.AidType
	Quantity         int64
	Location         string
	Timestamp        time.Time
	RecordedBy       string
}
