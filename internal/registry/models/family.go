package models

import (
	"time"

	"relieflink/pkg/domain"
)

// FamilyRecord is the registry's view of a registered family. It is keyed by
// the URID commitment - the raw URID is never stored. Records are never hard
// deleted; deactivation flips Active so the audit trail stays intact.
type FamilyRecord struct {
	Commitment   domain.Commitment
	FamilySize   int
	RegisteredAt time.Time
	Active       bool
}

// Registration is returned to the caller exactly once at registration time.
// URID is the only field that may be shown to the beneficiary (QR display);
// it must not be persisted or logged.
type Registration struct {
	URID   domain.URID
	Family *FamilyRecord
}
