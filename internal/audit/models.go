package audit

import (
	"time"

	"relieflink/pkg/domain"
)

// Event is emitted from domain logic to capture key actions. It carries
// commitments and nullifiers only - never raw URIDs or identity data - so
// the trail itself stays privacy-preserving.
type Event struct {
	Timestamp         time.Time         `json:"timestamp"`
	FamilyCommitment  domain.Commitment `json:"family_commitment,omitempty"`
	Action            string            `json:"action"`
	AidType           string            `json:"aid_type,omitempty"`
	Quantity          int               `json:"quantity,omitempty"`
	Location          string            `json:"location,omitempty"`
	RecordedBy        domain.Nullifier  `json:"recorded_by,omitempty"`
	Reason            string            `json:"reason,omitempty"`
	RequestID         string            `json:"request_id,omitempty"`
	DeviceFingerprint string            `json:"device_fingerprint,omitempty"`
}

// AuditAction enumerates the actions captured by the trail.
type AuditAction string

const (
	EventFamilyRegistered     AuditAction = "family_registered"
	EventFamilyDeactivated    AuditAction = "family_deactivated"
	EventFamilyReactivated    AuditAction = "family_reactivated"
	EventDistributionRecorded AuditAction = "distribution_recorded"
	EventDistributionDenied   AuditAction = "distribution_denied"
	EventVolunteerVerified    AuditAction = "volunteer_verified"
)
