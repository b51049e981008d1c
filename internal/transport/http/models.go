package httptransport

import (
	"encoding/base64"
	"strings"
	"time"

	dErrors "relieflink/pkg/domain-errors"
)

// VerifyRequest carries the base64-encoded attestation payload from the
// volunteer's device.
type VerifyRequest struct {
	Proof string `json:"proof"`
}

func (r *VerifyRequest) Normalize() {
	r.Proof = strings.TrimSpace(r.Proof)
}

func (r *VerifyRequest) Validate() error {
	if r.Proof == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "proof is required")
	}
	if _, err := base64.StdEncoding.DecodeString(r.Proof); err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "proof must be base64 encoded")
	}
	return nil
}

// VerifyResponse returns the volunteer token.
type VerifyResponse struct {
	Token       string `json:"token"`
	Nationality string `json:"nationality,omitempty"`
}

// RegisterFamilyRequest opens a new family registration. Proof is the
// family's attestation payload; the volunteer's own identity comes from the
// bearer token.
type RegisterFamilyRequest struct {
	Proof      string `json:"proof"`
	Location   string `json:"location"`
	FamilySize int    `json:"family_size"`
}

func (r *RegisterFamilyRequest) Normalize() {
	r.Proof = strings.TrimSpace(r.Proof)
	r.Location = strings.TrimSpace(r.Location)
}

func (r *RegisterFamilyRequest) Validate() error {
	if r.Proof == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "proof is required")
	}
	if _, err := base64.StdEncoding.DecodeString(r.Proof); err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "proof must be base64 encoded")
	}
	if r.Location == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "location is required")
	}
	if r.FamilySize < 1 {
		return dErrors.New(dErrors.CodeInvalidInput, "family_size must be positive")
	}
	return nil
}

// RegisterFamilyResponse returns the raw URID exactly once, for QR display
// on the volunteer's device. Only the commitment is ever returned again.
type RegisterFamilyResponse struct {
	URID       string    `json:"urid"`
	Commitment string    `json:"commitment"`
	FamilySize int       `json:"family_size"`
	Registered time.Time `json:"registered_at"`
}

// FamilyResponse is the public view of a registered family.
type FamilyResponse struct {
	Commitment   string    `json:"commitment"`
	FamilySize   int       `json:"family_size"`
	RegisteredAt time.Time `json:"registered_at"`
	Active       bool      `json:"active"`
}

// FamilyStatusRequest toggles a family's active flag.
type FamilyStatusRequest struct {
	Active bool   `json:"active"`
	Reason string `json:"reason"`
}

func (r *FamilyStatusRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *FamilyStatusRequest) Validate() error {
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "reason is required")
	}
	return nil
}

// DecisionResponse is one aid-type eligibility verdict.
type DecisionResponse struct {
	AidType          string     `json:"aid_type"`
	Eligible         bool       `json:"eligible"`
	WaitMs           int64      `json:"wait_ms"`
	LastDistribution *time.Time `json:"last_distribution,omitempty"`
}

// EligibilityMatrixResponse is the full six-type verdict for one family.
type EligibilityMatrixResponse struct {
	Commitment string             `json:"commitment"`
	CheckedAt  time.Time          `json:"checked_at"`
	Decisions  []DecisionResponse `json:"decisions"`
}

// RecordDistributionRequest records one handout.
type RecordDistributionRequest struct {
	Commitment string `json:"commitment"`
	AidType    string `json:"aid_type"`
	Quantity   int64  `json:"quantity"`
	Location   string `json:"location"`
}

func (r *RecordDistributionRequest) Normalize() {
	r.Commitment = strings.TrimSpace(r.Commitment)
	r.AidType = strings.TrimSpace(r.AidType)
	r.Location = strings.TrimSpace(r.Location)
}

func (r *RecordDistributionRequest) Validate() error {
	if r.Commitment == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "commitment is required")
	}
	if r.AidType == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "aid_type is required")
	}
	return nil
}

// DistributionResponse is the recorded ledger entry.
type DistributionResponse struct {
	ID         string    `json:"id"`
	Commitment string    `json:"commitment"`
	AidType    string    `json:"aid_type"`
	Quantity   int64     `json:"quantity"`
	Location   string    `json:"location"`
	Timestamp  time.Time `json:"timestamp"`
	RecordedBy string    `json:"recorded_by"`
}

// HistoryResponse lists a family's distributions, oldest first.
type HistoryResponse struct {
	Commitment string                 `json:"commitment"`
	Records    []DistributionResponse `json:"records"`
}
