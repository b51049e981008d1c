// Package attestation abstracts the external identity verification
// collaborator. The core trusts its output - a hashed identity claim plus
// coarse demographic flags - and attaches no further verification.
//
// The variant is chosen once at startup by configuration; request handlers
// never branch on verifier mode.
package attestation

import (
	"context"

	"relieflink/internal/platform/config"
	"relieflink/pkg/domain"
)

// Claim is the verified output consumed by the registration flow. It never
// contains raw personal data.
type Claim struct {
	Hashed      domain.HashedClaim
	Nullifier   domain.Nullifier
	Nationality string
	OverEighteen bool
	Gender      string
}

// Proof carries the opaque payload produced by the external verifier.
type Proof struct {
	Payload []byte
}

// Attestor verifies a proof and returns the identity claim it attests to.
type Attestor interface {
	Verify(ctx context.Context, proof Proof) (*Claim, error)
}

// New selects the attestor variant for the configured mode.
func New(mode config.AttestationMode) Attestor {
	if mode == config.AttestationProtocol {
		return NewProtocol()
	}
	return NewMock()
}
