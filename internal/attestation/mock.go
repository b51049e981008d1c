package attestation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	dErrors "relieflink/pkg/domain-errors"
	"relieflink/pkg/domain"
)

// MockAttestor produces deterministic claims for development and tests.
// The hashed claim is a digest of the payload, so the same "person" always
// attests to the same claim - which is what duplicate-prevention needs to
// be exercised locally.
type MockAttestor struct{}

func NewMock() *MockAttestor {
	return &MockAttestor{}
}

func (a *MockAttestor) Verify(_ context.Context, proof Proof) (*Claim, error) {
	if len(proof.Payload) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "proof payload is required")
	}

	sum := sha256.Sum256(proof.Payload)
	nullifier := sha256.Sum256(append([]byte("nullifier:"), proof.Payload...))

	return &Claim{
		Hashed:       domain.HashedClaim(sum[:]),
		Nullifier:    domain.Nullifier(hex.EncodeToString(nullifier[:])),
		Nationality:  "XX",
		OverEighteen: true,
	}, nil
}
