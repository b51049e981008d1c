package attestation

import (
	"context"
	"encoding/hex"
	"encoding/json"

	dErrors "relieflink/pkg/domain-errors"
	"relieflink/pkg/domain"
)

// protocolPayload is the wire shape emitted by the external proof verifier.
// Signature verification happens inside that collaborator; here we only
// validate structure before admitting the claim into the core.
type protocolPayload struct {
	ClaimHash   string `json:"claim_hash"`
	Nullifier   string `json:"nullifier"`
	Nationality string `json:"nationality"`
	OverEighteen bool  `json:"over_18"`
	Gender      string `json:"gender"`
}

// ProtocolAttestor consumes the production proof verifier's output.
type ProtocolAttestor struct{}

func NewProtocol() *ProtocolAttestor {
	return &ProtocolAttestor{}
}

func (a *ProtocolAttestor) Verify(_ context.Context, proof Proof) (*Claim, error) {
	if len(proof.Payload) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "proof payload is required")
	}

	var payload protocolPayload
	if err := json.Unmarshal(proof.Payload, &payload); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed attestation payload")
	}

	claim, err := hex.DecodeString(payload.ClaimHash)
	if err != nil || len(claim) != 32 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "claim_hash must be 32 bytes of hex")
	}

	nullifier, err := domain.ParseNullifier(payload.Nullifier)
	if err != nil {
		return nil, err
	}

	return &Claim{
		Hashed:       domain.HashedClaim(claim),
		Nullifier:    nullifier,
		Nationality:  payload.Nationality,
		OverEighteen: payload.OverEighteen,
		Gender:       payload.Gender,
	}, nil
}
