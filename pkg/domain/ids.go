// Package domain provides the core identifier types shared across the
// service. Keeping them typed prevents mixing a raw URID (beneficiary-facing,
// never persisted) with its commitment (the only on-chain-safe reference).
package domain

import (
	"strings"

	dErrors "relieflink/pkg/domain-errors"
)

// URID is the Unique Relief Identifier derived for a family: 16 uppercase
// hexadecimal characters. The raw value is shown to the beneficiary exactly
// once (as a QR payload) and must never be written to stores or logs.
type URID string

// Commitment is the SHA-256 of a URID, lowercase hex. This is the public
// reference used by the registry, the ledger, and every API surface.
type Commitment string

// Nullifier identifies a volunteer without revealing raw identity. It is
// supplied by the attestation collaborator and recorded on distributions.
type Nullifier string

// HashedClaim is the opaque, fixed-length identity claim produced by the
// external attestation process. The core never attempts to reverse it.
type HashedClaim []byte

const (
	uridLength       = 16
	commitmentLength = 64
)

// ParseURID validates a beneficiary-presented URID at the trust boundary.
func ParseURID(s string) (URID, error) {
	if len(s) != uridLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "URID must be 16 characters")
	}
	if !isHex(s, false) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "URID must be uppercase hexadecimal")
	}
	return URID(s), nil
}

// ParseCommitment validates a family commitment at the trust boundary.
func ParseCommitment(s string) (Commitment, error) {
	if len(s) != commitmentLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "commitment must be 64 characters")
	}
	if !isHex(s, true) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "commitment must be lowercase hexadecimal")
	}
	return Commitment(s), nil
}

// ParseNullifier validates a volunteer nullifier.
func ParseNullifier(s string) (Nullifier, error) {
	if strings.TrimSpace(s) == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "nullifier cannot be empty")
	}
	return Nullifier(s), nil
}

func (u URID) String() string       { return string(u) }
func (c Commitment) String() string { return string(c) }
func (n Nullifier) String() string  { return string(n) }

func (u URID) IsNil() bool       { return u == "" }
func (c Commitment) IsNil() bool { return c == "" }
func (n Nullifier) IsNil() bool  { return n == "" }

func isHex(s string, lower bool) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case lower && r >= 'a' && r <= 'f':
		case !lower && r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
