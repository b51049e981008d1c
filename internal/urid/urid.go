// Package urid derives Unique Relief Identifiers for beneficiary families.
//
// The derivation is a pure function over the verified identity claim,
// normalized location, family size, and registration timestamp. Determinism
// is required for duplicate-prevention auditing; collision avoidance comes
// from the collision-retry loop in the registry service, which perturbs the
// timestamp between attempts.
package urid

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"relieflink/pkg/domain"
	dErrors "relieflink/pkg/domain-errors"
)

const (
	// Families larger than this are registered as multiple households.
	MaxFamilySize = 50

	uridHexLength     = 16
	locationMaxLength = 20
	delimiter         = "|"
)

// Derive computes the URID for a family. It is deterministic: identical
// inputs always produce the identical identifier. The raw claim bytes are
// consumed as-is and never retained.
func Derive(claim domain.HashedClaim, location string, familySize int, timestampMillis int64) (domain.URID, error) {
	if len(claim) == 0 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "hashed identity claim is required")
	}
	if strings.TrimSpace(location) == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "location is required")
	}
	if familySize < 1 || familySize > MaxFamilySize {
		return "", dErrors.New(dErrors.CodeInvalidInput, "family size must be between 1 and 50")
	}
	if timestampMillis <= 0 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "timestamp must be positive")
	}

	h := sha256.New()
	h.Write(claim)
	h.Write([]byte(delimiter))
	h.Write([]byte(NormalizeLocation(location)))
	h.Write([]byte(delimiter))
	h.Write([]byte(strconv.Itoa(familySize)))
	h.Write([]byte(delimiter))
	h.Write([]byte(strconv.FormatInt(timestampMillis, 10)))

	digest := hex.EncodeToString(h.Sum(nil))
	return domain.URID(strings.ToUpper(digest[:uridHexLength])), nil
}

// NormalizeLocation collapses cosmetic variations ("Mumbai, Maharashtra" vs
// "mumbai maharashtra") so they derive the same identifier: lowercase, strip
// everything outside [a-z0-9], truncate to 20 characters.
func NormalizeLocation(location string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(location) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() == locationMaxLength {
			break
		}
	}
	return b.String()
}

// Commitment computes the one-way public reference for a URID: SHA-256 of
// the identifier string, lowercase hex. There is no decode operation.
func Commitment(u domain.URID) domain.Commitment {
	sum := sha256.Sum256([]byte(u))
	return domain.Commitment(hex.EncodeToString(sum[:]))
}
