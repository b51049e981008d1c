package domain

import (
	"strings"
	"time"

	dErrors "relieflink/pkg/domain-errors"
)

// AidType is the closed enumeration of aid categories. Each carries a fixed,
// process-wide cooldown: the minimum time between two distributions of the
// same type to the same family.
type AidType string

const (
	AidFood     AidType = "FOOD"
	AidMedical  AidType = "MEDICAL"
	AidShelter  AidType = "SHELTER"
	AidClothing AidType = "CLOTHING"
	AidWater    AidType = "WATER"
	AidCash     AidType = "CASH"
)

// Cooldowns are constants, not configuration. Changing one is a product
// decision with audit implications, so it requires a code change.
var cooldowns = map[AidType]time.Duration{
	AidFood:     24 * time.Hour,
	AidMedical:  1 * time.Hour,
	AidShelter:  7 * 24 * time.Hour,
	AidClothing: 30 * 24 * time.Hour,
	AidWater:    12 * time.Hour,
	AidCash:     30 * 24 * time.Hour,
}

// aidTypeOrder fixes the enumeration order used by batch eligibility results.
var aidTypeOrder = []AidType{AidFood, AidMedical, AidShelter, AidClothing, AidWater, AidCash}

// AidTypes returns all aid types in their fixed enumeration order.
// Callers must not mutate the returned slice.
func AidTypes() []AidType {
	return aidTypeOrder
}

// ParseAidType validates an aid type at the trust boundary. Matching is
// case-insensitive; the canonical uppercase form is returned.
func ParseAidType(s string) (AidType, error) {
	t := AidType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidAidType, "unknown aid type: "+s)
	}
	return t, nil
}

// IsValid reports whether t is one of the six enumerated values.
func (t AidType) IsValid() bool {
	_, ok := cooldowns[t]
	return ok
}

// Cooldown returns the fixed cooldown window for the aid type.
// It returns zero for unknown types; validate with IsValid first.
func (t AidType) Cooldown() time.Duration {
	return cooldowns[t]
}

func (t AidType) String() string { return string(t) }
