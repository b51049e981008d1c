package domainerrors

import (
	"errors"
	"time"
)

// Code represents a domain error category independent of transport layer.
// These codes describe what went wrong in business terms, not HTTP terms.
type Code string

const (
	CodeNotFound     Code = "not_found"
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeInternal     Code = "internal_error"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeTimeout      Code = "timeout"

	// Relief coordination outcomes. NotEligible is an expected, frequent
	// result and must never be treated as an unexpected fault.
	CodeFamilyNotFound      Code = "family_not_found"
	CodeFamilyInactive      Code = "family_inactive"
	CodeInvalidAidType      Code = "invalid_aid_type"
	CodeNotEligible         Code = "not_eligible"
	CodeQuantityOutOfRange  Code = "quantity_out_of_range"
	CodeIdentifierExhausted Code = "identifier_exhausted"

	// Infrastructure failures surfaced to callers; retry policy is theirs.
	CodeLedgerWriteFailed   Code = "ledger_write_failed"
	CodeRegistryUnavailable Code = "registry_unavailable"
)

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across service, store, and other layers.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// NotEligibleError carries the remaining cooldown for a rejected
// distribution so transport layers can surface a retry-after hint.
type NotEligibleError struct {
	AidType string
	Wait    time.Duration
}

func (e *NotEligibleError) Error() string {
	return "family not eligible for " + e.AidType + " for another " + e.Wait.String()
}

// NotEligible builds the canonical not_eligible domain error wrapping the
// typed detail. Extract the wait with errors.As(&NotEligibleError{}).
func NotEligible(aidType string, wait time.Duration) error {
	return &Error{
		Code:    CodeNotEligible,
		Message: "cooldown active for " + aidType,
		Err:     &NotEligibleError{AidType: aidType, Wait: wait},
	}
}

// WaitFor extracts the remaining cooldown from a not_eligible error chain.
// Returns zero and false when err carries no eligibility detail.
func WaitFor(err error) (time.Duration, bool) {
	var ne *NotEligibleError
	if errors.As(err, &ne) {
		return ne.Wait, true
	}
	return 0, false
}
