package httpErrors

import (
	"net/http"

	dErrors "relieflink/pkg/domain-errors"
)

// ToHTTPStatus maps domain error codes onto HTTP status codes so every
// handler translates failures the same way.
func ToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInvalidInput, dErrors.CodeBadRequest, dErrors.CodeInvalidAidType, dErrors.CodeQuantityOutOfRange:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound, dErrors.CodeFamilyNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict, dErrors.CodeNotEligible:
		return http.StatusConflict
	case dErrors.CodeFamilyInactive:
		return http.StatusUnprocessableEntity
	case dErrors.CodeIdentifierExhausted:
		return http.StatusInternalServerError
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeLedgerWriteFailed, dErrors.CodeRegistryUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
