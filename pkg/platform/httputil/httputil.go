package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "relieflink/pkg/domain-errors"
	httpErrors "relieflink/pkg/http-errors"
)

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore
	// encoding errors. The response body may be incomplete, but headers are
	// already sent.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError centralizes domain error translation to HTTP responses.
// not_eligible responses additionally carry retry_after_ms so volunteer
// devices can show the remaining wait without another round trip.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		status := httpErrors.ToHTTPStatus(domainErr.Code)
		response := map[string]any{
			"error": string(domainErr.Code),
		}
		if domainErr.Message != "" && status < http.StatusInternalServerError {
			response["error_description"] = domainErr.Message
		}
		if wait, ok := dErrors.WaitFor(err); ok {
			response["retry_after_ms"] = wait.Milliseconds()
		}
		WriteJSON(w, status, response)
		return
	}

	// Fallback for unexpected errors; no detail leaks to the caller.
	WriteJSON(w, http.StatusInternalServerError, map[string]any{
		"error": string(dErrors.CodeInternal),
	})
}
