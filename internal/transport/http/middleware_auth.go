package httptransport

import (
	"context"
	"net/http"
	"strings"

	"relieflink/internal/auth/token"
	"relieflink/pkg/domain"
	dErrors "relieflink/pkg/domain-errors"
	"relieflink/pkg/platform/httputil"
)

type contextKey string

const volunteerKey contextKey = "volunteer"

// Volunteer is the authenticated caller resolved from the bearer token.
type Volunteer struct {
	Nullifier domain.Nullifier
	Role      token.Role
}

// GetVolunteer returns the authenticated volunteer, if any.
func GetVolunteer(ctx context.Context) (Volunteer, bool) {
	v, ok := ctx.Value(volunteerKey).(Volunteer)
	return v, ok
}

// TokenValidator resolves bearer tokens to claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*token.Claims, error)
}

// RequireVolunteer rejects requests without a valid bearer token and puts
// the volunteer identity on the request context.
func RequireVolunteer(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "bearer token required"))
				return
			}

			claims, err := validator.ValidateToken(raw)
			if err != nil {
				httputil.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), volunteerKey, Volunteer{
				Nullifier: domain.Nullifier(claims.Nullifier),
				Role:      token.Role(claims.Role),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OperatorKeyVerifier checks the pre-shared operator key.
type OperatorKeyVerifier interface {
	VerifyOperatorKey(key string) error
}

// RequireOperator gates operator endpoints behind the X-Operator-Key header.
func RequireOperator(verifier OperatorKeyVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-Operator-Key")
			if key == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "operator key required"))
				return
			}
			if err := verifier.VerifyOperatorKey(key); err != nil {
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
