// Package httptransport is the thin HTTP layer over the relief services.
// Handlers decode, delegate and encode; all business rules live behind the
// service interfaces.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"relieflink/internal/attestation"
	"relieflink/internal/auth"
	"relieflink/internal/auth/token"
	"relieflink/internal/distribution"
	"relieflink/internal/eligibility"
	ledgermodels "relieflink/internal/ledger/models"
	"relieflink/internal/platform/middleware"
	registrymodels "relieflink/internal/registry/models"
	registryservice "relieflink/internal/registry/service"
	"relieflink/pkg/domain"
	"relieflink/pkg/platform/httputil"
)

// Attestor verifies the family's identity proof at registration time.
type Attestor interface {
	Verify(ctx context.Context, proof attestation.Proof) (*attestation.Claim, error)
}

// AuthService verifies volunteers and operator keys.
type AuthService interface {
	Verify(ctx context.Context, req auth.VerifyRequest) (*auth.VerifyResult, error)
	ValidateToken(tokenString string) (*token.Claims, error)
	VerifyOperatorKey(key string) error
}

// RegistryService owns family registration and status.
type RegistryService interface {
	Register(ctx context.Context, req registryservice.RegisterRequest) (*registrymodels.Registration, error)
	Get(ctx context.Context, commitment domain.Commitment) (*registrymodels.FamilyRecord, error)
	SetActive(ctx context.Context, commitment domain.Commitment, active bool, reason string) error
}

// EligibilityService evaluates cooldown windows.
type EligibilityService interface {
	Check(ctx context.Context, commitment domain.Commitment, aidType domain.AidType, now time.Time) (eligibility.Decision, error)
	CheckAll(ctx context.Context, commitment domain.Commitment, now time.Time) ([]eligibility.Decision, error)
}

// DistributionService records handouts and serves history.
type DistributionService interface {
	Record(ctx context.Context, req distribution.RecordRequest) (*ledgermodels.DistributionRecord, error)
	History(ctx context.Context, commitment domain.Commitment) ([]*ledgermodels.DistributionRecord, error)
}

// HealthChecker reports the health of one backing dependency.
type HealthChecker interface {
	Name() string
	Health(ctx context.Context) error
}

// Handler holds the services behind the public API.
type Handler struct {
	attestor      Attestor
	auth          AuthService
	registry      RegistryService
	eligibility   EligibilityService
	distributions DistributionService
	checkers      []HealthChecker
	logger        *slog.Logger
	now           func() time.Time
}

// HandlerOption configures the Handler.
type HandlerOption func(*Handler)

// WithHealthCheckers registers dependency probes for /healthz.
func WithHealthCheckers(checkers ...HealthChecker) HandlerOption {
	return func(h *Handler) {
		h.checkers = append(h.checkers, checkers...)
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) { h.now = now }
}

func NewHandler(
	attestor Attestor,
	authSvc AuthService,
	registry RegistryService,
	eligibilitySvc EligibilityService,
	distributions DistributionService,
	logger *slog.Logger,
	opts ...HandlerOption,
) *Handler {
	h := &Handler{
		attestor:      attestor,
		auth:          authSvc,
		registry:      registry,
		eligibility:   eligibilitySvc,
		distributions: distributions,
		logger:        logger,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewRouter wires all public endpoints with the platform middleware chain.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Post("/auth/verify", h.handleVerify)
	})

	// Volunteer endpoints require a verified bearer token.
	r.Group(func(r chi.Router) {
		r.Use(RequireVolunteer(h.auth))
		r.Group(func(r chi.Router) {
			r.Use(middleware.ContentTypeJSON)
			r.Post("/families", h.handleRegisterFamily)
			r.Post("/distributions", h.handleRecordDistribution)
		})
		r.Get("/families/{commitment}", h.handleGetFamily)
		r.Get("/eligibility/{commitment}", h.handleEligibilityMatrix)
		r.Get("/eligibility/{commitment}/{aidType}", h.handleEligibilityCheck)
		r.Get("/distributions/{commitment}", h.handleHistory)
	})

	// Operator endpoints use the pre-shared key, not volunteer tokens.
	r.Group(func(r chi.Router) {
		r.Use(RequireOperator(h.auth))
		r.Use(middleware.ContentTypeJSON)
		r.Post("/families/{commitment}/status", h.handleFamilyStatus)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := http.StatusOK
	checks := make(map[string]string, len(h.checkers))
	for _, checker := range h.checkers {
		if err := checker.Health(ctx); err != nil {
			checks[checker.Name()] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[checker.Name()] = "ok"
	}
	httputil.WriteJSON(w, status, map[string]any{
		"status": http.StatusText(status),
		"checks": checks,
	})
}

// commitmentParam parses the {commitment} URL segment.
func commitmentParam(r *http.Request) (domain.Commitment, error) {
	return domain.ParseCommitment(chi.URLParam(r, "commitment"))
}
