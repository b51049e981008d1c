// Package auth exchanges verified attestation proofs for volunteer access
// tokens and gates operator endpoints behind a pre-shared API key.
package auth

import (
	"context"
	"fmt"
	"log/slog"

	"relieflink/internal/attestation"
	"relieflink/internal/audit"
	"relieflink/internal/auth/device"
	"relieflink/internal/auth/token"
	dErrors "relieflink/pkg/domain-errors"
	"relieflink/pkg/secrets"
)

// AuditPublisher records verification events on the audit trail.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns volunteer verification and operator key checks.
type Service struct {
	attestor        attestation.Attestor
	tokens          *token.Service
	auditor         AuditPublisher
	logger          *slog.Logger
	operatorKeyHash string
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

// WithOperatorKeyHash enables operator endpoints guarded by the bcrypt hash
// of the pre-shared key. Empty hash keeps operator endpoints closed.
func WithOperatorKeyHash(hash string) Option {
	return func(s *Service) { s.operatorKeyHash = hash }
}

func New(attestor attestation.Attestor, tokens *token.Service, opts ...Option) (*Service, error) {
	if attestor == nil {
		return nil, fmt.Errorf("attestor is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token service is required")
	}
	svc := &Service{
		attestor: attestor,
		tokens:   tokens,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// VerifyRequest carries the opaque attestation payload plus request context
// used only for audit enrichment.
type VerifyRequest struct {
	Payload   []byte
	UserAgent string
	RequestID string
}

// VerifyResult is returned to the volunteer's device.
type VerifyResult struct {
	Token string
	Claim *attestation.Claim
}

// Verify validates the proof with the configured attestor and issues a
// volunteer token bound to the attested nullifier.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	claim, err := s.attestor.Verify(ctx, attestation.Proof{Payload: req.Payload})
	if err != nil {
		return nil, err
	}

	signed, err := s.tokens.Issue(claim.Nullifier, token.RoleVolunteer)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Event{
		Action:            string(audit.EventVolunteerVerified),
		RecordedBy:        claim.Nullifier,
		RequestID:         req.RequestID,
		DeviceFingerprint: device.Fingerprint(req.UserAgent),
	})

	return &VerifyResult{Token: signed, Claim: claim}, nil
}

// ValidateToken resolves volunteer claims from a bearer token.
func (s *Service) ValidateToken(tokenString string) (*token.Claims, error) {
	return s.tokens.Validate(tokenString)
}

// VerifyOperatorKey checks the pre-shared operator key. Endpoints guarded by
// it stay closed when no hash is configured.
func (s *Service) VerifyOperatorKey(key string) error {
	if s.operatorKeyHash == "" {
		return dErrors.New(dErrors.CodeForbidden, "operator access is not configured")
	}
	return secrets.Verify(key, s.operatorKeyHash)
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			"action", event.Action,
			"error", err,
		)
	}
}
