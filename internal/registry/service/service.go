package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"relieflink/internal/audit"
	"relieflink/internal/registry/metrics"
	"relieflink/internal/registry/models"
	"relieflink/internal/urid"
	"relieflink/pkg/domain"
	dErrors "relieflink/pkg/domain-errors"
	"relieflink/pkg/platform/sentinel"
)

// maxDeriveAttempts bounds the collision-retry loop. Exhaustion is a
// systemic signal (mass re-registration, store corruption) surfaced to the
// operator instead of being retried indefinitely.
const maxDeriveAttempts = 5

// Store is the family persistence contract consumed by this service.
type Store interface {
	Get(ctx context.Context, commitment domain.Commitment) (*models.FamilyRecord, error)
	Put(ctx context.Context, record *models.FamilyRecord) error
	SetActive(ctx context.Context, commitment domain.Commitment, active bool) error
	Count(ctx context.Context) (int, error)
}

// AuditPublisher records registry actions on the audit trail.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns family registration and status transitions.
type Service struct {
	store   Store
	auditor AuditPublisher
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source; tests pin it for deterministic URIDs.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("family store is required")
	}
	svc := &Service{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// RegisterRequest carries the verified attestation output plus the family
// details collected by the volunteer. No raw identity data crosses this
// boundary.
type RegisterRequest struct {
	Claim        domain.HashedClaim
	Location     string
	FamilySize   int
	RegisteredBy domain.Nullifier
	RequestID    string
}

// Register derives a unique identifier and creates the family record.
//
// Each collision retry perturbs the timestamp by one millisecond and
// re-derives; the loop is sequential on purpose - parallel attempts would
// race on the same existence check. The returned Registration holds the raw
// URID for one-time QR display; only the commitment is persisted.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.Registration, error) {
	start := time.Now()
	baseMillis := s.now().UnixMilli()

	for attempt := 0; attempt < maxDeriveAttempts; attempt++ {
		ts := baseMillis + int64(attempt)

		id, err := urid.Derive(req.Claim, req.Location, req.FamilySize, ts)
		if err != nil {
			return nil, err
		}
		commitment := urid.Commitment(id)

		_, err = s.store.Get(ctx, commitment)
		switch {
		case err == nil:
			// Commitment already registered; perturb and retry.
			s.metrics.IncrementCollisionRetries()
			continue
		case !errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.Wrap(err, dErrors.CodeRegistryUnavailable, "family lookup failed")
		}

		record := &models.FamilyRecord{
			Commitment:   commitment,
			FamilySize:   req.FamilySize,
			RegisteredAt: time.UnixMilli(ts).UTC(),
			Active:       true,
		}
		if err := s.store.Put(ctx, record); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				// Lost a create race after the existence check; treat as collision.
				s.metrics.IncrementCollisionRetries()
				continue
			}
			return nil, dErrors.Wrap(err, dErrors.CodeRegistryUnavailable, "family create failed")
		}

		s.emit(ctx, audit.Event{
			FamilyCommitment: commitment,
			Action:           string(audit.EventFamilyRegistered),
			RecordedBy:       req.RegisteredBy,
			RequestID:        req.RequestID,
		})
		s.metrics.IncrementFamiliesRegistered()
		s.metrics.ObserveRegister(start)

		return &models.Registration{URID: id, Family: record}, nil
	}

	return nil, dErrors.New(dErrors.CodeIdentifierExhausted,
		fmt.Sprintf("no unique identifier after %d attempts", maxDeriveAttempts))
}

// Get resolves a family record by commitment.
func (s *Service) Get(ctx context.Context, commitment domain.Commitment) (*models.FamilyRecord, error) {
	record, err := s.store.Get(ctx, commitment)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeFamilyNotFound, "no family for commitment")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeRegistryUnavailable, "family lookup failed")
	}
	return record, nil
}

// SetActive toggles a family's active flag. The record survives
// deactivation; only future eligibility is blocked.
func (s *Service) SetActive(ctx context.Context, commitment domain.Commitment, active bool, reason string) error {
	if err := s.store.SetActive(ctx, commitment, active); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeFamilyNotFound, "no family for commitment")
		}
		return dErrors.Wrap(err, dErrors.CodeRegistryUnavailable, "family status update failed")
	}

	action := audit.EventFamilyDeactivated
	if active {
		action = audit.EventFamilyReactivated
	}
	s.emit(ctx, audit.Event{
		FamilyCommitment: commitment,
		Action:           string(action),
		Reason:           reason,
	})
	return nil
}

// Count reports the number of registered families.
func (s *Service) Count(ctx context.Context) (int, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeRegistryUnavailable, "family count failed")
	}
	return count, nil
}

// emit records an audit event best-effort; registration must not fail on a
// degraded trail, only log it.
func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			"action", event.Action,
			"family_commitment", event.FamilyCommitment,
			"error", err,
		)
	}
}
