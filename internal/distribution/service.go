// Package distribution records aid handouts on the append-only ledger.
// The recording path re-checks eligibility and then appends conditionally on
// the observed ledger tail, so two volunteers scanning the same family at
// the same moment cannot both succeed.
package distribution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"relieflink/internal/audit"
	"relieflink/internal/distribution/metrics"
	"relieflink/internal/eligibility"
	"relieflink/internal/ledger/models"
	"relieflink/pkg/domain"
	dErrors "relieflink/pkg/domain-errors"
	"relieflink/pkg/platform/sentinel"
)

//go:generate mockgen -source=service.go -destination=mocks/mock_service.go -package=mocks

// Checker decides whether a family may receive an aid type at a point in time.
type Checker interface {
	Check(ctx context.Context, commitment domain.Commitment, aidType domain.AidType, now time.Time) (eligibility.Decision, error)
}

// Ledger is the append-only store consumed by this service.
type Ledger interface {
	Latest(ctx context.Context, commitment domain.Commitment, aidType domain.AidType) (*models.DistributionRecord, error)
	AppendIfLatest(ctx context.Context, rec *models.DistributionRecord, prev *models.DistributionRecord) error
	History(ctx context.Context, commitment domain.Commitment) ([]*models.DistributionRecord, error)
}

// AuditPublisher records distribution outcomes on the audit trail.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns distribution recording and history reads.
type Service struct {
	checker     Checker
	ledger      Ledger
	auditor     AuditPublisher
	logger      *slog.Logger
	metrics     *metrics.Metrics
	maxQuantity int64
	now         func() time.Time
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

// WithMaxQuantity overrides the per-distribution quantity ceiling.
func WithMaxQuantity(max int64) Option {
	return func(s *Service) {
		if max > 0 {
			s.maxQuantity = max
		}
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// DefaultMaxQuantity bounds a single handout. Larger values are a data-entry
// error, not a real distribution.
const DefaultMaxQuantity int64 = 1_000_000

func New(checker Checker, ledger Ledger, opts ...Option) (*Service, error) {
	if checker == nil {
		return nil, fmt.Errorf("eligibility checker is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	svc := &Service{
		checker:     checker,
		ledger:      ledger,
		maxQuantity: DefaultMaxQuantity,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// RecordRequest carries one distribution attempt.
type RecordRequest struct {
	Commitment        domain.Commitment
	AidType           domain.AidType
	Quantity          int64
	Location          string
	RecordedBy        domain.Nullifier
	RequestID         string
	DeviceFingerprint string
}

// Record validates the request, re-checks eligibility and appends the record
// conditionally on the observed ledger tail. A concurrent append to the same
// family and aid type surfaces as not_eligible with a recomputed wait.
func (s *Service) Record(ctx context.Context, req RecordRequest) (*models.DistributionRecord, error) {
	start := time.Now()
	defer s.metrics.ObserveRecord(start)

	if err := s.validate(req); err != nil {
		return nil, err
	}

	now := s.now()

	decision, err := s.checker.Check(ctx, req.Commitment, req.AidType, now)
	if err != nil {
		return nil, err
	}
	if !decision.Eligible {
		return nil, s.deny(ctx, req, dErrors.NotEligible(string(req.AidType), decision.Wait))
	}

	prev, err := s.ledger.Latest(ctx, req.Commitment, req.AidType)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeLedgerWriteFailed, "ledger read failed")
	}
	// The tail may already contain a concurrent winner the eligibility check
	// did not see. Appending after it would hand out aid twice inside the
	// window, so the cooldown is re-validated against the observed tail.
	if prev != nil {
		cooldown := req.AidType.Cooldown()
		if elapsed := now.Sub(prev.Timestamp); elapsed < cooldown {
			wait := cooldown
			if elapsed >= 0 {
				wait = cooldown - elapsed
			}
			s.metrics.IncConflict()
			return nil, s.deny(ctx, req, dErrors.NotEligible(string(req.AidType), wait))
		}
	}

	rec := &models.DistributionRecord{
		ID:               uuid.NewString(),
		FamilyCommitment: req.Commitment,
		AidType:          req.AidType,
		Quantity:         req.Quantity,
		Location:         strings.TrimSpace(req.Location),
		Timestamp:        now.UTC(),
		RecordedBy:       string(req.RecordedBy),
	}

	if err := s.ledger.AppendIfLatest(ctx, rec, prev); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// A concurrent writer took the tail between the check and the
			// append. The family just received this aid type, so the attempt
			// is denied with a fresh wait.
			s.metrics.IncConflict()
			return nil, s.deny(ctx, req, s.recomputeWait(ctx, req, now))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeLedgerWriteFailed, "ledger append failed")
	}

	s.emit(ctx, audit.Event{
		FamilyCommitment:  req.Commitment,
		Action:            string(audit.EventDistributionRecorded),
		AidType:           string(req.AidType),
		Quantity:          int(req.Quantity),
		Location:          rec.Location,
		RecordedBy:        req.RecordedBy,
		RequestID:         req.RequestID,
		DeviceFingerprint: req.DeviceFingerprint,
	})
	s.metrics.IncRecorded(req.AidType)

	return rec, nil
}

// History returns every recorded distribution for a family, oldest first.
func (s *Service) History(ctx context.Context, commitment domain.Commitment) ([]*models.DistributionRecord, error) {
	records, err := s.ledger.History(ctx, commitment)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeLedgerWriteFailed, "ledger history failed")
	}
	return records, nil
}

func (s *Service) validate(req RecordRequest) error {
	if !req.AidType.IsValid() {
		return dErrors.New(dErrors.CodeInvalidAidType, "unknown aid type: "+string(req.AidType))
	}
	if req.Quantity < 1 || req.Quantity > s.maxQuantity {
		return dErrors.New(dErrors.CodeQuantityOutOfRange,
			fmt.Sprintf("quantity must be in [1, %d]", s.maxQuantity))
	}
	if strings.TrimSpace(req.Location) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "location is required")
	}
	return nil
}

// recomputeWait derives a fresh not_eligible error from the ledger tail that
// won the race. Falls back to the full cooldown when the re-read fails.
func (s *Service) recomputeWait(ctx context.Context, req RecordRequest, now time.Time) error {
	cooldown := req.AidType.Cooldown()
	wait := cooldown
	if latest, err := s.ledger.Latest(ctx, req.Commitment, req.AidType); err == nil {
		if elapsed := now.Sub(latest.Timestamp); elapsed >= 0 && elapsed < cooldown {
			wait = cooldown - elapsed
		}
	}
	return dErrors.NotEligible(string(req.AidType), wait)
}

// deny audits the refusal and passes the not_eligible error through.
func (s *Service) deny(ctx context.Context, req RecordRequest, err error) error {
	wait, _ := dErrors.WaitFor(err)
	s.emit(ctx, audit.Event{
		FamilyCommitment:  req.Commitment,
		Action:            string(audit.EventDistributionDenied),
		AidType:           string(req.AidType),
		Quantity:          int(req.Quantity),
		Location:          strings.TrimSpace(req.Location),
		RecordedBy:        req.RecordedBy,
		Reason:            fmt.Sprintf("cooldown active, wait %s", wait),
		RequestID:         req.RequestID,
		DeviceFingerprint: req.DeviceFingerprint,
	})
	s.metrics.IncDenied(req.AidType, "not_eligible")
	return err
}

// emit records an audit event best-effort; recording must not fail on a
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
