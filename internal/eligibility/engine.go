// Package eligibility decides whether a family may receive a given aid type
// right now. Decisions are pure functions of the family record, the ledger
// tail for that aid type, and the evaluation time; the engine never writes.
package eligibility

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"relieflink/internal/eligibility/metrics"
	"relieflink/internal/eligibility/tracer"
	ledgermodels "relieflink/internal/ledger/models"
	registrymodels "relieflink/internal/registry/models"
	"relieflink/pkg/domain"
	dErrors "relieflink/pkg/domain-errors"
	"relieflink/pkg/platform/sentinel"
)

// FamilyStore is the registry read surface the engine depends on.
type FamilyStore interface {
	Get(ctx context.Context, commitment domain.Commitment) (*registrymodels.FamilyRecord, error)
}

// Ledger is the distribution read surface the engine depends on.
type Ledger interface {
	Latest(ctx context.Context, commitment domain.Commitment, aidType domain.AidType) (*ledgermodels.DistributionRecord, error)
}

// Decision is the outcome of one eligibility check.
type Decision struct {
	AidType          domain.AidType
	Eligible         bool
	Wait             time.Duration
	LastDistribution *time.Time
}

// Engine evaluates cooldown windows against the ledger.
type Engine struct {
	families FamilyStore
	ledger   Ledger
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   tracer.Tracer
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger injects a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics injects prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithTracer injects a tracer for per-check spans.
func WithTracer(t tracer.Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

// New constructs an Engine over the given read stores.
func New(families FamilyStore, ledger Ledger, opts ...Option) (*Engine, error) {
	if families == nil {
		return nil, errors.New("family store is required")
	}
	if ledger == nil {
		return nil, errors.New("ledger is required")
	}
	e := &Engine{
		families: families,
		ledger:   ledger,
		logger:   slog.Default(),
		tracer:   tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Check evaluates a single aid type for the family at the given time.
func (e *Engine) Check(ctx context.Context, commitment domain.Commitment, aidType domain.AidType, now time.Time) (Decision, error) {
	if !aidType.IsValid() {
		return Decision{}, dErrors.New(dErrors.CodeInvalidAidType, "unknown aid type: "+string(aidType))
	}
	if _, err := e.loadActiveFamily(ctx, commitment); err != nil {
		return Decision{}, err
	}
	return e.checkAgainstLedger(ctx, commitment, aidType, now)
}

// CheckAll evaluates every aid type concurrently and returns decisions in the
// canonical order. The registry is consulted once; only the per-type ledger
// reads fan out.
func (e *Engine) CheckAll(ctx context.Context, commitment domain.Commitment, now time.Time) ([]Decision, error) {
	ctx, span := e.tracer.Start(ctx, tracer.SpanCheckAll,
		tracer.String(tracer.AttrCommitment, commitment.String()),
	)
	var retErr error
	defer func() { span.End(retErr) }()

	if _, err := e.loadActiveFamily(ctx, commitment); err != nil {
		retErr = err
		return nil, err
	}

	aidTypes := domain.AidTypes()
	decisions := make([]Decision, len(aidTypes))

	g, gctx := errgroup.WithContext(ctx)
	for i, aidType := range aidTypes {
		g.Go(func() error {
			decision, err := e.checkAgainstLedger(gctx, commitment, aidType, now)
			if err != nil {
				return err
			}
			decisions[i] = decision
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		retErr = err
		return nil, err
	}
	return decisions, nil
}

func (e *Engine) loadActiveFamily(ctx context.Context, commitment domain.Commitment) (*registrymodels.FamilyRecord, error) {
	family, err := e.families.Get(ctx, commitment)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeFamilyNotFound, "family is not registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeRegistryUnavailable, "registry lookup failed")
	}
	if !family.Active {
		return nil, dErrors.New(dErrors.CodeFamilyInactive, "family registration is deactivated")
	}
	return family, nil
}

// checkAgainstLedger assumes the family precondition already passed.
func (e *Engine) checkAgainstLedger(ctx context.Context, commitment domain.Commitment, aidType domain.AidType, now time.Time) (Decision, error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, tracer.SpanCheck,
		tracer.String(tracer.AttrAidType, string(aidType)),
	)
	var retErr error
	defer func() {
		span.End(retErr)
		e.metrics.ObserveCheck(start)
	}()

	last, err := e.ledger.Latest(ctx, commitment, aidType)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			decision := Decision{AidType: aidType, Eligible: true}
			span.SetAttributes(tracer.Bool(tracer.AttrEligible, true))
			e.metrics.IncCheck(aidType, true)
			return decision, nil
		}
		retErr = dErrors.Wrap(err, dErrors.CodeLedgerWriteFailed, "ledger read failed")
		return Decision{}, retErr
	}

	decision := Decision{
		AidType:          aidType,
		LastDistribution: &last.Timestamp,
	}
	cooldown := aidType.Cooldown()

	if now.Before(last.Timestamp) {
		// Evaluation clock runs behind the recorded history (offline sync,
		// skewed field device). Fail closed: the full window applies again.
		decision.Wait = cooldown
		span.AddEvent(tracer.EventClockSkew,
			tracer.Duration(tracer.AttrWaitMs, last.Timestamp.Sub(now)),
		)
		e.metrics.IncClockSkew()
		e.logger.WarnContext(ctx, "eligibility clock skew",
			slog.String("aid_type", string(aidType)),
			slog.Time("last_distribution", last.Timestamp),
			slog.Time("evaluated_at", now),
		)
	} else if elapsed := now.Sub(last.Timestamp); elapsed >= cooldown {
		decision.Eligible = true
	} else {
		decision.Wait = cooldown - elapsed
	}

	span.SetAttributes(
		tracer.Bool(tracer.AttrEligible, decision.Eligible),
		tracer.Duration(tracer.AttrWaitMs, decision.Wait),
	)
	e.metrics.IncCheck(aidType, decision.Eligible)
	return decision, nil
}
