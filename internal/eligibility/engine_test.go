package eligibility

// Justification for unit tests:
// The cooldown arithmetic is the safeguard against duplicate aid. These tests
// pin the window boundaries for every aid type, the fail-closed clock-skew
// behavior, and the fixed ordering of the batch check, all against in-memory
// stores with a deterministic clock.

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	ledgermodels "relieflink/internal/ledger/models"
	ledgerstore "relieflink/internal/ledger/store/distribution"
	"relieflink/internal/registry/models"
	familystore "relieflink/internal/registry/store/family"
	"relieflink/pkg/domain"
	dErrors "relieflink/pkg/domain-errors"
)

const engineTestCommitment = domain.Commitment("cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc")

type EligibilityEngineSuite struct {
	suite.Suite

	families *familystore.InMemoryStore
	ledger   *ledgerstore.InMemoryStore
	engine   *Engine
	base     time.Time
}

func TestEligibilityEngineSuite(t *testing.T) {
	suite.Run(t, new(EligibilityEngineSuite))
}

func (s *EligibilityEngineSuite) SetupTest() {
	s.families = familystore.NewMemory()
	s.ledger = ledgerstore.NewMemory()
	s.base = time.UnixMilli(1700000000000).UTC()

	engine, err := New(s.families, s.ledger)
	s.Require().NoError(err)
	s.engine = engine

	s.Require().NoError(s.families.Put(context.Background(), &models.FamilyRecord{
		Commitment:   engineTestCommitment,
		FamilySize:   4,
		RegisteredAt: s.base.Add(-24 * time.Hour),
		Active:       true,
	}))
}

func (s *EligibilityEngineSuite) distribute(aidType domain.AidType, at time.Time) {
	rec := &ledgermodels.DistributionRecord{
		ID:               uuid.NewString(),
		FamilyCommitment: engineTestCommitment,
		AidType:          aidType,
		Quantity:         5,
		Location:         "camp north",
		Timestamp:        at,
		RecordedBy:       "volunteer-9",
	}
	prev, err := s.ledger.Latest(context.Background(), engineTestCommitment, aidType)
	if err != nil {
		prev = nil
	}
	s.Require().NoError(s.ledger.AppendIfLatest(context.Background(), rec, prev))
}

func (s *EligibilityEngineSuite) TestNew() {
	s.Run("requires a family store", func() {
		_, err := New(nil, s.ledger)
		s.Error(err)
	})

	s.Run("requires a ledger", func() {
		_, err := New(s.families, nil)
		s.Error(err)
	})
}

func (s *EligibilityEngineSuite) TestCheckNoHistory() {
	decision, err := s.engine.Check(context.Background(), engineTestCommitment, domain.AidFood, s.base)
	s.Require().NoError(err)

	s.True(decision.Eligible)
	s.Zero(decision.Wait)
	s.Nil(decision.LastDistribution)
}

func (s *EligibilityEngineSuite) TestCheckInsideCooldown() {
	s.distribute(domain.AidFood, s.base)

	decision, err := s.engine.Check(context.Background(), engineTestCommitment, domain.AidFood, s.base.Add(time.Hour))
	s.Require().NoError(err)

	s.False(decision.Eligible)
	s.Equal(23*time.Hour, decision.Wait)
	s.Require().NotNil(decision.LastDistribution)
	s.Equal(s.base, *decision.LastDistribution)
}

func (s *EligibilityEngineSuite) TestCheckAtCooldownBoundary() {
	s.distribute(domain.AidFood, s.base)

	decision, err := s.engine.Check(context.Background(), engineTestCommitment, domain.AidFood, s.base.Add(24*time.Hour))
	s.Require().NoError(err)

	s.True(decision.Eligible)
	s.Zero(decision.Wait)
}

func (s *EligibilityEngineSuite) TestCheckPerAidTypeWindows() {
	cases := []struct {
		aidType  domain.AidType
		cooldown time.Duration
	}{
		{domain.AidFood, 24 * time.Hour},
		{domain.AidMedical, time.Hour},
		{domain.AidShelter, 7 * 24 * time.Hour},
		{domain.AidClothing, 30 * 24 * time.Hour},
		{domain.AidWater, 12 * time.Hour},
		{domain.AidCash, 30 * 24 * time.Hour},
	}

	for _, tc := range cases {
		s.Run(string(tc.aidType), func() {
			s.distribute(tc.aidType, s.base)

			before, err := s.engine.Check(context.Background(), engineTestCommitment, tc.aidType, s.base.Add(tc.cooldown-time.Millisecond))
			s.Require().NoError(err)
			s.False(before.Eligible)
			s.Equal(time.Millisecond, before.Wait)

			at, err := s.engine.Check(context.Background(), engineTestCommitment, tc.aidType, s.base.Add(tc.cooldown))
			s.Require().NoError(err)
			s.True(at.Eligible)
		})
	}
}

func (s *EligibilityEngineSuite) TestCheckClockSkew() {
	s.distribute(domain.AidMedical, s.base)

	// Evaluation time runs behind the last recorded distribution.
	decision, err := s.engine.Check(context.Background(), engineTestCommitment, domain.AidMedical, s.base.Add(-10*time.Minute))
	s.Require().NoError(err)

	s.False(decision.Eligible)
	s.Equal(time.Hour, decision.Wait)
}

func (s *EligibilityEngineSuite) TestCheckWaitShrinksOverTime() {
	s.distribute(domain.AidWater, s.base)

	first, err := s.engine.Check(context.Background(), engineTestCommitment, domain.AidWater, s.base.Add(time.Hour))
	s.Require().NoError(err)
	second, err := s.engine.Check(context.Background(), engineTestCommitment, domain.AidWater, s.base.Add(2*time.Hour))
	s.Require().NoError(err)

	s.False(first.Eligible)
	s.False(second.Eligible)
	s.Less(second.Wait, first.Wait)
}

func (s *EligibilityEngineSuite) TestCheckRejections() {
	s.Run("unknown aid type", func() {
		_, err := s.engine.Check(context.Background(), engineTestCommitment, domain.AidType("FUEL"), s.base)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidAidType))
	})

	s.Run("unregistered family", func() {
		other := domain.Commitment("dddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddd")
		_, err := s.engine.Check(context.Background(), other, domain.AidFood, s.base)
		s.True(dErrors.HasCode(err, dErrors.CodeFamilyNotFound))
	})

	s.Run("deactivated family", func() {
		s.Require().NoError(s.families.SetActive(context.Background(), engineTestCommitment, false))
		_, err := s.engine.Check(context.Background(), engineTestCommitment, domain.AidFood, s.base)
		s.True(dErrors.HasCode(err, dErrors.CodeFamilyInactive))
	})
}

func (s *EligibilityEngineSuite) TestCheckAll() {
	s.distribute(domain.AidFood, s.base)
	s.distribute(domain.AidWater, s.base.Add(-13*time.Hour))

	decisions, err := s.engine.CheckAll(context.Background(), engineTestCommitment, s.base.Add(time.Hour))
	s.Require().NoError(err)
	s.Require().Len(decisions, 6)

	wantOrder := []domain.AidType{
		domain.AidFood,
		domain.AidMedical,
		domain.AidShelter,
		domain.AidClothing,
		domain.AidWater,
		domain.AidCash,
	}
	for i, decision := range decisions {
		s.Equal(wantOrder[i], decision.AidType)
	}

	s.False(decisions[0].Eligible, "food distributed an hour ago")
	s.True(decisions[1].Eligible, "medical never distributed")
	s.True(decisions[4].Eligible, "water cooldown elapsed")
}

func (s *EligibilityEngineSuite) TestCheckAllFamilyGate() {
	_, err := s.engine.CheckAll(context.Background(), domain.Commitment("eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"), s.base)
	s.True(dErrors.HasCode(err, dErrors.CodeFamilyNotFound))
}
