//go:build integration

package family_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"relieflink/internal/registry/models"
	family "relieflink/internal/registry/store/family"
	"relieflink/pkg/domain"
	"relieflink/pkg/platform/sentinel"
	"relieflink/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *family.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = family.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "families")
	s.Require().NoError(err)
}

func randomCommitment() domain.Commitment {
	sum := sha256.Sum256([]byte(uuid.NewString()))
	return domain.Commitment(hex.EncodeToString(sum[:]))
}

func newRecord(commitment domain.Commitment) *models.FamilyRecord {
	return &models.FamilyRecord{
		Commitment:   commitment,
		FamilySize:   4,
		RegisteredAt: time.Now().UTC().Truncate(time.Millisecond),
		Active:       true,
	}
}

func (s *PostgresStoreSuite) TestPutAndGet() {
	ctx := context.Background()
	commitment := randomCommitment()
	record := newRecord(commitment)

	s.Require().NoError(s.store.Put(ctx, record))

	got, err := s.store.Get(ctx, commitment)
	s.Require().NoError(err)
	s.Equal(commitment, got.Commitment)
	s.Equal(4, got.FamilySize)
	s.True(got.Active)
	s.WithinDuration(record.RegisteredAt, got.RegisteredAt, time.Millisecond)
}

func (s *PostgresStoreSuite) TestGetMissingReturnsNotFound() {
	_, err := s.store.Get(context.Background(), randomCommitment())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDuplicatePutConflicts() {
	ctx := context.Background()
	commitment := randomCommitment()

	s.Require().NoError(s.store.Put(ctx, newRecord(commitment)))

	err := s.store.Put(ctx, newRecord(commitment))
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestSetActive() {
	ctx := context.Background()
	commitment := randomCommitment()

	s.Require().NoError(s.store.Put(ctx, newRecord(commitment)))
	s.Require().NoError(s.store.SetActive(ctx, commitment, false))

	got, err := s.store.Get(ctx, commitment)
	s.Require().NoError(err)
	s.False(got.Active)

	s.Require().ErrorIs(s.store.SetActive(ctx, randomCommitment(), false), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestCount() {
	ctx := context.Background()

	count, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(0, count)

	s.Require().NoError(s.store.Put(ctx, newRecord(randomCommitment())))
	s.Require().NoError(s.store.Put(ctx, newRecord(randomCommitment())))

	count, err = s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(2, count)
}

// TestConcurrentPutSameCommitment verifies that the primary key makes
// registration races resolve to exactly one winner.
func (s *PostgresStoreSuite) TestConcurrentPutSameCommitment() {
	ctx := context.Background()
	commitment := randomCommitment()

	const goroutines = 16
	var wg sync.WaitGroup
	var wins, conflicts atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Put(ctx, newRecord(commitment))
			switch {
			case err == nil:
				wins.Add(1)
			default:
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}
