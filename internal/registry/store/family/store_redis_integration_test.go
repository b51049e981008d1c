//go:build integration

package family_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	family "relieflink/internal/registry/store/family"
	"relieflink/pkg/testutil/containers"
)

type CachedStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	inner *family.InMemoryStore
	store *family.CachedStore
}

func TestCachedStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedStoreSuite))
}

func (s *CachedStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *CachedStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.inner = family.NewMemory()
	s.store = family.NewCached(s.inner, s.redis.Client, time.Minute, nil)
}

func (s *CachedStoreSuite) TestGetPopulatesCache() {
	ctx := context.Background()
	commitment := randomCommitment()
	record := newRecord(commitment)

	s.Require().NoError(s.store.Put(ctx, record))

	// miss populates, second read hits the cache
	got, err := s.store.Get(ctx, commitment)
	s.Require().NoError(err)
	s.Equal(commitment, got.Commitment)

	// mutate the inner store directly; the cached read hides it until the TTL
	s.Require().NoError(s.inner.SetActive(ctx, commitment, false))

	got, err = s.store.Get(ctx, commitment)
	s.Require().NoError(err)
	s.True(got.Active)
}

func (s *CachedStoreSuite) TestSetActiveInvalidates() {
	ctx := context.Background()
	commitment := randomCommitment()

	s.Require().NoError(s.store.Put(ctx, newRecord(commitment)))

	_, err := s.store.Get(ctx, commitment)
	s.Require().NoError(err)

	// deactivation must be visible immediately, never served stale
	s.Require().NoError(s.store.SetActive(ctx, commitment, false))

	got, err := s.store.Get(ctx, commitment)
	s.Require().NoError(err)
	s.False(got.Active)
}
