package distribution

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relieflink/internal/ledger/models"
	"relieflink/pkg/domain"
	"relieflink/pkg/platform/sentinel"
)

const testCommitment = domain.Commitment("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

func newRecord(aidType domain.AidType, at time.Time) *models.DistributionRecord {
	return &models.DistributionRecord{
		ID:               uuid.NewString(),
		FamilyCommitment: testCommitment,
		AidType:          aidType,
		Quantity:         10,
		Location:         "sector-7 camp",
		Timestamp:        at,
		RecordedBy:       "volunteer-1",
	}
}

func TestInMemoryStore_LatestAndAppend(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	base := time.UnixMilli(1700000000000).UTC()

	t.Run("empty key returns ErrNotFound", func(t *testing.T) {
		_, err := store.Latest(ctx, testCommitment, domain.AidFood)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("first append requires nil prev", func(t *testing.T) {
		first := newRecord(domain.AidFood, base)
		require.NoError(t, store.AppendIfLatest(ctx, first, nil))

		got, err := store.Latest(ctx, testCommitment, domain.AidFood)
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID)
	})

	t.Run("stale nil prev conflicts once history exists", func(t *testing.T) {
		err := store.AppendIfLatest(ctx, newRecord(domain.AidFood, base.Add(time.Hour)), nil)
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("append on the observed latest succeeds", func(t *testing.T) {
		latest, err := store.Latest(ctx, testCommitment, domain.AidFood)
		require.NoError(t, err)

		next := newRecord(domain.AidFood, base.Add(24*time.Hour))
		require.NoError(t, store.AppendIfLatest(ctx, next, latest))

		got, err := store.Latest(ctx, testCommitment, domain.AidFood)
		require.NoError(t, err)
		assert.Equal(t, next.ID, got.ID)
	})

	t.Run("stale prev conflicts", func(t *testing.T) {
		stale := newRecord(domain.AidFood, base)
		err := store.AppendIfLatest(ctx, newRecord(domain.AidFood, base.Add(48*time.Hour)), stale)
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("aid types keep independent tails", func(t *testing.T) {
		water := newRecord(domain.AidWater, base)
		require.NoError(t, store.AppendIfLatest(ctx, water, nil))

		got, err := store.Latest(ctx, testCommitment, domain.AidWater)
		require.NoError(t, err)
		assert.Equal(t, water.ID, got.ID)
	})
}

func TestInMemoryStore_History(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	base := time.UnixMilli(1700000000000).UTC()

	food := newRecord(domain.AidFood, base)
	water := newRecord(domain.AidWater, base.Add(time.Hour))
	foodAgain := newRecord(domain.AidFood, base.Add(25*time.Hour))

	require.NoError(t, store.AppendIfLatest(ctx, food, nil))
	require.NoError(t, store.AppendIfLatest(ctx, water, nil))
	require.NoError(t, store.AppendIfLatest(ctx, foodAgain, food))

	history, err := store.History(ctx, testCommitment)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, food.ID, history[0].ID)
	assert.Equal(t, water.ID, history[1].ID)
	assert.Equal(t, foodAgain.ID, history[2].ID)

	other, err := store.History(ctx, domain.Commitment("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"))
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestInMemoryStore_ConcurrentAppend(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	base := time.UnixMilli(1700000000000).UTC()

	// Every writer observes the same empty tail; exactly one append may win.
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := range 8 {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			rec := newRecord(domain.AidMedical, base.Add(time.Duration(offset)*time.Millisecond))
			if err := store.AppendIfLatest(ctx, rec, nil); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)

	history, err := store.History(ctx, testCommitment)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
