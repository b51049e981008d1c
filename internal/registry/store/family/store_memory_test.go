package family

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relieflink/internal/registry/models"
	"relieflink/pkg/domain"
	"relieflink/pkg/platform/sentinel"
)

func record(commitment domain.Commitment) *models.FamilyRecord {
	return &models.FamilyRecord{
		Commitment:   commitment,
		FamilySize:   3,
		RegisteredAt: time.Now().UTC(),
		Active:       true,
	}
}

func TestInMemoryStore_GetPut(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	commitment := domain.Commitment("1111111111111111111111111111111111111111111111111111111111111111")

	t.Run("missing record returns ErrNotFound", func(t *testing.T) {
		_, err := store.Get(ctx, commitment)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("put then get round-trips", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, record(commitment)))

		got, err := store.Get(ctx, commitment)
		require.NoError(t, err)
		assert.Equal(t, commitment, got.Commitment)
		assert.True(t, got.Active)
	})

	t.Run("duplicate put returns ErrConflict", func(t *testing.T) {
		err := store.Put(ctx, record(commitment))
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("returned record is a copy", func(t *testing.T) {
		got, err := store.Get(ctx, commitment)
		require.NoError(t, err)
		got.Active = false

		again, err := store.Get(ctx, commitment)
		require.NoError(t, err)
		assert.True(t, again.Active)
	})
}

func TestInMemoryStore_SetActive(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	commitment := domain.Commitment("2222222222222222222222222222222222222222222222222222222222222222")

	t.Run("missing record returns ErrNotFound", func(t *testing.T) {
		err := store.SetActive(ctx, commitment, false)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("toggles without deleting", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, record(commitment)))
		require.NoError(t, store.SetActive(ctx, commitment, false))

		got, err := store.Get(ctx, commitment)
		require.NoError(t, err)
		assert.False(t, got.Active)

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestInMemoryStore_ConcurrentPut(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	commitment := domain.Commitment("3333333333333333333333333333333333333333333333333333333333333333")

	// Exactly one concurrent Put for the same commitment may win.
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Put(ctx, record(commitment)); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}
