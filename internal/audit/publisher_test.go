package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relieflink/pkg/domain"
)

const testCommitment = domain.Commitment("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

func TestPublisher_SyncMode(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	err := pub.Emit(context.Background(), Event{
		FamilyCommitment: testCommitment,
		Action:           string(EventFamilyRegistered),
	})
	require.NoError(t, err)

	events, err := store.ListByFamily(context.Background(), testCommitment)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(EventFamilyRegistered), events[0].Action)
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))

	err := pub.Emit(context.Background(), Event{
		FamilyCommitment: testCommitment,
		Action:           string(EventDistributionRecorded),
		AidType:          "FOOD",
	})
	require.NoError(t, err)

	// Close drains the buffer before returning.
	pub.Close()

	events, err := store.ListByFamily(context.Background(), testCommitment)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "FOOD", events[0].AidType)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	for range 10 {
		err := pub.Emit(context.Background(), Event{
			FamilyCommitment: testCommitment,
			Action:           string(EventDistributionRecorded),
		})
		require.NoError(t, err)
	}

	pub.Close()

	events, err := store.ListByFamily(context.Background(), testCommitment)
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_BufferFull_DropsEvent(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	// Saturate the buffer with concurrent emits; some may be dropped, but
	// the publisher must never block or panic.
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pub.Emit(context.Background(), Event{
				FamilyCommitment: testCommitment,
				Action:           string(EventDistributionRecorded),
			})
		}()
	}
	wg.Wait()
}

func TestPublisher_SetsTimestamp(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	before := time.Now()
	err := pub.Emit(context.Background(), Event{
		FamilyCommitment: testCommitment,
		Action:           string(EventFamilyRegistered),
	})
	require.NoError(t, err)

	events, err := store.ListByFamily(context.Background(), testCommitment)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.Before(before))
}
