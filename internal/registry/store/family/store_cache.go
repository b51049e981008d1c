package family

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"relieflink/internal/registry/metrics"
	"relieflink/internal/registry/models"
	"relieflink/pkg/domain"
)

const cacheKeyPrefix = "registry:family:"

// Store is the family store contract the cache decorates. The registry
// service depends on the same shape.
type Store interface {
	Get(ctx context.Context, commitment domain.Commitment) (*models.FamilyRecord, error)
	Put(ctx context.Context, record *models.FamilyRecord) error
	SetActive(ctx context.Context, commitment domain.Commitment, active bool) error
	Count(ctx context.Context) (int, error)
}

// CachedStore is a read-through Redis cache in front of another family
// store. Lookups dominate the workload (every eligibility check resolves the
// family first), so cache hits keep the hot path off PostgreSQL. Writes go
// straight through and invalidate the cached entry.
type CachedStore struct {
	inner   Store
	client  *redis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewCached wraps inner with a Redis cache. Metrics may be nil.
func NewCached(inner Store, client *redis.Client, ttl time.Duration, m *metrics.Metrics) *CachedStore {
	return &CachedStore{
		inner:   inner,
		client:  client,
		ttl:     ttl,
		metrics: m,
	}
}

// Get serves from cache when possible, falling back to the inner store.
// Cache failures degrade to inner-store reads rather than surfacing errors.
func (c *CachedStore) Get(ctx context.Context, commitment domain.Commitment) (*models.FamilyRecord, error) {
	key := cacheKey(commitment)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var record models.FamilyRecord
		if err := json.Unmarshal(data, &record); err == nil {
			c.recordHit()
			return &record, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		// Cache unreachable; the inner store remains authoritative.
		c.recordMiss()
		return c.inner.Get(ctx, commitment)
	}
	c.recordMiss()

	record, err := c.inner.Get(ctx, commitment)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(record); err == nil {
		_ = c.client.Set(ctx, key, payload, c.ttl).Err()
	}
	return record, nil
}

// Put writes through to the inner store. The entry is not pre-warmed; the
// next Get populates it.
func (c *CachedStore) Put(ctx context.Context, record *models.FamilyRecord) error {
	if err := c.inner.Put(ctx, record); err != nil {
		return err
	}
	_ = c.client.Del(ctx, cacheKey(record.Commitment)).Err()
	return nil
}

// SetActive writes through and invalidates so stale active flags can never
// let an inactive family pass eligibility.
func (c *CachedStore) SetActive(ctx context.Context, commitment domain.Commitment, active bool) error {
	if err := c.inner.SetActive(ctx, commitment, active); err != nil {
		return err
	}
	if err := c.client.Del(ctx, cacheKey(commitment)).Err(); err != nil {
		return fmt.Errorf("invalidate family cache: %w", err)
	}
	return nil
}

// Count always consults the inner store.
func (c *CachedStore) Count(ctx context.Context) (int, error) {
	return c.inner.Count(ctx)
}

func (c *CachedStore) recordHit() {
	if c.metrics != nil {
		c.metrics.IncCacheHit()
	}
}

func (c *CachedStore) recordMiss() {
	if c.metrics != nil {
		c.metrics.IncCacheMiss()
	}
}

func cacheKey(commitment domain.Commitment) string {
	return cacheKeyPrefix + commitment.String()
}

var _ Store = (*CachedStore)(nil)
var _ Store = (*InMemoryStore)(nil)
var _ Store = (*PostgresStore)(nil)
