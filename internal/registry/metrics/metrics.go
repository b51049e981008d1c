package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the family registry module.
type Metrics struct {
	FamiliesRegistered prometheus.Counter
	CollisionRetries   prometheus.Counter
	RegisterDuration   prometheus.Histogram
	CacheHits          prometheus.Counter
	CacheMisses        prometheus.Counter
}

// New creates a new Metrics instance with all registry module metrics registered.
func New() *Metrics {
	return &Metrics{
		FamiliesRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relieflink_families_registered_total",
			Help: "Total number of families registered",
		}),
		CollisionRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relieflink_urid_collision_retries_total",
			Help: "Total identifier derivation retries caused by commitment collisions",
		}),
		RegisterDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "relieflink_family_register_duration_seconds",
			Help:    "Duration of family registration including collision retries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relieflink_family_cache_hits_total",
			Help: "Family record lookups served from the Redis cache",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relieflink_family_cache_misses_total",
			Help: "Family record lookups that fell through to the backing store",
		}),
	}
}

// IncrementFamiliesRegistered records a successful registration.
func (m *Metrics) IncrementFamiliesRegistered() {
	if m != nil {
		m.FamiliesRegistered.Inc()
	}
}

// IncrementCollisionRetries records one collision retry attempt.
func (m *Metrics) IncrementCollisionRetries() {
	if m != nil {
		m.CollisionRetries.Inc()
	}
}

// ObserveRegister records the duration of a registration.
// Call with time.Now() captured at the start of the operation.
func (m *Metrics) ObserveRegister(start time.Time) {
	if m != nil {
		m.RegisterDuration.Observe(time.Since(start).Seconds())
	}
}

// IncCacheHit records a family cache hit.
func (m *Metrics) IncCacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

// IncCacheMiss records a family cache miss.
func (m *Metrics) IncCacheMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}
