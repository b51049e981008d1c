package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"relieflink/pkg/domain"
)

// Metrics provides observability for distribution recording.
type Metrics struct {
	Recorded       *prometheus.CounterVec
	Denied         *prometheus.CounterVec
	Conflicts      prometheus.Counter
	RecordDuration prometheus.Histogram
}

// New creates a new Metrics instance with all distribution metrics registered.
func New() *Metrics {
	return &Metrics{
		Recorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "relieflink_distributions_recorded_total",
			Help: "Distributions appended to the ledger, by aid type",
		}, []string{"aid_type"}),
		Denied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "relieflink_distributions_denied_total",
			Help: "Distribution attempts denied, by aid type and reason code",
		}, []string{"aid_type", "reason"}),
		Conflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relieflink_distribution_append_conflicts_total",
			Help: "Conditional ledger appends lost to a concurrent writer",
		}),
		RecordDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "relieflink_distribution_record_duration_seconds",
			Help:    "Duration of a distribution recording attempt",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncRecorded records a successful ledger append.
func (m *Metrics) IncRecorded(aidType domain.AidType) {
	if m != nil {
		m.Recorded.WithLabelValues(string(aidType)).Inc()
	}
}

// IncDenied records a denied attempt with its reason code.
func (m *Metrics) IncDenied(aidType domain.AidType, reason string) {
	if m != nil {
		m.Denied.WithLabelValues(string(aidType), reason).Inc()
	}
}

// IncConflict records a conditional append lost to a concurrent writer.
func (m *Metrics) IncConflict() {
	if m != nil {
		m.Conflicts.Inc()
	}
}

// ObserveRecord records the duration of a recording attempt.
func (m *Metrics) ObserveRecord(start time.Time) {
	if m != nil {
		m.RecordDuration.Observe(time.Since(start).Seconds())
	}
}
