package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"relieflink/pkg/domain"
)

// Metrics provides observability for the eligibility engine.
type Metrics struct {
	ChecksTotal   *prometheus.CounterVec
	ClockSkew     prometheus.Counter
	CheckDuration prometheus.Histogram
}

// New creates a new Metrics instance with all eligibility metrics registered.
func New() *Metrics {
	return &Metrics{
		ChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "relieflink_eligibility_checks_total",
			Help: "Eligibility checks by aid type and outcome",
		}, []string{"aid_type", "eligible"}),
		ClockSkew: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relieflink_eligibility_clock_skew_total",
			Help: "Checks where the evaluation time preceded the last recorded distribution",
		}),
		CheckDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "relieflink_eligibility_check_duration_seconds",
			Help:    "Duration of a single aid-type eligibility check",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
	}
}

// IncCheck records one check outcome for an aid type.
func (m *Metrics) IncCheck(aidType domain.AidType, eligible bool) {
	if m != nil {
		label := "false"
		if eligible {
			label = "true"
		}
		m.ChecksTotal.WithLabelValues(string(aidType), label).Inc()
	}
}

// IncClockSkew records a check evaluated before the last distribution's timestamp.
func (m *Metrics) IncClockSkew() {
	if m != nil {
		m.ClockSkew.Inc()
	}
}

// ObserveCheck records the duration of a single check.
func (m *Metrics) ObserveCheck(start time.Time) {
	if m != nil {
		m.CheckDuration.Observe(time.Since(start).Seconds())
	}
}
