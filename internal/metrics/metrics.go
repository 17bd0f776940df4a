package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Admission outcomes.
const (
	OutcomeAdmitted = "admitted"
	OutcomeConflict = "conflict"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"

	OutcomeCancelled = "cancelled"
	OutcomeNotFound  = "not_found"
)

var (
	admissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_admissions_total",
			Help: "Booking admission decisions by outcome",
		},
		[]string{"kind", "outcome"},
	)

	cancellations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_cancellations_total",
			Help: "Booking cancellations by outcome",
		},
		[]string{"outcome"},
	)

	lockWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "showing_lock_wait_seconds",
			Help:    "Time spent waiting for the per-showing admission lock",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		[]string{"kind"},
	)
)

// TrackAdmission counts one admission decision.
func TrackAdmission(kind, outcome string) {
	admissions.WithLabelValues(kind, outcome).Inc()
}

// TrackCancellation counts one cancellation attempt.
func TrackCancellation(outcome string) {
	cancellations.WithLabelValues(outcome).Inc()
}

// TrackLockWait records how long an admission waited for its showing lock.
func TrackLockWait(kind string, d time.Duration) {
	lockWait.WithLabelValues(kind).Observe(d.Seconds())
}
