package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
)

// runMetrics is registered against a per-run registry so repeated runs in one process
// never share counters.
type runMetrics struct {
	records  *prometheus.CounterVec
	errors   *prometheus.CounterVec
	rooms    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newRunMetrics(reg prometheus.Registerer) *runMetrics {
	f := promauto.With(reg)
	return &runMetrics{
		records: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "legacy_import",
			Name:      "records_total",
			Help:      "Records reconciled per kind broken down by outcome (created/updated).",
		}, []string{"kind", "outcome"}),
		errors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "legacy_import",
			Name:      "errors_total",
			Help:      "Reported import errors per kind broken down by class.",
		}, []string{"kind", "class"}),
		rooms: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "legacy_import",
			Name:      "rooms_total",
			Help:      "Project room provisioning outcomes.",
		}, []string{"outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "legacy_import",
			Name:      "kind_duration_seconds",
			Help:      "Wall time spent importing one kind.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"kind"}),
	}
}

func (m *runMetrics) recordOutcome(kind domain.Kind, created bool) {
	outcome := "updated"
	if created {
		outcome = "created"
	}
	m.records.WithLabelValues(string(kind), outcome).Inc()
}

func (m *runMetrics) recordError(kind domain.Kind, class ErrorClass) {
	m.errors.WithLabelValues(string(kind), string(class)).Inc()
}

func (m *runMetrics) recordRoom(outcome domain.RoomOutcome) {
	m.rooms.WithLabelValues(string(outcome)).Inc()
}

func (m *runMetrics) observeKind(kind domain.Kind, elapsed time.Duration) {
	m.duration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}
