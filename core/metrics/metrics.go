// Package metrics exposes prometheus collectors for sync passes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the sync collectors. A nil *Metrics records nothing.
type Metrics struct {
	passes    *prometheus.CounterVec
	mutations *prometheus.CounterVec
	duration  prometheus.Histogram
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		passes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worklog_sync_passes_total",
			Help: "Sync passes by trigger and outcome",
		}, []string{"trigger", "outcome"}),
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worklog_sync_mutations_total",
			Help: "Mutations recorded by sync passes by kind and result",
		}, []string{"kind", "result"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "worklog_sync_pass_duration_seconds",
			Help:    "Duration of sync passes that ran",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
}

// Pass counts one trigger outcome. A zero duration is not observed.
func (m *Metrics) Pass(trigger, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.passes.WithLabelValues(trigger, outcome).Inc()
	if d > 0 {
		m.duration.Observe(d.Seconds())
	}
}

// Mutation counts one mutation log entry.
func (m *Metrics) Mutation(kind string, failed bool) {
	if m == nil {
		return
	}
	result := "ok"
	if failed {
		result = "failed"
	}
	m.mutations.WithLabelValues(kind, result).Inc()
}
