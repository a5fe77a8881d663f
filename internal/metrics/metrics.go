// Package metrics exposes Prometheus collectors for the evaluation loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cycle outcome labels.
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// Metrics bundles the collectors updated by the monitor runner.
type Metrics struct {
	CyclesTotal    *prometheus.CounterVec
	SourceFailures *prometheus.CounterVec
	Opportunities  prometheus.Counter
	LastProfitTWD  prometheus.Gauge
	CycleDuration  prometheus.Histogram
}

// New registers the collectors on reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arbwatch",
			Name:      "cycles_total",
			Help:      "Evaluation cycles by outcome.",
		}, []string{"status"}),
		SourceFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arbwatch",
			Name:      "source_failures_total",
			Help:      "Rate fetch failures by source.",
		}, []string{"source"}),
		Opportunities: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "arbwatch",
			Name:      "opportunities_total",
			Help:      "Cycles whose profit exceeded the threshold.",
		}),
		LastProfitTWD: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "arbwatch",
			Name:      "last_profit_twd",
			Help:      "Profit estimate of the most recent successful cycle.",
		}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "arbwatch",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one evaluation cycle.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
}
