// Package observability exposes Prometheus metrics for reconciliation
// cycles.
package observability

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once
	registerErr  error

	cyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ecosoul",
			Subsystem: "engine",
			Name:      "cycles_total",
			Help:      "Reconciliation cycles by mutation kind, outcome and error code.",
		},
		[]string{"kind", "outcome", "code"},
	)
	cycleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ecosoul",
			Subsystem: "engine",
			Name:      "cycle_duration_seconds",
			Help:      "Time from submission to terminal outcome.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"kind", "outcome"},
	)
	rejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ecosoul",
			Subsystem: "engine",
			Name:      "rejections_total",
			Help:      "recordActivity calls refused before any submission.",
		},
		[]string{"code"},
	)
	cumulativeScore = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ecosoul",
			Subsystem: "session",
			Name:      "cumulative_score",
			Help:      "Sum of eco scores observed this session.",
		},
	)
)

// Register adds the collectors to reg. Only the first call registers;
// later calls return the first call's result.
func Register(reg prometheus.Registerer) error {
	registerOnce.Do(func() {
		for _, c := range []prometheus.Collector{cyclesTotal, cycleDuration, rejectionsTotal, cumulativeScore} {
			if err := reg.Register(c); err != nil {
				var are prometheus.AlreadyRegisteredError
				if errors.As(err, &are) {
					continue
				}
				registerErr = err
				return
			}
		}
	})
	return registerErr
}

// ObserveCycle records a finished cycle.
func ObserveCycle(kind, outcome, code string, d time.Duration) {
	cyclesTotal.WithLabelValues(kind, outcome, code).Inc()
	cycleDuration.WithLabelValues(kind, outcome).Observe(d.Seconds())
}

// ObserveRejection records a refused recordActivity call.
func ObserveRejection(code string) {
	rejectionsTotal.WithLabelValues(code).Inc()
}

// SetCumulativeScore publishes the session total.
func SetCumulativeScore(score uint64) {
	cumulativeScore.Set(float64(score))
}
