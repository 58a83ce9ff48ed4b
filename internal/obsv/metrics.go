// Package obsv wires Heimdall's engine.Metrics into Prometheus counters and
// histograms. Tracing lives in internal/tracing instead, since this package
// depends on internal/engine and the engine facade needs to open spans
// itself.
package obsv

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/PossumXI/Asgard/Heimdall/internal/engine"
)

// Metrics holds Heimdall's Prometheus instruments.
type Metrics struct {
	ChecksTotal      *prometheus.CounterVec
	StageDurationMs  *prometheus.HistogramVec
	ConflictsTotal   *prometheus.CounterVec
}

var (
	global     *Metrics
	globalOnce sync.Once
)

// Global returns the process-wide Metrics instance, registering its
// instruments with the default Prometheus registry on first use.
func Global() *Metrics {
	globalOnce.Do(func() {
		global = &Metrics{
			ChecksTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "heimdall",
					Name:      "checks_total",
					Help:      "Total number of check_mission calls by decision.",
				},
				[]string{"decision"},
			),
			StageDurationMs: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: "heimdall",
					Name:      "stage_duration_ms",
					Help:      "Per-stage duration of check_mission in milliseconds.",
					Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500},
				},
				[]string{"stage"},
			),
			ConflictsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "heimdall",
					Name:      "conflicts_total",
					Help:      "Total assessed conflicts by severity.",
				},
				[]string{"severity"},
			),
		}
	})
	return global
}

// Observe records one check_mission call's metrics and conflict severities.
func (m *Metrics) Observe(result engine.Result) {
	decision := "cleared"
	if !result.Cleared {
		decision = "rejected"
	}
	m.ChecksTotal.WithLabelValues(decision).Inc()

	m.StageDurationMs.WithLabelValues("stage1_filter").Observe(result.Metrics.Stage1Ms)
	m.StageDurationMs.WithLabelValues("stage2_grid").Observe(result.Metrics.Stage2Ms)
	m.StageDurationMs.WithLabelValues("stage3_risk").Observe(result.Metrics.Stage3Ms)
	m.StageDurationMs.WithLabelValues("total").Observe(result.Metrics.TotalMs)

	for _, c := range result.Conflicts {
		m.ConflictsTotal.WithLabelValues(string(c.Severity)).Inc()
	}
}
