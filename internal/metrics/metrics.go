// Package metrics provides Prometheus metrics for pipeline runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MikeSquared-Agency/Assay/internal/diag"
)

// Metrics holds the run metrics. A nil *Metrics records nothing.
type Metrics struct {
	RunsTotal         *prometheus.CounterVec
	StageDuration     *prometheus.HistogramVec
	WarningsTotal     *prometheus.CounterVec
	Experiments       prometheus.Gauge
	Feasible          prometheus.Gauge
	LastSuccessfulRun prometheus.Gauge
}

// New registers the metrics with reg. An empty namespace means "assay".
func New(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "assay"
	}
	f := promauto.With(reg)
	return &Metrics{
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"status"}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30},
		}, []string{"stage"}),
		WarningsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "warnings_total",
			Help:      "Recovered data problems by kind",
		}, []string{"kind"}),
		Experiments: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "experiments",
			Name:      "total",
			Help:      "Experiments in the last successful run",
		}),
		Feasible: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "experiments",
			Name:      "feasible",
			Help:      "Feasible experiments in the last successful run",
		}),
		LastSuccessfulRun: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of the last successful run",
		}),
	}
}

// RecordRun counts a finished run.
func (m *Metrics) RecordRun(status string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordDiagnostics adds the run's warning counts by kind.
func (m *Metrics) RecordDiagnostics(r *diag.Report) {
	if m == nil || r == nil {
		return
	}
	for _, e := range r.Totals() {
		m.WarningsTotal.WithLabelValues(string(e.Kind)).Add(float64(e.Count))
	}
}

// RecordSuccess sets the experiment gauges after a successful run.
func (m *Metrics) RecordSuccess(experiments, feasible int, at time.Time) {
	if m == nil {
		return
	}
	m.Experiments.Set(float64(experiments))
	m.Feasible.Set(float64(feasible))
	m.LastSuccessfulRun.Set(float64(at.Unix()))
}
