// Package metrics exposes pipeline instrumentation. The pipeline records
// through the Recorder interface so tests run without a registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder receives pipeline events.
type Recorder interface {
	RunStarted()
	RunCompleted(status string, d time.Duration)
	RowsUpserted(table string, n int)
	DispatchSkipped()
}

// Prometheus records pipeline events to a prometheus registry.
type Prometheus struct {
	runsStarted       prometheus.Counter
	runsCompleted     *prometheus.CounterVec
	runDuration       prometheus.Histogram
	rowsUpserted      *prometheus.CounterVec
	dispatchesSkipped prometheus.Counter
	lastSuccess       prometheus.Gauge
}

// NewPrometheus registers pipeline metrics on reg. Pass nil to use the
// default registry.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Prometheus{
		runsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "dmersetl",
			Name:      "runs_started_total",
			Help:      "Pipeline runs started.",
		}),
		runsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dmersetl",
			Name:      "runs_completed_total",
			Help:      "Pipeline runs finished, by terminal status.",
		}, []string{"status"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dmersetl",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of pipeline runs.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		rowsUpserted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dmersetl",
			Name:      "rows_upserted_total",
			Help:      "Warehouse rows written, by table.",
		}, []string{"table"}),
		dispatchesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "dmersetl",
			Name:      "dispatches_skipped_total",
			Help:      "Dispatches dropped from response facts for missing dimensions.",
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "dmersetl",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful pipeline run.",
		}),
	}
}

func (p *Prometheus) RunStarted() {
	p.runsStarted.Inc()
}

func (p *Prometheus) RunCompleted(status string, d time.Duration) {
	p.runsCompleted.WithLabelValues(status).Inc()
	p.runDuration.Observe(d.Seconds())
	if status == "SUCCEEDED" {
		p.lastSuccess.SetToCurrentTime()
	}
}

func (p *Prometheus) RowsUpserted(table string, n int) {
	p.rowsUpserted.WithLabelValues(table).Add(float64(n))
}

func (p *Prometheus) DispatchSkipped() {
	p.dispatchesSkipped.Inc()
}

// Nop discards all events.
type Nop struct{}

func (Nop) RunStarted()                        {}
func (Nop) RunCompleted(string, time.Duration) {}
func (Nop) RowsUpserted(string, int)           {}
func (Nop) DispatchSkipped()                   {}

var (
	_ Recorder = (*Prometheus)(nil)
	_ Recorder = Nop{}
)
