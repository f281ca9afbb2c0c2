package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheus(reg)

	rec.RunStarted()
	rec.RunStarted()
	rec.RunCompleted("SUCCEEDED", 2*time.Second)
	rec.RunCompleted("FAILED", time.Second)
	rec.RowsUpserted("fact_incident_daily", 5)
	rec.RowsUpserted("fact_incident_daily", 3)
	rec.RowsUpserted("fact_response", 1)
	rec.DispatchSkipped()

	assert.Equal(t, 2.0, promtest.ToFloat64(rec.runsStarted))
	assert.Equal(t, 1.0, promtest.ToFloat64(rec.runsCompleted.WithLabelValues("SUCCEEDED")))
	assert.Equal(t, 1.0, promtest.ToFloat64(rec.runsCompleted.WithLabelValues("FAILED")))
	assert.Equal(t, 8.0, promtest.ToFloat64(rec.rowsUpserted.WithLabelValues("fact_incident_daily")))
	assert.Equal(t, 1.0, promtest.ToFloat64(rec.rowsUpserted.WithLabelValues("fact_response")))
	assert.Equal(t, 1.0, promtest.ToFloat64(rec.dispatchesSkipped))
	assert.Equal(t, 1, promtest.CollectAndCount(rec.runDuration))
	assert.Greater(t, promtest.ToFloat64(rec.lastSuccess), 0.0)
}

func TestNopRecorder(t *testing.T) {
	var rec Recorder = Nop{}

	// Must not panic.
	rec.RunStarted()
	rec.RunCompleted("SUCCEEDED", time.Second)
	rec.RowsUpserted("fact_response", 1)
	rec.DispatchSkipped()
}
