package metrics

import (
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistration(t *testing.T) {
	m := NewMetrics()
	registry := prometheus.NewRegistry()
	m.RegisterTo(registry)
	m.UnregisterFrom(registry)
	m.RegisterTo(registry)
}

func TestReadCounter(t *testing.T) {
	counterVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_counter",
		Help: "Test counter",
	}, []string{"stage"})

	counterVec.WithLabelValues("upload").Add(10)
	counterVec.WithLabelValues("copy").Add(20)

	require.Equal(t, float64(10), ReadCounter(counterVec, "upload"))
	require.Equal(t, float64(20), ReadCounter(counterVec, "copy"))
	require.True(t, math.IsNaN(ReadCounter(nil, "non-existent")))
}

func TestAddCounter(t *testing.T) {
	counterVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_counter",
		Help: "Test counter",
	}, []string{"stage"})

	AddCounter(counterVec, 10, "upload")
	require.Equal(t, float64(10), ReadCounter(counterVec, "upload"))

	// no-op
	AddCounter(nil, 10, "non-existent")
}

func TestPipelineMetrics(t *testing.T) {
	m := NewMetrics()
	m.JobFinished("completed")
	m.JobFinished("completed")
	m.JobFinished("failed")
	m.Error("upload")
	m.SetProgress(42)
	m.BytesUploaded(7)
	m.StatementExecuted("copy")

	require.Equal(t, float64(2), m.ReadJobs("completed"))
	require.Equal(t, float64(1), m.ReadJobs("failed"))
	require.Equal(t, float64(1), m.ReadErrors("upload"))
	require.Equal(t, float64(42), ReadGauge(m.uploadProgressGauge))
	require.Equal(t, float64(1), ReadCounter(m.statementCounter, "copy"))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.JobFinished("completed")
	m.Error("upload")
	m.SetProgress(1)
	m.BytesUploaded(1)
	m.StatementExecuted("copy")
	require.True(t, math.IsNaN(m.ReadJobs("completed")))
	require.True(t, math.IsNaN(m.ReadErrors("upload")))
}
