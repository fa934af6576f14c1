package metrics

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const (
	Namespace = "dwloader"
)

// Metrics is safe to use through a nil pointer, which records nothing.
type Metrics struct {
	uploadJobCounter     *prometheus.CounterVec
	uploadedBytesCounter prometheus.Counter
	uploadProgressGauge  prometheus.Gauge
	statementCounter     *prometheus.CounterVec
	errorCounter         *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := Metrics{}
	m.uploadJobCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "upload_jobs",
			Help:      "upload jobs by final status",
		}, []string{"status"})
	m.uploadedBytesCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "uploaded_bytes",
			Help:      "bytes acknowledged by object storage",
		})
	m.uploadProgressGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "upload_progress_percent",
			Help:      "percent complete of the current upload job",
		})
	m.statementCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "warehouse_statements",
			Help:      "statements executed against the warehouse",
		}, []string{"kind"})
	m.errorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "error_count",
			Help:      "Total error count by pipeline stage",
		}, []string{"stage"})
	return &m
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.uploadJobCounter,
		m.uploadedBytesCounter,
		m.uploadProgressGauge,
		m.statementCounter,
		m.errorCounter,
	}
}

func (m *Metrics) RegisterTo(registry prometheus.Registerer) {
	for _, c := range m.collectors() {
		registry.MustRegister(c)
	}
}

func (m *Metrics) UnregisterFrom(registry prometheus.Registerer) {
	for _, c := range m.collectors() {
		registry.Unregister(c)
	}
}

func (m *Metrics) JobFinished(status string) {
	if m == nil {
		return
	}
	AddCounter(m.uploadJobCounter, 1, status)
}

func (m *Metrics) BytesUploaded(n int64) {
	if m == nil {
		return
	}
	m.uploadedBytesCounter.Add(float64(n))
}

func (m *Metrics) SetProgress(percent int) {
	if m == nil {
		return
	}
	m.uploadProgressGauge.Set(float64(percent))
}

func (m *Metrics) StatementExecuted(kind string) {
	if m == nil {
		return
	}
	AddCounter(m.statementCounter, 1, kind)
}

func (m *Metrics) Error(stage string) {
	if m == nil {
		return
	}
	AddCounter(m.errorCounter, 1, stage)
}

// ReadJobs reports how many jobs finished with status.
func (m *Metrics) ReadJobs(status string) float64 {
	if m == nil {
		return math.NaN()
	}
	return ReadCounter(m.uploadJobCounter, status)
}

func (m *Metrics) ReadStatements(kind string) float64 {
	if m == nil {
		return math.NaN()
	}
	return ReadCounter(m.statementCounter, kind)
}

func (m *Metrics) ReadProgress() float64 {
	if m == nil {
		return math.NaN()
	}
	return ReadGauge(m.uploadProgressGauge)
}

// ReadErrors reports the error count of stage.
func (m *Metrics) ReadErrors(stage string) float64 {
	if m == nil {
		return math.NaN()
	}
	return ReadCounter(m.errorCounter, stage)
}

// ReadCounter reports the current value of the counter for a label value.
func ReadCounter(counterVec *prometheus.CounterVec, label string) float64 {
	if counterVec == nil {
		return math.NaN()
	}
	counter := counterVec.WithLabelValues(label)
	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		return math.NaN()
	}
	return metric.Counter.GetValue()
}

// AddCounter adds v to the counter for a label value.
func AddCounter(counterVec *prometheus.CounterVec, v float64, label string) {
	if counterVec == nil {
		return
	}
	counterVec.WithLabelValues(label).Add(v)
}

// ReadGauge reports the current value of a gauge.
func ReadGauge(gauge prometheus.Gauge) float64 {
	if gauge == nil {
		return math.NaN()
	}
	var metric dto.Metric
	if err := gauge.Write(&metric); err != nil {
		return math.NaN()
	}
	return metric.Gauge.GetValue()
}
