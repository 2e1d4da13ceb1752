package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultSuccess  = "success"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// EvidenceMetrics instruments the evidence service.
type EvidenceMetrics struct {
	Submissions *prometheus.CounterVec
	Fetches     *prometheus.CounterVec
	StoredBytes prometheus.Counter
	Duration    *prometheus.HistogramVec
}

// NewEvidenceMetrics creates the evidence metrics and registers them with reg.
// A nil reg leaves the metrics unregistered, which is what tests want.
func NewEvidenceMetrics(reg prometheus.Registerer) *EvidenceMetrics {
	m := &EvidenceMetrics{
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "verichain",
			Subsystem: "evidence",
			Name:      "submissions_total",
			Help:      "Evidence submissions by result.",
		}, []string{"result"}),
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "verichain",
			Subsystem: "evidence",
			Name:      "fetches_total",
			Help:      "Evidence fetches by result.",
		}, []string{"result"}),
		StoredBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "verichain",
			Subsystem: "evidence",
			Name:      "stored_bytes_total",
			Help:      "Ciphertext bytes written to the content store.",
		}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "verichain",
			Subsystem: "evidence",
			Name:      "operation_duration_seconds",
			Help:      "Duration of evidence operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	if reg != nil {
		reg.MustRegister(m.Collectors()...)
	}
	return m
}

// Collectors returns every collector, for registering metrics created
// before their registry.
func (m *EvidenceMetrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.Submissions, m.Fetches, m.StoredBytes, m.Duration}
}

// ObserveDuration records the time elapsed since start for operation.
func (m *EvidenceMetrics) ObserveDuration(operation string, start time.Time) {
	m.Duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
