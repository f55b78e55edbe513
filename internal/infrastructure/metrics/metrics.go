package metrics

import (
	"blazing_api/internal/domain/entity"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "blazing"

// TransferMetrics exposes Prometheus collectors for the transfer pipeline.
type TransferMetrics struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec
	chainWrites   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *TransferMetrics {
	m := &TransferMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transfer",
			Name:      "requests_total",
			Help:      "Transfer requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "transfer",
			Name:      "request_duration_seconds",
			Help:      "Wall time of a transfer request including every chain confirmation.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"operation"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transfer",
			Name:      "stage_failures_total",
			Help:      "Aborted transfers by operation, pipeline stage and error code.",
		}, []string{"operation", "stage", "code"}),
		chainWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "writes_total",
			Help:      "Confirmed chain transactions by operation.",
		}, []string{"operation"}),
	}
	reg.MustRegister(m.requests, m.duration, m.stageFailures, m.chainWrites)
	return m
}

// ObserveRequest records a finished request.
func (m *TransferMetrics) ObserveRequest(kind entity.TransferKind, outcome string, seconds float64) {
	m.requests.WithLabelValues(string(kind), outcome).Inc()
	m.duration.WithLabelValues(string(kind)).Observe(seconds)
}

// StageFailed records an aborted pipeline stage.
func (m *TransferMetrics) StageFailed(kind entity.TransferKind, stage entity.Stage, code string) {
	m.stageFailures.WithLabelValues(string(kind), string(stage), code).Inc()
}

// ChainWrite records a confirmed transaction.
func (m *TransferMetrics) ChainWrite(operation string) {
	m.chainWrites.WithLabelValues(operation).Inc()
}
