package api

import "github.com/prometheus/client_golang/prometheus"

const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics exposes counters/histograms for the scheduling endpoint.
type Metrics struct {
	operationsTotal *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicesched",
			Subsystem: "agent",
			Name:      "operations_total",
			Help:      "Total voice-agent scheduling operations",
		}, []string{"function", "outcome"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voicesched",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP request handling",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.operationsTotal, m.requestLatency)
	return m
}

func (m *Metrics) ObserveOperation(function, outcome string) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(function, outcome).Inc()
}

func (m *Metrics) ObserveRequest(path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestLatency.WithLabelValues(path, status).Observe(seconds)
}
