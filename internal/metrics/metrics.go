package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "linkbrief"

// Outcomes recorded per summarize request.
const (
	OutcomeSuccess         = "success"
	OutcomeValidationError = "validation_error"
	OutcomeFetchError      = "fetch_error"
	OutcomeLLMError        = "llm_error"
)

// SourceNone labels requests rejected before a source was selected.
const SourceNone = "none"

type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summarize_requests_total",
			Help:      "Summarize requests by source and outcome.",
		}, []string{"source", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "summarize_duration_seconds",
			Help:      "Time spent loading and summarizing content.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"source"}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) Observe(source string, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.requests.WithLabelValues(source, outcome).Inc()
	if source != SourceNone {
		m.duration.WithLabelValues(source).Observe(elapsed.Seconds())
	}
}
