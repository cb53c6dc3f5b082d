package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "docuquery"

type Metrics struct {
	Questions          *prometheus.CounterVec
	GenerationAttempts *prometheus.CounterVec
	Fallbacks          *prometheus.CounterVec
	QuestionDuration   prometheus.Histogram
	LiveSessions       prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Questions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_total",
			Help:      "Questions answered, by outcome.",
		}, []string{"outcome"}),
		GenerationAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_attempts_total",
			Help:      "Calls to the generation capability, by result.",
		}, []string{"result"}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mock_fallbacks_total",
			Help:      "Answers degraded to the mock path, by reason.",
		}, []string{"reason"}),
		QuestionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "question_duration_seconds",
			Help:      "Time spent retrieving and answering one question.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		LiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_sessions",
			Help:      "Document sessions currently held by the index.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Questions, m.GenerationAttempts, m.Fallbacks, m.QuestionDuration, m.LiveSessions)
	}
	return m
}

func (m *Metrics) GenerationAttempt(outcome string) {
	m.GenerationAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Fallback(reason string) {
	m.Fallbacks.WithLabelValues(reason).Inc()
}

func (m *Metrics) QuestionDone(outcome string, seconds float64) {
	m.Questions.WithLabelValues(outcome).Inc()
	m.QuestionDuration.Observe(seconds)
}

func (m *Metrics) SetSessions(n int) {
	m.LiveSessions.Set(float64(n))
}
