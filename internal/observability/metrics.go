package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	registry          *prometheus.Registry
	Turns             *prometheus.CounterVec
	GatewayOutcomes   *prometheus.CounterVec
	GatewayLatency    prometheus.Histogram
	PreferenceUpdates *prometheus.CounterVec
	SessionEvents     *prometheus.CounterVec
	TTSErrors         *prometheus.CounterVec
}

// NewMetrics registers instruments on a private registry so several
// instances (tests in particular) can coexist.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := &Metrics{
		registry: reg,
		Turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Conversation turns by role.",
		}, []string{"role"}),
		GatewayOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_outcomes_total",
			Help:      "Model gateway calls by outcome.",
		}, []string{"outcome"}),
		GatewayLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_latency_ms",
			Help:      "Latency of the model gateway call in milliseconds.",
			Buckets:   []float64{250, 500, 1000, 2000, 4000, 8000, 16000, 32000},
		}),
		PreferenceUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preference_updates_total",
			Help:      "Preference update attempts by result.",
		}, []string{"result"}),
		SessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session events by type.",
		}, []string{"event"}),
		TTSErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tts_errors_total",
			Help:      "Speech synthesis failures by provider.",
		}, []string{"provider"}),
	}
	reg.MustRegister(m.Turns, m.GatewayOutcomes, m.GatewayLatency, m.PreferenceUpdates, m.SessionEvents, m.TTSErrors)
	return m
}

func (m *Metrics) ObserveGatewayLatency(d time.Duration) {
	m.GatewayLatency.Observe(float64(d.Milliseconds()))
}

func (m *Metrics) ObservePreferenceUpdate(accepted bool) {
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	m.PreferenceUpdates.WithLabelValues(result).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
