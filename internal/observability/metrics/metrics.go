package metrics

import (
	"context"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// AssistantMetrics exposes counters/histograms for assistant invocations.
type AssistantMetrics struct {
	invocationsTotal  *prometheus.CounterVec
	completionLatency *prometheus.HistogramVec
	bookingTotal      *prometheus.CounterVec
}

func NewAssistantMetrics(reg prometheus.Registerer) *AssistantMetrics {
	m := &AssistantMetrics{
		invocationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assistant",
			Subsystem: "handler",
			Name:      "invocations_total",
			Help:      "Total assistant invocations by event variant and outcome",
		}, []string{"variant", "outcome"}),
		completionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "assistant",
			Subsystem: "llm",
			Name:      "completion_latency_seconds",
			Help:      "Latency of completion provider calls, retries included",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		bookingTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assistant",
			Subsystem: "booking",
			Name:      "invocations_total",
			Help:      "Total booking function invocations by status",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.invocationsTotal, m.completionLatency, m.bookingTotal)
	return m
}

func (m *AssistantMetrics) ObserveInvocation(variant, outcome string) {
	if m == nil {
		return
	}
	if variant == "" {
		variant = "unknown"
	}
	m.invocationsTotal.WithLabelValues(variant, outcome).Inc()
}

func (m *AssistantMetrics) ObserveCompletion(status string, seconds float64) {
	if m == nil {
		return
	}
	m.completionLatency.WithLabelValues(status).Observe(seconds)
}

func (m *AssistantMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingTotal.WithLabelValues(status).Inc()
}

// Pusher flushes a registry to a Prometheus Pushgateway. A Lambda is frozen
// between invocations, so metrics are pushed rather than scraped.
type Pusher struct {
	pusher *push.Pusher
}

// NewPusher returns nil when url is empty; a nil Pusher is a no-op.
func NewPusher(url, job string, gatherer prometheus.Gatherer) *Pusher {
	if strings.TrimSpace(url) == "" || gatherer == nil {
		return nil
	}
	return &Pusher{pusher: push.New(url, job).Gatherer(gatherer)}
}

func (p *Pusher) Push(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.pusher.AddContext(ctx)
}
