// Package metrics holds the Prometheus collectors shared by the services.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mindbloom"

// Metrics groups every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry            *prometheus.Registry
	aiRequests          *prometheus.CounterVec
	aiDuration          *prometheus.HistogramVec
	chatMessages        *prometheus.CounterVec
	moodSaves           prometheus.Counter
	attachmentsRejected *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		aiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_requests_total",
			Help:      "AI collaborator calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		aiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_request_duration_seconds",
			Help:      "AI collaborator latency by operation.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"operation"}),
		chatMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_messages_total",
			Help:      "Chat messages appended by role.",
		}, []string{"role"}),
		moodSaves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mood_saves_total",
			Help:      "Mood log upserts.",
		}),
		attachmentsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attachments_rejected_total",
			Help:      "Attachments rejected before staging, by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		m.aiRequests,
		m.aiDuration,
		m.chatMessages,
		m.moodSaves,
		m.attachmentsRejected,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveAI records one AI call.
func (m *Metrics) ObserveAI(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.aiRequests.WithLabelValues(operation, outcome).Inc()
	m.aiDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// MessageAppended counts one chat message.
func (m *Metrics) MessageAppended(role string) {
	if m == nil {
		return
	}
	m.chatMessages.WithLabelValues(role).Inc()
}

// MoodSaved counts one mood upsert.
func (m *Metrics) MoodSaved() {
	if m == nil {
		return
	}
	m.moodSaves.Inc()
}

// AttachmentRejected counts one rejected attachment.
func (m *Metrics) AttachmentRejected(reason string) {
	if m == nil {
		return
	}
	m.attachmentsRejected.WithLabelValues(reason).Inc()
}
