// Package metrics records webhook processing for prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	SourcePayments = "payments"
	SourceContent  = "content"

	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

type Webhook struct {
	events   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewWebhook(registerer prometheus.Registerer) *Webhook {
	m := &Webhook{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "commercesync",
			Name:      "webhook_events_total",
			Help:      "Webhook deliveries by source, event type and outcome.",
		}, []string{"source", "type", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "commercesync",
			Name:      "webhook_duration_seconds",
			Help:      "Time spent handling a webhook delivery.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
	}
	registerer.MustRegister(m.events, m.duration)
	return m
}

func (m *Webhook) Observe(source string, eventType string, outcome string, elapsed time.Duration) {
	if eventType == "" {
		eventType = "unknown"
	}
	m.events.WithLabelValues(source, eventType, outcome).Inc()
	m.duration.WithLabelValues(source).Observe(elapsed.Seconds())
}
