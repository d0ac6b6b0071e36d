package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestWebhookObserve(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewWebhook(registry)

	m.Observe(SourcePayments, "product.created", "processed", 10*time.Millisecond)
	m.Observe(SourcePayments, "product.created", "processed", 20*time.Millisecond)
	m.Observe(SourceContent, "", OutcomeRejected, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues(SourcePayments, "product.created", "processed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues(SourceContent, "unknown", OutcomeRejected)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}
