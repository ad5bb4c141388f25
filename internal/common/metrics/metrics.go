// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

var (
	LarkRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lark_requests_total",
			Help: "Total number of Lark Open API calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	LarkRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lark_request_duration_seconds",
			Help:    "Duration of Lark Open API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	LarkTokenRefreshes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lark_tenant_token_refreshes_total",
			Help: "Number of tenant access tokens fetched from Lark",
		},
	)

	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Total number of routed webhook events by type and outcome",
		},
		[]string{"event_type", "outcome"},
	)
)
