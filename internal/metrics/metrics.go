// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NewsletterSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsletter_sends_total",
			Help: "Newsletter delivery attempts by outcome",
		},
		[]string{"kind", "status"},
	)

	NewsletterDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsletter_dispatches_total",
			Help: "Newsletter dispatch calls by kind and result",
		},
		[]string{"kind", "result"},
	)

	NewsletterDispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsletter_dispatch_duration_seconds",
			Help:    "Wall time of a newsletter dispatch",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"kind"},
	)

	FeedCacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_cache_requests_total",
			Help: "Latest-posts requests by how they were served (hit, refresh, stale, error)",
		},
		[]string{"result"},
	)

	CampaignsReconciled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsletter_campaigns_reconciled_total",
			Help: "Campaigns whose aggregate counts were rewritten from send rows",
		},
	)
)
