// Package metrics provides Prometheus metrics for the manabase builder
// backend. Scrape these at /metrics for Grafana dashboards and alerting.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manabase_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "manabase_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Upstream (Scryfall) Metrics
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manabase_upstream_requests_total",
			Help: "Scryfall API request attempts by outcome",
		},
		[]string{"outcome"}, // "success", "rate_limited", "not_found", "error"
	)

	// Resolver Metrics
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manabase_resolutions_total",
			Help: "Card name resolutions by result",
		},
		[]string{"result"}, // "memory", "disk", "upstream", "missing"
	)

	ResolutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "manabase_resolution_duration_seconds",
			Help:    "Time taken to resolve a card name",
			Buckets: []float64{0.001, 0.01, 0.05, 0.125, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	// Search Index Metrics
	SearchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "manabase_searches_total",
			Help: "Total number of card search queries",
		},
	)

	IndexSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "manabase_index_size",
			Help: "Number of unique cards in the search index",
		},
	)

	// Bulk Snapshot Metrics
	BulkSnapshotAgeSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "manabase_bulk_snapshot_age_seconds",
			Help: "Age of the on-disk bulk card snapshot",
		},
	)

	BulkRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manabase_bulk_refresh_total",
			Help: "Bulk snapshot refresh attempts by outcome",
		},
		[]string{"outcome"}, // "success", "error", "fresh"
	)

	// Price Refresh Metrics
	PriceRefreshTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "manabase_price_refresh_total",
			Help: "Total number of card prices refreshed from upstream",
		},
	)

	PriceCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "manabase_price_cache_size",
			Help: "Number of entries in the price staleness cache",
		},
	)
)

// Middleware records request counts and latency per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
