package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gin-gonic/gin"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     prometheus.CounterVec
	HTTPRequestDuration   prometheus.HistogramVec
	HTTPActiveConnections prometheus.GaugeVec

	// View tracking metrics
	ViewEventsTotal prometheus.CounterVec

	// Follow graph metrics
	FollowEventsTotal prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   prometheus.CounterVec
	CacheMissesTotal prometheus.CounterVec

	// Chat metrics
	ChatConnectionsActive prometheus.GaugeVec
	ChatMessagesTotal     prometheus.CounterVec

	// Rate limiting metrics
	RateLimitExceededTotal prometheus.CounterVec

	// Error metrics
	ErrorsTotal prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: *promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of currently active HTTP connections",
				},
				[]string{"method", "path"},
			),

			ViewEventsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "view_events_total",
					Help: "View tracking outcomes by content type and action",
				},
				[]string{"content_type", "action"},
			),

			FollowEventsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "follow_events_total",
					Help: "Follow graph transitions (follow, unfollow, request, accept, reject, cancel)",
				},
				[]string{"event"},
			),

			CacheHitsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Total number of cache hits",
				},
				[]string{"cache_name"},
			),
			CacheMissesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Total number of cache misses",
				},
				[]string{"cache_name"},
			),

			ChatConnectionsActive: *promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "chat_connections_active",
					Help: "Open websocket connections per chat room",
				},
				[]string{"room"},
			),
			ChatMessagesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "chat_messages_total",
					Help: "Chat messages broadcast per room",
				},
				[]string{"room"},
			),

			RateLimitExceededTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Requests rejected by the rate limiter",
				},
				[]string{"endpoint", "method"},
			),

			ErrorsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "errors_total",
					Help: "Total number of application errors",
				},
				[]string{"error_type", "endpoint"},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing it on first use
func Get() *Metrics {
	return Initialize()
}

// Handler returns the /metrics scrape endpoint as a gin handler
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// RecordViewEvent counts a view tracking outcome
func RecordViewEvent(contentType, action string) {
	Get().ViewEventsTotal.WithLabelValues(contentType, action).Inc()
}

// RecordFollowEvent counts a follow graph transition
func RecordFollowEvent(event string) {
	Get().FollowEventsTotal.WithLabelValues(event).Inc()
}

// RecordCacheHit counts a cache hit
func RecordCacheHit(cacheName string) {
	Get().CacheHitsTotal.WithLabelValues(cacheName).Inc()
}

// RecordCacheMiss counts a cache miss
func RecordCacheMiss(cacheName string) {
	Get().CacheMissesTotal.WithLabelValues(cacheName).Inc()
}

// RecordError counts an application error
func RecordError(errorType, endpoint string) {
	Get().ErrorsTotal.WithLabelValues(errorType, endpoint).Inc()
}
