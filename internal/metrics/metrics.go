package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wellness_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wellness_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wellness_messages_sent_total",
			Help: "Chat sends by outcome",
		},
		[]string{"outcome"}, // "stored", "duplicate", "rejected"
	)

	FollowRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wellness_follow_requests_total",
			Help: "Follow commands by outcome",
		},
		[]string{"outcome"}, // "requested", "connected", "accepted", "rejected", "cancelled", "expired"
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wellness_websocket_connections",
			Help: "Currently open websocket connections on this node",
		},
	)

	RealtimeDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wellness_realtime_dropped_clients_total",
			Help: "Sockets closed because their send queue was full",
		},
	)
)

// ObserveHTTP записывает метрики одного запроса
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
