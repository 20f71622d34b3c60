package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HttpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_connections",
			Help: "Number of in-flight HTTP requests",
		},
	)

	FollowEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "follow_events_total",
			Help: "Follow graph changes, by operation",
		},
		[]string{"op"},
	)

	MessagesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "messages_sent_total",
			Help: "Direct messages stored",
		},
	)

	MessageDenials = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "message_denials_total",
			Help: "Messaging attempts rejected by the mutual-follow gate",
		},
	)

	FollowStatsCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "follow_stats_cache_lookups_total",
			Help: "Follow stats cache lookups, by result",
		},
		[]string{"result"},
	)
)

// Register adds every collector to reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		HttpRequestsTotal,
		HttpRequestDuration,
		ActiveConnections,
		FollowEvents,
		MessagesSent,
		MessageDenials,
		FollowStatsCacheLookups,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
