package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Channel metrics
	ChannelConnected = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cadence_channel_connected",
			Help: "Whether the realtime channel currently has an open socket (1 = open, 0 = closed)",
		},
		[]string{"channel"},
	)

	ChannelReconnectAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_channel_reconnect_attempts_total",
			Help: "Total number of scheduled reconnect attempts by channel",
		},
		[]string{"channel"},
	)

	ChannelExhausted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_channel_exhausted_total",
			Help: "Number of times a channel gave up reconnecting",
		},
		[]string{"channel"},
	)

	ChannelMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_channel_messages_total",
			Help: "Inbound channel messages by channel and decoded kind",
		},
		[]string{"channel", "kind"},
	)

	// Session metrics
	SessionActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cadence_session_active",
			Help: "Whether a session aggregate is active (1 = active, 0 = absent or ended)",
		},
	)

	SessionGuests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cadence_session_guests",
			Help: "Number of guests in the active session",
		},
	)

	SessionQueueLength = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cadence_session_queue_length",
			Help: "Number of queued songs in the active session",
		},
	)

	SessionRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cadence_session_request_duration_seconds",
			Help:    "Duration of lifecycle requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Merge metrics
	MergesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_merges_total",
			Help: "Messages folded into the session aggregate by channel",
		},
		[]string{"channel"},
	)

	RecommendationRefetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_recommendation_refetches_total",
			Help: "Recommendation refetches by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(ChannelConnected)
	prometheus.MustRegister(ChannelReconnectAttempts)
	prometheus.MustRegister(ChannelExhausted)
	prometheus.MustRegister(ChannelMessages)
	prometheus.MustRegister(SessionActive)
	prometheus.MustRegister(SessionGuests)
	prometheus.MustRegister(SessionQueueLength)
	prometheus.MustRegister(SessionRequestDuration)
	prometheus.MustRegister(MergesTotal)
	prometheus.MustRegister(RecommendationRefetches)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
