/*
Package metrics provides Prometheus metrics and component health for Cadence.

All metrics are package-level collectors registered with the default
Prometheus registry at init and exposed through Handler. Channel metrics are
labelled by channel name (session, playlist, recommendations).

	┌──────────────────── METRICS ─────────────────────────────┐
	│                                                            │
	│  channel.Connection ──► ChannelConnected{channel}          │
	│                     ──► ChannelReconnectAttempts{channel}  │
	│                     ──► ChannelExhausted{channel}          │
	│                     ──► ChannelMessages{channel,kind}      │
	│                                                            │
	│  session.Merger     ──► MergesTotal{channel}               │
	│                     ──► RecommendationRefetches{result}    │
	│                                                            │
	│  session.Controller ──► SessionRequestDuration{operation}  │
	│                                                            │
	│  Collector (ticker) ──► SessionActive, SessionGuests,      │
	│                         SessionQueueLength                 │
	└────────────────────────────────────────────────────────┘

# Health

The health registry tracks named components. Each realtime channel reports
itself as "channel.<name>", unhealthy while it reconnects or after it gave
up, and unregisters when closed on purpose. The controller reports
"session". HealthHandler serves the registry as JSON and answers 503 while
any component is unhealthy; LivenessHandler always answers 200.

# Timing

	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.SessionRequestDuration, "create")
*/
package metrics
