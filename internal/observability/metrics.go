package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	WebSocketConnectionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Current number of active WebSocket connections",
		},
		[]string{"service"},
	)

	RoomMembersActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chat_room_members_active",
			Help: "Current number of joined room members",
		},
		[]string{"service", "role"},
	)

	MessagesRelayedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_relayed_total",
			Help: "Messages persisted and rebroadcast by the relay",
		},
		[]string{"service", "sender_role"},
	)

	ClaimAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_claim_attempts_total",
			Help: "Queue claim attempts by outcome",
		},
		[]string{"service", "outcome"},
	)

	OutboxPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_events_published_total",
			Help: "Outbox events published to Kafka",
		},
		[]string{"service", "topic"},
	)
)
