package live

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "session_service",
		Subsystem: "live",
		Name:      "connections_active",
		Help:      "Number of attached websocket connections.",
	})
	roomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "session_service",
		Subsystem: "live",
		Name:      "rooms_active",
		Help:      "Number of rooms with at least one member.",
	})
	eventsIn = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "session_service",
		Subsystem: "live",
		Name:      "events_in_total",
		Help:      "Inbound client events by name.",
	}, []string{"event"})
	eventsOut = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "session_service",
		Subsystem: "live",
		Name:      "events_out_total",
		Help:      "Delivered outbound events by name.",
	}, []string{"event"})
	sendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "session_service",
		Subsystem: "live",
		Name:      "send_failures_total",
		Help:      "Transport send errors during fan-out.",
	})
	roomsReaped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "session_service",
		Subsystem: "live",
		Name:      "rooms_reaped_total",
		Help:      "Rooms evicted by the expiry reaper.",
	})
)
