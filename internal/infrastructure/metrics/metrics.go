package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bridge metrics
var (
	// Sessions by terminal outcome (completed, failed)
	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coachchat",
			Subsystem: "ai_bridge",
			Name:      "sessions_total",
			Help:      "Streaming sessions by terminal outcome",
		},
		[]string{"outcome"},
	)

	// Stream chunks consumed across all sessions
	StreamChunksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "coachchat",
			Subsystem: "ai_bridge",
			Name:      "stream_chunks_total",
			Help:      "Content chunks consumed from the generation backend",
		},
	)

	// Partial message updates pushed to the chat backend
	MessageFlushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coachchat",
			Subsystem: "ai_bridge",
			Name:      "message_flushes_total",
			Help:      "Partial message updates by result",
		},
		[]string{"status"},
	)

	// Indicator events emitted to the chat backend
	IndicatorEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coachchat",
			Subsystem: "ai_bridge",
			Name:      "indicator_events_total",
			Help:      "AI indicator events by state",
		},
		[]string{"state"},
	)

	// Memory extraction attempts
	MemoryUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coachchat",
			Subsystem: "ai_bridge",
			Name:      "memory_updates_total",
			Help:      "Background memory extraction attempts by result",
		},
		[]string{"status"},
	)

	// Session duration histogram
	SessionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "coachchat",
			Subsystem: "ai_bridge",
			Name:      "session_duration_seconds",
			Help:      "Wall time from placeholder creation to terminal state",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)
)
