package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tssctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tssctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	sessionState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tssctl",
			Subsystem: "session",
			Name:      "state",
			Help:      "Current TSS connection state (0=disconnected 1=connecting 2=connected 3=reconnecting 4=failed).",
		},
	)
	sessionTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tssctl",
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "TSS connection state transitions by target state.",
		},
		[]string{"state"},
	)
	reconnectAttempts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tssctl",
			Subsystem: "session",
			Name:      "reconnect_attempts_total",
			Help:      "Scheduled TSS reconnection attempts.",
		},
	)
	framesReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tssctl",
			Subsystem: "frames",
			Name:      "received_total",
			Help:      "Inbound TSS messages.",
		},
	)
	framesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tssctl",
			Subsystem: "frames",
			Name:      "dropped_total",
			Help:      "Inbound TSS messages dropped before dispatch.",
		},
		[]string{"reason"},
	)
	framesDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tssctl",
			Subsystem: "frames",
			Name:      "dispatched_total",
			Help:      "Decoded TSS frames by command and whether a table row applied.",
		},
		[]string{"command", "applied"},
	)
	requestsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tssctl",
			Subsystem: "frames",
			Name:      "requests_total",
			Help:      "Outbound TSS data requests by result.",
		},
		[]string{"result"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			sessionState, sessionTransitions, reconnectAttempts,
			framesReceived, framesDropped, framesDispatched, requestsSent,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordSessionState stores the numeric state and counts the transition.
func RecordSessionState(state int, name string) {
	RegisterMetrics()
	sessionState.Set(float64(state))
	sessionTransitions.WithLabelValues(name).Inc()
}

func RecordReconnectAttempt() {
	RegisterMetrics()
	reconnectAttempts.Inc()
}

func RecordFrameReceived() {
	RegisterMetrics()
	framesReceived.Inc()
}

func RecordFrameDropped(reason string) {
	RegisterMetrics()
	framesDropped.WithLabelValues(reason).Inc()
}

func RecordFrameDispatched(command string, applied bool) {
	RegisterMetrics()
	framesDispatched.WithLabelValues(command, strconv.FormatBool(applied)).Inc()
}

func RecordRequest(ok bool) {
	RegisterMetrics()
	result := "ok"
	if !ok {
		result = "error"
	}
	requestsSent.WithLabelValues(result).Inc()
}
