// Package metrics defines and registers all custom Prometheus metrics for the
// taskboard API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on import and
// exposed by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "taskboard"

// ── Task metrics ──────────────────────────────────────────────────────────────

// TaskMutationsTotal counts successful board mutations.
// Label:
//   - operation: "create", "update" or "delete"
var TaskMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_mutations_total",
		Help:      "Total number of successful task mutations, by operation.",
	},
	[]string{"operation"},
)

// UsersRegisteredTotal counts registration calls.
// Label:
//   - result: "created" or "exists"
var UsersRegisteredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_registered_total",
		Help:      "Total number of user registration calls, labelled by result (created/exists).",
	},
	[]string{"result"},
)

// ── Broadcast metrics ─────────────────────────────────────────────────────────

// BroadcastEventsTotal counts events handed to the broadcast backend.
// Labels:
//   - event: "taskCreated", "taskUpdated" or "taskDeleted"
//   - result: "ok", "error" or "dropped"
var BroadcastEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadcast_events_total",
		Help:      "Total number of broadcast events, by event name and result.",
	},
	[]string{"event", "result"},
)

// RealtimeSubscribers tracks connected realtime clients on this instance.
var RealtimeSubscribers = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "realtime_subscribers",
		Help:      "Current number of connected realtime subscribers.",
	},
)

// BroadcastQueueDepth tracks the number of events waiting for the dispatcher.
var BroadcastQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "broadcast_queue_depth",
		Help:      "Current number of events pending in the dispatcher queue.",
	},
)

// BroadcastPublishDuration measures how long the backend takes to accept one event.
var BroadcastPublishDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "broadcast_publish_duration_seconds",
		Help:      "Duration of a single publish to the broadcast backend.",
		Buckets:   prometheus.DefBuckets,
	},
)
