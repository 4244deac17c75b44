// Package metrics defines and registers all custom Prometheus metrics for the
// booking API. It is the single source of truth for metric names, labels, and
// help strings. All metrics live in the default registry via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "booking"

// ── Booking metrics ───────────────────────────────────────────────────────────

// BookingsCreatedTotal counts newly created bookings.
// Labels:
//   - entry_point: "customer" or "admin"
//   - status: the initial status the booking was stored with
var BookingsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookings_created_total",
		Help:      "Total number of bookings created, by entry point and initial status.",
	},
	[]string{"entry_point", "status"},
)

// BookingTransitionsTotal counts applied status changes.
var BookingTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "booking_transitions_total",
		Help:      "Total number of booking status transitions applied.",
	},
	[]string{"from", "to"},
)

// BookingRejectionsTotal counts create or transition attempts refused by a
// business rule.
// Label:
//   - reason: e.g. "invalid_range", "overlap", "cancellation_window_closed"
var BookingRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "booking_rejections_total",
		Help:      "Total number of booking operations refused by a business rule.",
	},
	[]string{"reason"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthRejectionsTotal counts requests turned away by the authorization gate.
// Label:
//   - kind: "unauthenticated" or "forbidden"
var AuthRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_rejections_total",
		Help:      "Total number of requests rejected by the authorization gate.",
	},
	[]string{"kind"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsTotal counts notification outcomes.
// Labels:
//   - kind: notification kind (e.g. "booking_confirmed")
//   - result: "sent", "failed" or "dropped"
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of notifications by kind and outcome.",
	},
	[]string{"kind", "result"},
)

// NotificationQueueDepth tracks pending notifications in each worker channel.
var NotificationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Current number of notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// NotificationDeliveryDuration measures render plus send time.
var NotificationDeliveryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "notification_delivery_duration_seconds",
		Help:      "Duration of a single notification delivery attempt.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"kind"},
)
