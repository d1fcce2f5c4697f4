package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// CheckoutOutcomes counts terminal states of paid and free submissions.
	CheckoutOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rti",
			Name:      "checkout_outcomes_total",
			Help:      "Checkout attempts by terminal outcome.",
		},
		[]string{"outcome"},
	)

	GatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rti",
			Name:      "gateway_requests_total",
			Help:      "Calls to the payment provider by operation and result.",
		},
		[]string{"operation", "result"},
	)

	GatewayLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rti",
			Name:      "gateway_request_duration_seconds",
			Help:      "Latency of payment provider calls.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rti",
			Name:      "notifications_total",
			Help:      "Notification attempts by channel and result.",
		},
		[]string{"channel", "result"},
	)

	NotificationQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "rti",
			Name:      "notification_queue_depth",
			Help:      "Jobs waiting in the notification dispatcher.",
		},
	)

	EventsHandled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rti",
			Name:      "events_handled_total",
			Help:      "Event handler runs by event type and result.",
		},
		[]string{"event_type", "result"},
	)

	PendingRecoveries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "rti",
			Name:      "payment_recoveries_pending",
			Help:      "Payment recovery records awaiting reconciliation, as of the last listing.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		CheckoutOutcomes,
		GatewayRequests,
		GatewayLatency,
		Notifications,
		NotificationQueueDepth,
		EventsHandled,
		PendingRecoveries,
	)
}

func ResultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
