package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatetrack_orders_created_total",
		Help: "Total number of orders successfully created.",
	})

	StatusTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatetrack_status_transitions_total",
		Help: "Total number of order status transitions applied.",
	},
		[]string{"status"},
	)

	ViewReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatetrack_view_reloads_total",
		Help: "Total number of view loads, by view name and outcome.",
	},
		[]string{"view", "outcome"},
	)

	FeedEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatetrack_feed_events_total",
		Help: "Total number of change-feed events received, by event type.",
	},
		[]string{"type"},
	)

	NotificationsSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatetrack_notifications_sent_total",
		Help: "Total number of push notifications handed to the delivery channel.",
	})

	NotificationsSuppressedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatetrack_notifications_suppressed_total",
		Help: "Total number of notifications suppressed, by reason.",
	},
		[]string{"reason"},
	)

	OperationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatetrack_operation_errors_total",
		Help: "Total number of errors encountered during specific operations.",
	},
		[]string{"operation"},
	)

	ViewOrders = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gatetrack_view_orders",
		Help: "Current number of orders materialized in each view.",
	},
		[]string{"view"},
	)
)
