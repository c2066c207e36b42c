package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// QueueDepth — текущее число заказов в очереди.
var QueueDepth = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "island_queue_depth",
		Help: "Current number of orders waiting in the queue",
	},
)

// AdmissionsTotal counts admission attempts by result
// (accepted, duplicate_user, already_processing, delivery_failed).
var AdmissionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "island_admissions_total",
		Help: "Total admission attempts by result",
	},
	[]string{"result"},
)

// OrdersCompleted counts terminal transitions by outcome (finished/cancelled).
var OrdersCompleted = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "island_orders_completed_total",
		Help: "Total orders reaching a terminal status",
	},
	[]string{"outcome"},
)

// FulfillmentSeconds — сколько занимает выдача одного заказа.
var FulfillmentSeconds = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "island_fulfillment_duration_seconds",
		Help:    "Wall time spent fulfilling a single order",
		Buckets: prometheus.ExponentialBuckets(15, 2, 8),
	},
)

func init() {
	prometheus.MustRegister(QueueDepth, AdmissionsTotal, OrdersCompleted, FulfillmentSeconds)
}
