// Package metrics exposes the prometheus gauges/counters cmd/clobd scrapes
// at /metrics: book depth, event-queue depth, fills, and advisory
// notifications dropped by internal/notify.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "clob",
		Name:      "book_depth",
		Help:      "Resting order count per market and side.",
	}, []string{"market", "side"})

	EventQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "clob",
		Name:      "event_queue_depth",
		Help:      "Unconsumed fill events pending per market.",
	}, []string{"market"})

	FillsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clob",
		Name:      "fills_total",
		Help:      "Fill events produced per market.",
	}, []string{"market"})

	OrdersPlacedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clob",
		Name:      "orders_placed_total",
		Help:      "place_limit_order calls per market and time-in-force.",
	}, []string{"market", "tif"})

	OrdersRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clob",
		Name:      "orders_rejected_total",
		Help:      "place_limit_order calls rejected per market and wire error code.",
	}, []string{"market", "code"})

	NotifyDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clob",
		Name:      "notify_dropped_total",
		Help:      "Advisory notifications dropped because the fan-out channel was full.",
	})

	CBState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "clob",
		Name:      "circuitbreaker_state",
		Help:      "Circuit breaker state (0/1) per resource and state name.",
	}, []string{"resource", "state"})
)
