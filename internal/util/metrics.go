package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of orders placed",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of rejected order placements",
	}, []string{"reason"})

	OrderValueTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_value_total",
		Help: "Sum of merchandise totals of placed orders",
	})

	OrderStatusTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Total number of order status transitions",
	}, []string{"from", "to"})

	AuthAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_attempts_total",
		Help: "Total number of login and registration attempts",
	}, []string{"operation", "result"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "active_sessions",
		Help: "Number of sessions currently held in memory",
	})

	StoreUpdateLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "store_update_latency_seconds",
		Help:    "Latency of state read-modify-write cycles",
		Buckets: prometheus.DefBuckets,
	})

	StoreConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "store_version_conflicts_total",
		Help: "Total number of optimistic concurrency conflicts on the state document",
	})

	ReceiptsArchivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "receipts_archived_total",
		Help: "Total number of receipts written to the archive",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
