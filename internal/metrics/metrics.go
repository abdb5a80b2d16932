package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 引当のライフサイクルカウンタ。/metrics で公開する。
var (
	ReservationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservations_created_total",
		Help: "Number of reservations successfully created.",
	})

	ReservationsCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservations_committed_total",
		Help: "Number of reservations committed.",
	})

	ReservationsReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservations_released_total",
		Help: "Number of reservations released.",
	})

	ReservationsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservations_expired_total",
		Help: "Number of reservations expired by the sweeper.",
	})

	InsufficientStockRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservations_insufficient_stock_total",
		Help: "Number of reservation attempts rejected for insufficient stock.",
	})
)
