package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ShopMetrics counts order outcomes for the /metrics endpoint.
type ShopMetrics struct {
	OrdersPlaced    prometheus.Counter
	OrdersCancelled prometheus.Counter
	StockConflicts  prometheus.Counter
}

// New registers the shop counters on reg. Pass a fresh registry in tests to
// avoid duplicate registration.
func New(reg prometheus.Registerer) *ShopMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &ShopMetrics{
		OrdersPlaced: factory.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_placed_total",
			Help: "Total number of orders placed successfully",
		}),
		OrdersCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_cancelled_total",
			Help: "Total number of orders cancelled",
		}),
		StockConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "storefront_stock_conflicts_total",
			Help: "Total number of placements rejected for insufficient stock",
		}),
	}
}
