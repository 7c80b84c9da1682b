package observability

import (
	"time"

	"storefront/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

var (
	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of orders placed",
	})

	OrdersRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_rejected_total",
		Help: "Total number of rejected order placements",
	}, []string{"reason"})

	OrderRevenueTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_revenue_pen_total",
		Help: "Sum of placed order totals in PEN",
	})

	OrderPlacementDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_placement_duration_seconds",
		Help:    "Latency of the order placement transaction",
		Buckets: prometheus.DefBuckets,
	})

	OrderStatusChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_changes_total",
		Help: "Total number of admin order status changes",
	}, []string{"from", "to"})

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

// usecaseの注文メトリクスをPrometheusに流す
type OrderMetrics struct{}

func NewOrderMetrics() *OrderMetrics {
	return &OrderMetrics{}
}

func (m *OrderMetrics) OrderPlaced(total decimal.Decimal, d time.Duration) {
	OrdersPlacedTotal.Inc()
	OrderRevenueTotal.Add(total.InexactFloat64())
	OrderPlacementDuration.Observe(d.Seconds())
}

func (m *OrderMetrics) OrderRejected(reason string) {
	OrdersRejectedTotal.WithLabelValues(reason).Inc()
}

func (m *OrderMetrics) OrderStatusChanged(from, to model.OrderStatus) {
	OrderStatusChangesTotal.WithLabelValues(string(from), string(to)).Inc()
}
