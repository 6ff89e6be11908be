package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrderMetrics tracks the outcome of order placement attempts.
type OrderMetrics struct {
	placed   *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	placed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders accepted by reconciliation.",
	}, []string{"delivery_type"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_rejected_total",
		Help: "Order placements rejected by reconciliation.",
	}, []string{"reason"})
	reg.MustRegister(placed, rejected)
	return &OrderMetrics{placed: placed, rejected: rejected}
}

// IncPlaced counts an accepted order.
func (o *OrderMetrics) IncPlaced(deliveryType string) {
	if o == nil || o.placed == nil {
		return
	}
	o.placed.WithLabelValues(normalizeLabel(deliveryType)).Inc()
}

// IncRejected counts a rejected placement attempt by reason tag.
func (o *OrderMetrics) IncRejected(reason string) {
	if o == nil || o.rejected == nil {
		return
	}
	o.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}
