package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CheckoutTotal counts checkout attempts by outcome.
	CheckoutTotal *prometheus.CounterVec
	// CheckoutDuration records checkout latency in milliseconds.
	CheckoutDuration prometheus.Histogram
	// CartMutationsTotal counts cart mutations by operation and outcome.
	CartMutationsTotal *prometheus.CounterVec
	// InventoryRejectionsTotal counts requests refused because stock ran out.
	InventoryRejectionsTotal *prometheus.CounterVec
	// TransactionTransitionsTotal counts archive status changes.
	TransactionTransitionsTotal *prometheus.CounterVec
	// RestockedUnitsTotal counts units returned to inventory by restocks.
	RestockedUnitsTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CheckoutTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Count of checkout attempts by result.",
		}, []string{"result"}))
		CheckoutDuration = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_duration_ms",
			Help:      "Latency of checkout settlement in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}))
		CartMutationsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Count of cart mutations by operation and result.",
		}, []string{"op", "result"}))
		InventoryRejectionsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_rejections_total",
			Help:      "Count of requests rejected for lack of inventory.",
		}, []string{"reason"}))
		TransactionTransitionsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transaction_transitions_total",
			Help:      "Count of transaction status transitions.",
		}, []string{"to"}))
		RestockedUnitsTotal = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restocked_units_total",
			Help:      "Units returned to inventory by transaction restocks.",
		}))
	})
}

// ObserveCheckout records a checkout outcome. It is a no-op until the domain
// metrics are registered.
func ObserveCheckout(result string, durationMs float64) {
	if CheckoutTotal != nil {
		CheckoutTotal.WithLabelValues(result).Inc()
	}
	if CheckoutDuration != nil && durationMs >= 0 {
		CheckoutDuration.Observe(durationMs)
	}
}

// ObserveCartMutation records a cart mutation outcome.
func ObserveCartMutation(op, result string) {
	if CartMutationsTotal != nil {
		CartMutationsTotal.WithLabelValues(op, result).Inc()
	}
}

// ObserveInventoryRejection records a stock-related refusal.
func ObserveInventoryRejection(reason string) {
	if InventoryRejectionsTotal != nil {
		InventoryRejectionsTotal.WithLabelValues(reason).Inc()
	}
}

// ObserveTransition records a transaction moving to a new status.
func ObserveTransition(to string) {
	if TransactionTransitionsTotal != nil {
		TransactionTransitionsTotal.WithLabelValues(to).Inc()
	}
}

// ObserveRestock adds restored units.
func ObserveRestock(units int) {
	if RestockedUnitsTotal != nil && units > 0 {
		RestockedUnitsTotal.Add(float64(units))
	}
}
