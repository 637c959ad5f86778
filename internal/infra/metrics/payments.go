// File: internal/infra/metrics/payments.go
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	paymentOrders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_orders_total",
			Help: "Payment orders created with the provider, by outcome.",
		},
		[]string{"result"},
	)

	paymentVerify = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verify_total",
			Help: "Payment signature verifications by outcome (ok/failed).",
		},
		[]string{"result"},
	)
)

func init() {
	register(paymentOrders, paymentVerify)
}

func IncPaymentOrder(result string)  { paymentOrders.WithLabelValues(result).Inc() }
func IncPaymentVerify(result string) { paymentVerify.WithLabelValues(result).Inc() }
