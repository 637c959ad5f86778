// File: internal/infra/metrics/quota.go
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	quotaChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_checks_total",
			Help: "Quota status evaluations by outcome (allowed/denied/premium).",
		},
		[]string{"result"},
	)

	quotaDebits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_debits_total",
			Help: "Debit attempts by outcome (ok/premium_noop/exhausted).",
		},
		[]string{"result"},
	)

	quotaCredits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quota_credits_total",
			Help: "Units refunded back to device counters.",
		},
	)

	quotaResets = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quota_resets_total",
			Help: "Daily counter resets performed on read.",
		},
	)

	upgrades = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscription_upgrades_total",
			Help: "Successful subscription grants/extensions.",
		},
	)
)

func init() {
	register(quotaChecks, quotaDebits, quotaCredits, quotaResets, upgrades)
}

func IncQuotaCheck(result string) { quotaChecks.WithLabelValues(result).Inc() }
func IncQuotaDebit(result string) { quotaDebits.WithLabelValues(result).Inc() }
func IncQuotaCredit()             { quotaCredits.Inc() }
func IncQuotaReset()              { quotaResets.Inc() }
func IncUpgrade()                 { upgrades.Inc() }
