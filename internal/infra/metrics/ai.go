// File: internal/infra/metrics/ai.go
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	generationCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_calls_total",
			Help: "Upstream generation calls per provider, by outcome.",
		},
		[]string{"provider", "result"},
	)

	generationLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_latency_ms",
			Help:    "Upstream generation latency distribution in milliseconds.",
			Buckets: []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000},
		},
		[]string{"provider"},
	)
)

func init() {
	register(generationCalls, generationLatencyMs)
}

func IncGenerationCall(provider, result string) {
	generationCalls.WithLabelValues(provider, result).Inc()
}

func ObserveGenerationLatency(provider string, ms float64) {
	generationLatencyMs.WithLabelValues(provider).Observe(ms)
}
