package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector families in this package (quota_*, subscription_upgrades_total,
// payment_*, generation_*) are declared in their own files and enqueued via
// register from init. MustRegister flushes the queue into the default
// prometheus registry exactly once, so tests that build several servers in
// one process never hit a duplicate-registration panic.

var (
	regOnce sync.Once
	pending []prometheus.Collector
)

func register(cs ...prometheus.Collector) {
	pending = append(pending, cs...)
}

func MustRegister() {
	regOnce.Do(func() {
		if len(pending) > 0 {
			prometheus.MustRegister(pending...)
		}
	})
}
