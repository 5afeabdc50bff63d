package accesscontrol

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "access",
		Subsystem: "engine",
		Name:      "decisions_total",
		Help:      "Total authorization decisions broken down by resolver and result.",
	}, []string{"resolver", "result"})

	decisionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "access",
		Subsystem: "engine",
		Name:      "decision_latency_seconds",
		Help:      "Latency distribution for authorization decisions.",
		Buckets: []float64{
			0.0005, 0.001, 0.002, 0.005,
			0.01, 0.02, 0.05, 0.1,
		},
	}, []string{"resolver", "result"})
)

func recordDecision(resolver string, effect Effect, latency time.Duration) {
	labels := prometheus.Labels{
		"resolver": resolver,
		"result":   effect.String(),
	}
	decisionRequests.With(labels).Inc()
	decisionLatency.With(labels).Observe(latency.Seconds())
}
