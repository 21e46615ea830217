package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// solveTotal counts solve requests by method, strategy, and outcome.
	solveTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fluxlord_solve_total",
			Help: "Total solve requests processed",
		},
		[]string{"method", "strategy", "status"},
	)

	// solveSeconds tracks end-to-end solve latency per strategy.
	solveSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fluxlord_solve_seconds",
			Help:    "Solve latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"method", "strategy"},
	)

	// workerCrashes counts worker channel teardowns.
	workerCrashes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fluxlord_worker_crashes_total",
			Help: "Total worker channel crashes",
		},
	)

	// remoteUp reflects the last remote health probe (1 healthy).
	remoteUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fluxlord_remote_healthy",
			Help: "Whether the remote solve service answered its last health probe",
		},
	)
)

func init() {
	prometheus.MustRegister(solveTotal)
	prometheus.MustRegister(solveSeconds)
	prometheus.MustRegister(workerCrashes)
	prometheus.MustRegister(remoteUp)
}
