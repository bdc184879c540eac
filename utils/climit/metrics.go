package climit

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricLimit = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "eixdb_climit_limit",
			Help: "Configured maximum number of tokens that can be active at once",
		},
		[]string{"limit_name"},
	)
	metricWaiting = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "eixdb_climit_waiting",
			Help: "Number of requests waiting to acquire a token",
		},
		[]string{"limit_name"},
	)
	metricActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "eixdb_climit_active",
			Help: "Number of requests currently holding a token",
		},
		[]string{"limit_name"},
	)
	metricAcquiredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eixdb_climit_acquired_total",
			Help: "Total number of times a token has been acquired",
		},
		[]string{"limit_name"},
	)
	metricTimeoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eixdb_climit_timeouts_total",
			Help: "Total number of requests that gave up waiting for a token",
		},
		[]string{"limit_name"},
	)
	metricActiveSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "eixdb_climit_active_seconds",
			Help: "Histogram of how long requests held a token",
		},
		[]string{"limit_name"},
	)
	metricWaitingSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "eixdb_climit_waiting_seconds",
			Help: "Histogram of how long requests have had to wait for a token",
		},
		[]string{"limit_name"},
	)
)

func init() {
	prometheus.MustRegister(metricLimit)
	prometheus.MustRegister(metricWaiting)
	prometheus.MustRegister(metricActive)
	prometheus.MustRegister(metricAcquiredTotal)
	prometheus.MustRegister(metricTimeoutsTotal)
	prometheus.MustRegister(metricActiveSeconds)
	prometheus.MustRegister(metricWaitingSeconds)
}
