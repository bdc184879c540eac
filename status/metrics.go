package status

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricAPIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eixdb_api_requests_total",
			Help: "Number of package API requests by HTTP status code",
		},
		[]string{"code"},
	)
	metricAPIDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eixdb_api_request_duration_seconds",
			Help:    "Duration of package API requests",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	)
)

func init() {
	prometheus.MustRegister(metricAPIRequests)
	prometheus.MustRegister(metricAPIDuration)
}
