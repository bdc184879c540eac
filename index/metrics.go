package index

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	lmdbCollector *collector

	metricImports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eixdb_index_imports_total",
			Help: "Number of imports into the index",
		},
		[]string{"result"},
	)
	metricImportDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eixdb_index_import_duration_seconds",
			Help:    "Duration of successful imports",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
	)
	metricImportLastTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "eixdb_index_import_last_unix_seconds",
			Help: "UNIX timestamp of the last successful import",
		},
	)
	metricPackages = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "eixdb_index_packages",
			Help: "Number of packages in the index",
		},
	)
	metricVersions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "eixdb_index_versions",
			Help: "Number of package versions in the index",
		},
	)
	metricLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eixdb_index_lookups_total",
			Help: "Number of package lookups",
		},
		[]string{"result"},
	)
)

func init() {
	lmdbCollector = newCollector()
	prometheus.MustRegister(lmdbCollector)

	prometheus.MustRegister(metricImports)
	prometheus.MustRegister(metricImportDuration)
	prometheus.MustRegister(metricImportLastTimestamp)
	prometheus.MustRegister(metricPackages)
	prometheus.MustRegister(metricVersions)
	prometheus.MustRegister(metricLookups)
}
