package index

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/PowerDNS/lmdb-go/lmdb"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// collector exports LMDB statistics of open indexes to Prometheus.
type collector struct {
	mu      sync.Mutex
	targets map[string]*lmdb.Env
}

func newCollector() *collector {
	return &collector{targets: make(map[string]*lmdb.Env)}
}

func (c *collector) add(name string, env *lmdb.Env) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.targets[name] = env
}

func (c *collector) remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.targets, name)
}

// Describe is part of the prometheus.Collector interface
func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- envMapSizeDesc
	ch <- envCurrentReadersDesc
	ch <- envFileSizeDesc
	ch <- statEntriesDesc
	ch <- statPagesDesc
}

// Collect is part of the prometheus.Collector interface
func (c *collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, env := range c.targets {
		if err := collectEnv(ch, name, env); err != nil {
			logrus.WithField("index", name).Errorf("Collector: %v", err)
		}
	}
}

func collectEnv(ch chan<- prometheus.Metric, name string, env *lmdb.Env) error {
	info, err := env.Info()
	if err != nil {
		return errors.Wrap(err, "env info")
	}
	ch <- prometheus.MustNewConstMetric(
		envMapSizeDesc, prometheus.GaugeValue, float64(info.MapSize), name)
	ch <- prometheus.MustNewConstMetric(
		envCurrentReadersDesc, prometheus.GaugeValue, float64(info.NumReaders), name)

	path, err := env.Path()
	if err != nil {
		return errors.Wrap(err, "env path")
	}
	size, err := lmdbFileSize(path)
	if err != nil {
		return errors.Wrap(err, "file size")
	}
	ch <- prometheus.MustNewConstMetric(
		envFileSizeDesc, prometheus.GaugeValue, float64(size), name)

	return env.View(func(txn *lmdb.Txn) error {
		for _, dbname := range []string{DBIPackages, DBIMeta} {
			dbi, err := txn.OpenDBI(dbname, 0)
			if err != nil {
				if lmdb.IsNotFound(err) {
					continue // nothing imported yet
				}
				return errors.Wrap(err, "opendbi "+dbname)
			}
			stat, err := txn.Stat(dbi)
			if err != nil {
				return errors.Wrap(err, "stat "+dbname)
			}
			ch <- prometheus.MustNewConstMetric(
				statEntriesDesc, prometheus.GaugeValue, float64(stat.Entries), name, dbname)
			ch <- prometheus.MustNewConstMetric(
				statPagesDesc, prometheus.GaugeValue, float64(stat.LeafPages), name, dbname, "leaf")
			ch <- prometheus.MustNewConstMetric(
				statPagesDesc, prometheus.GaugeValue, float64(stat.OverflowPages), name, dbname, "overflow")
		}
		return nil
	})
}

var (
	envMapSizeDesc = prometheus.NewDesc(
		"eixdb_lmdb_mapsize_bytes",
		"Map size of the index LMDB",
		[]string{"lmdb"},
		nil,
	)
	envCurrentReadersDesc = prometheus.NewDesc(
		"eixdb_lmdb_env_readers_current",
		"Number of current readers of the index LMDB",
		[]string{"lmdb"},
		nil,
	)
	envFileSizeDesc = prometheus.NewDesc(
		"eixdb_lmdb_filesize_bytes",
		"File size of the index LMDB",
		[]string{"lmdb"},
		nil,
	)
	statEntriesDesc = prometheus.NewDesc(
		"eixdb_lmdb_stat_entries",
		"Number of entries in named LMDB database",
		[]string{"lmdb", "db"},
		nil,
	)
	statPagesDesc = prometheus.NewDesc(
		"eixdb_lmdb_stat_pages",
		"Number of pages in named LMDB database per page type (leaf and overflow)",
		[]string{"lmdb", "db", "pagetype"},
		nil,
	)
)

func lmdbFileSize(path string) (int64, error) {
	st, err := os.Stat(path)
	if err != nil {
		return 0, errors.Wrap(err, "stat")
	}
	if st.IsDir() {
		st, err = os.Stat(filepath.Join(path, "data.mdb"))
		if err != nil {
			return 0, errors.Wrap(err, "stat")
		}
	}
	return st.Size(), nil
}
