package utils

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// DefaultLockLimit is the hold time above which MonitoredMutex warns
const DefaultLockLimit = time.Second

var metricLockHeld = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "eixdb_lock_held_seconds",
		Help:    "Time a monitored lock was held",
		Buckets: prometheus.ExponentialBuckets(0.00001, 10, 7),
	},
	[]string{"lock_name"},
)

func init() {
	prometheus.MustRegister(metricLockHeld)
}

// MonitoredMutex is a sync.Mutex that records how long it is held, and
// logs a warning with the caller when it was held longer than Limit.
type MonitoredMutex struct {
	mu       sync.Mutex
	lockTime time.Time

	Logger logrus.FieldLogger
	Name   string
	Limit  time.Duration // DefaultLockLimit if zero
}

func (m *MonitoredMutex) Lock() {
	m.mu.Lock()
	m.lockTime = time.Now()
}

func (m *MonitoredMutex) Unlock() {
	held := time.Since(m.lockTime)
	m.lockTime = time.Time{}
	m.mu.Unlock()

	metricLockHeld.WithLabelValues(m.Name).Observe(held.Seconds())
	limit := m.Limit
	if limit <= 0 {
		limit = DefaultLockLimit
	}
	if held <= limit {
		return
	}
	// Only a warning, a paused process can hold a lock for a long time
	m.logger().WithFields(logrus.Fields{
		"lock_held": held,
		"limit":     limit,
		"lock_name": m.Name,
		"caller":    callerName(2),
	}).Warn("Lock held too long")
}

func (m *MonitoredMutex) logger() logrus.FieldLogger {
	if m.Logger != nil {
		return m.Logger
	}
	return logrus.StandardLogger()
}

// callerName describes the caller skip frames up
func callerName(skip int) string {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	if fn := runtime.FuncForPC(pc); fn != nil {
		return fmt.Sprintf("%s:%d (%s)", file, line, fn.Name())
	}
	return fmt.Sprintf("%s:%d", file, line)
}
