// Package climit limits the number of concurrent index readers.
package climit

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// New creates a new ConcurrencyLimit with a given limit.
// The name is used for Prometheus metrics.
func New(name string, limit int, logger logrus.FieldLogger) *ConcurrencyLimit {
	if logger == nil {
		lr := logrus.New()
		lr.SetLevel(logrus.PanicLevel) // never reached
		logger = lr
	}
	logger = logger.WithField("limit_name", name)
	if limit < 1 {
		logger.Warnf(
			"Increasing concurrency limit from configured %d to minimum of 1", limit)
		limit = 1
	}
	l := &ConcurrencyLimit{
		name:   name,
		labels: prometheus.Labels{"limit_name": name},
		ch:     make(chan struct{}, limit),
		log:    logger,
	}
	for i := 0; i < limit; i++ {
		l.ch <- struct{}{}
	}
	metricLimit.With(l.labels).Set(float64(limit))
	return l
}

// ConcurrencyLimit hands out a fixed number of tokens. A Token is acquired
// by calling Acquire, and MUST be released by calling Token.Release.
type ConcurrencyLimit struct {
	name   string
	labels prometheus.Labels
	ch     chan struct{}
	log    logrus.FieldLogger
}

// Acquire blocks until a free Token is available or the context is done.
// You MUST call Token.Release when you are done with the operation.
func (cl *ConcurrencyLimit) Acquire(ctx context.Context) (*Token, error) {
	metricWaiting.With(cl.labels).Inc()
	defer metricWaiting.With(cl.labels).Dec()

	t0 := time.Now()
	select {
	case <-cl.ch:
	case <-ctx.Done():
		metricTimeoutsTotal.With(cl.labels).Inc()
		return nil, ctx.Err()
	}
	dt := time.Since(t0)

	metricActive.With(cl.labels).Inc()
	metricAcquiredTotal.With(cl.labels).Inc()
	metricWaitingSeconds.With(cl.labels).Observe(dt.Seconds())
	if dt > slowAcquire {
		cl.log.WithField("time_to_acquire", dt).Debug("Slow token acquire")
	}
	return &Token{cl: cl, time: time.Now()}, nil
}

// slowAcquire is the wait time above which a debug message is logged
const slowAcquire = 100 * time.Millisecond

// Token allows the holder to proceed with a limited operation.
type Token struct {
	cl   *ConcurrencyLimit
	time time.Time

	mu       sync.Mutex
	released bool
}

// Release releases the Token.
// It can safely be called more than once, even from different goroutines.
// It returns how long the Token was held, or 0 if it had already been released.
func (t *Token) Release() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return 0
	}
	t.cl.ch <- struct{}{}
	t.released = true
	dt := time.Since(t.time)
	metricActive.With(t.cl.labels).Dec()
	metricActiveSeconds.With(t.cl.labels).Observe(dt.Seconds())
	t.cl = nil
	return dt
}
