// Package healthtracker reports repeated failures of a periodic task, like
// reloading the cache file, through healthz.
package healthtracker

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wojas/go-healthz"
	"go.uber.org/atomic"
)

// HealthTracker counts consecutive failures of an activity
type HealthTracker struct {
	Config   HealthConfig
	sequence atomic.Uint32
	since    atomic.Time
	lastErr  atomic.Error
	prefix   string
	activity string
	logger   logrus.FieldLogger
}

// New creates a HealthTracker and registers its checks with healthz.
// The prefix is used for the check names, the activity for the messages.
func New(hc HealthConfig, prefix string, activity string, logger logrus.FieldLogger) *HealthTracker {
	ht := newTracker(hc, prefix, activity, logger)
	ht.RegisterSequence()
	ht.RegisterDuration()
	return ht
}

func newTracker(hc HealthConfig, prefix string, activity string, logger logrus.FieldLogger) *HealthTracker {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &HealthTracker{
		Config:   hc.Validated(),
		prefix:   prefix,
		activity: activity,
		logger:   logger.WithField("healthtracker", prefix),
	}
}

// RegisterSequence registers the check on the number of consecutive failures
func (ht *HealthTracker) RegisterSequence() {
	healthz.Register(ht.prefix+"_failed_attempts", ht.Config.EvaluationInterval, ht.checkSequence)
	ht.logger.Debug("registered tracker for consecutive failures")
}

// RegisterDuration registers the check on the duration of a failure streak
func (ht *HealthTracker) RegisterDuration() {
	healthz.Register(ht.prefix+"_failed_duration", ht.Config.EvaluationInterval, ht.checkDuration)
	ht.logger.Debug("registered tracker for failure duration")
}

// Deregister removes the checks from healthz
func (ht *HealthTracker) Deregister() {
	healthz.Deregister(ht.prefix + "_failed_attempts")
	healthz.Deregister(ht.prefix + "_failed_duration")
}

func (ht *HealthTracker) checkSequence() error {
	conseqFails := ht.sequence.Load()

	if conseqFails >= ht.Config.ErrorSequence {
		ht.logger.Warnf("%d consecutive failures is violating the error threshold (%d)",
			conseqFails, ht.Config.ErrorSequence)
		return fmt.Errorf("failed to %s %d consecutive times", ht.activity, conseqFails)
	} else if ht.Config.WarnSequence > 0 && conseqFails >= ht.Config.WarnSequence {
		ht.logger.Warnf("%d consecutive failures is violating the warning threshold (%d)",
			conseqFails, ht.Config.WarnSequence)
		return healthz.Warnf("failed to %s %d consecutive times", ht.activity, conseqFails)
	}
	return nil
}

func (ht *HealthTracker) checkDuration() error {
	if ht.sequence.Load() == 0 {
		return nil
	}
	failingFor := time.Since(ht.since.Load()).Round(time.Second)

	if failingFor >= ht.Config.ErrorDuration {
		ht.logger.Warnf("failure for %s is violating the error threshold (%s)",
			failingFor, ht.Config.ErrorDuration)
		return fmt.Errorf("failed to %s for %s", ht.activity, failingFor)
	} else if failingFor >= ht.Config.WarnDuration {
		ht.logger.Warnf("failure for %s is violating the warning threshold (%s)",
			failingFor, ht.Config.WarnDuration)
		return healthz.Warnf("failed to %s for %s", ht.activity, failingFor)
	}
	return nil
}

// AddFailure records a failed attempt
func (ht *HealthTracker) AddFailure(err error) {
	if ht.sequence.Load() == 0 {
		ht.since.Store(time.Now())
	}
	ht.lastErr.Store(err)
	failures := ht.sequence.Inc()
	ht.logger.Debugf("incremented consecutive failures to %d", failures)
}

// AddSuccess records a successful attempt, which ends a failure streak
func (ht *HealthTracker) AddSuccess() {
	ht.sequence.Store(0)
	ht.lastErr.Store(nil)
	ht.logger.Debug("tracked successful attempt")
}

// State describes the current failure streak
type State struct {
	Failures     uint32
	FailingSince time.Time // zero if not failing
	LastError    error
}

// State returns the current failure streak
func (ht *HealthTracker) State() State {
	st := State{Failures: ht.sequence.Load()}
	if st.Failures > 0 {
		st.FailingSince = ht.since.Load()
		st.LastError = ht.lastErr.Load()
	}
	return st
}
