// Package starttracker reports through healthz whether the first import
// after startup has completed.
package starttracker

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wojas/go-healthz"
	"go.uber.org/atomic"
)

// StartTracker tracks the startup phase of the serve command. Startup is
// complete when the index holds data, either from an import in this run or
// from an earlier run.
type StartTracker struct {
	Config        StartConfig
	initialImport atomic.Bool
	since         atomic.Time
	prefix        string
	logger        logrus.FieldLogger
}

// New creates a StartTracker and registers it with healthz.
func New(sc StartConfig, prefix string, logger logrus.FieldLogger) *StartTracker {
	st := newTracker(sc, prefix, logger)
	st.RegisterTracker()
	return st
}

func newTracker(sc StartConfig, prefix string, logger logrus.FieldLogger) *StartTracker {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	st := &StartTracker{
		Config: sc.Validated(),
		prefix: prefix,
		logger: logger.WithField("starttracker", prefix),
	}
	// Set current time as begin of startup phase
	st.since.Store(time.Now())
	return st
}

// RegisterTracker registers the startup check. It deregisters itself once
// startup has completed.
func (st *StartTracker) RegisterTracker() {
	if st.Config.ReportMetadata {
		healthz.SetMeta("startupCompleted", false)
	}

	trackerName := fmt.Sprintf("%s_startup_in_progress", st.prefix)
	healthz.Register(trackerName, st.Config.EvaluationInterval, func() error {
		if err := st.check(); err != nil {
			return err
		}
		if !st.initialImport.Load() {
			return nil
		}
		if st.Config.ReportMetadata {
			healthz.SetMeta("startupCompleted", true)
		}
		st.logger.Info("startup phase completed successfully")
		healthz.Deregister(trackerName)
		return nil
	})

	st.logger.Debug("registered tracker for startup phase")
}

// check returns an error or warning while startup is pending too long.
func (st *StartTracker) check() error {
	if st.initialImport.Load() || !st.Config.ReportHealthz {
		return nil
	}
	pendingFor := time.Since(st.since.Load()).Round(time.Second)
	if pendingFor >= st.Config.ErrorDuration {
		st.logger.Debugf("initial import pending after %s is violating the error threshold (%s)",
			pendingFor, st.Config.ErrorDuration)
		return fmt.Errorf("initial import pending after %s", pendingFor)
	} else if pendingFor >= st.Config.WarnDuration {
		st.logger.Debugf("initial import pending after %s is violating the warning threshold (%s)",
			pendingFor, st.Config.WarnDuration)
		return healthz.Warnf("initial import pending after %s", pendingFor)
	}
	return nil
}

// SetPassedInitialImport marks the startup phase as completed
func (st *StartTracker) SetPassedInitialImport() {
	if st.initialImport.Swap(true) {
		return
	}
	st.logger.WithField("startup_time", time.Since(st.since.Load()).Round(time.Millisecond)).
		Debug("tracked successful initial import")
}

// Completed reports whether the startup phase has completed
func (st *StartTracker) Completed() bool {
	return st.initialImport.Load()
}
