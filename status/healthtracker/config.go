package healthtracker

import (
	"fmt"
	"time"
)

const (
	// MinEvaluationInterval keeps healthz from evaluating the checks in a
	// busy loop
	MinEvaluationInterval = time.Second
	MinErrorDuration      = time.Duration(0)
	MinErrorSequence      = 1
)

// HealthConfig configures when a streak of failed attempts turns the
// healthz status into a warning or an error. Both the number of consecutive
// failures and the duration of the streak are checked.
type HealthConfig struct {
	EvaluationInterval time.Duration `yaml:"interval"`
	ErrorDuration      time.Duration `yaml:"error_duration"`
	WarnDuration       time.Duration `yaml:"warn_duration"`
	ErrorSequence      uint32        `yaml:"error_sequence"`
	WarnSequence       uint32        `yaml:"warn_sequence"`
}

// DefaultHealthConfig is used for the reload loop. With the default poll
// interval a single failed download is not worth a warning.
var DefaultHealthConfig = HealthConfig{
	EvaluationInterval: 5 * time.Second,
	ErrorDuration:      30 * time.Minute,
	WarnDuration:       5 * time.Minute,
	ErrorSequence:      10,
	WarnSequence:       2,
}

// Check returns an error for thresholds that can never be hit in order.
func (hc HealthConfig) Check() error {
	if hc.WarnDuration > hc.ErrorDuration {
		return fmt.Errorf("warn_duration (%s) must not exceed error_duration (%s)",
			hc.WarnDuration, hc.ErrorDuration)
	}
	if hc.WarnSequence > hc.ErrorSequence {
		return fmt.Errorf("warn_sequence (%d) must not exceed error_sequence (%d)",
			hc.WarnSequence, hc.ErrorSequence)
	}
	return nil
}

// Validated returns a copy with all values raised to their minimum.
func (hc HealthConfig) Validated() HealthConfig {
	hc.EvaluationInterval = max(hc.EvaluationInterval, MinEvaluationInterval)
	hc.ErrorDuration = max(hc.ErrorDuration, MinErrorDuration)
	hc.WarnDuration = max(hc.WarnDuration, 0)
	// A zero error sequence would fail before the first attempt
	hc.ErrorSequence = max(hc.ErrorSequence, MinErrorSequence)
	return hc
}
