package starttracker

import (
	"fmt"
	"time"
)

// MinEvaluationInterval keeps healthz from evaluating the check in a busy loop
const MinEvaluationInterval = time.Second

// StartConfig configures how long the first import after startup may take
// before healthz reports a warning or an error.
type StartConfig struct {
	EvaluationInterval time.Duration `yaml:"interval"`
	ErrorDuration      time.Duration `yaml:"error_duration"`
	WarnDuration       time.Duration `yaml:"warn_duration"`
	ReportHealthz      bool          `yaml:"report_healthz"`
	ReportMetadata     bool          `yaml:"report_metadata"` // healthz meta "startupCompleted"
}

// DefaultStartConfig allows a large remote file to be downloaded and
// imported before warning.
var DefaultStartConfig = StartConfig{
	EvaluationInterval: 5 * time.Second,
	ErrorDuration:      15 * time.Minute,
	WarnDuration:       time.Minute,
	ReportHealthz:      true,
	ReportMetadata:     true,
}

// Check returns an error for thresholds that can never be hit in order.
func (sc StartConfig) Check() error {
	if sc.ReportHealthz && sc.WarnDuration > sc.ErrorDuration {
		return fmt.Errorf("warn_duration (%s) must not exceed error_duration (%s)",
			sc.WarnDuration, sc.ErrorDuration)
	}
	return nil
}

// Validated returns a copy with all values raised to their minimum.
func (sc StartConfig) Validated() StartConfig {
	sc.EvaluationInterval = max(sc.EvaluationInterval, MinEvaluationInterval)
	sc.ErrorDuration = max(sc.ErrorDuration, 0)
	sc.WarnDuration = max(sc.WarnDuration, 0)
	return sc
}
