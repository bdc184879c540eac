package starttracker

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func TestStartTracker(t *testing.T) {
	logger, _ := test.NewNullLogger()
	st := newTracker(StartConfig{
		ErrorDuration: time.Hour,
		WarnDuration:  time.Minute,
		ReportHealthz: true,
	}, "serve", logger)

	assert.False(t, st.Completed())
	assert.NoError(t, st.check())

	st.since.Store(time.Now().Add(-5 * time.Minute))
	assert.ErrorContains(t, st.check(), "initial import pending after 5m0s")

	st.since.Store(time.Now().Add(-2 * time.Hour))
	assert.EqualError(t, st.check(), "initial import pending after 2h0m0s")

	st.SetPassedInitialImport()
	st.SetPassedInitialImport()
	assert.True(t, st.Completed())
	assert.NoError(t, st.check())
}

func TestStartTracker_noReport(t *testing.T) {
	st := newTracker(StartConfig{}, "serve", nil)
	st.since.Store(time.Now().Add(-24 * time.Hour))
	assert.NoError(t, st.check())
	assert.Equal(t, MinEvaluationInterval, st.Config.EvaluationInterval)
}

func TestStartConfig_Check(t *testing.T) {
	assert.NoError(t, DefaultStartConfig.Check())
	sc := StartConfig{ReportHealthz: true, WarnDuration: time.Hour, ErrorDuration: time.Minute}
	assert.ErrorContains(t, sc.Check(), "warn_duration")
	sc.ReportHealthz = false
	assert.NoError(t, sc.Check())
}
