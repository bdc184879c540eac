package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Check(t *testing.T) {
	assert.NoError(t, DefaultConfig.Check())

	tests := []struct {
		name string
		c    Config
	}{
		{"level", Config{Level: "loud", Format: "human"}},
		{"format", Config{Level: "info", Format: "xml"}},
		{"timestamp", Config{Level: "info", Format: "json", Timestamp: "sometimes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Check()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "log."+tt.name)
		})
	}
}

func TestConfig_Merge(t *testing.T) {
	c := DefaultConfig.Merge(Config{Level: "debug"})
	assert.Equal(t, Config{Level: "debug", Format: "human", Timestamp: "short"}, c)

	c = c.Merge(Config{Format: "json", Timestamp: "disable", File: "/tmp/eixdb.log"})
	assert.Equal(t, Config{Level: "debug", Format: "json", Timestamp: "disable", File: "/tmp/eixdb.log"}, c)

	assert.Equal(t, c, c.Merge(Config{}))
}

func TestConfigureLogger(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)

	require.NoError(t, ConfigureLogger(l, Config{Level: "warning", Format: "json", Timestamp: "disable"}))
	assert.Equal(t, logrus.WarnLevel, l.GetLevel())

	l.Info("hidden")
	l.WithField("component", "index").Warn("shown")
	assert.Equal(t, `{"component":"index","level":"warning","msg":"shown"}`+"\n", buf.String())
}

func TestConfigureLogger_file(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "eixdb.log")
	l := logrus.New()
	require.NoError(t, ConfigureLogger(l, Config{Level: "info", Format: "logfmt", Timestamp: "disable", File: fpath}))
	l.Info("first")
	l.Info("second")

	data, err := os.ReadFile(fpath)
	require.NoError(t, err)
	assert.Equal(t, "level=info msg=first\nlevel=info msg=second\n", string(data))

	err = ConfigureLogger(l, Config{Level: "info", Format: "human", File: filepath.Join(fpath, "sub")})
	assert.Error(t, err)
}

func TestRegisterFlags(t *testing.T) {
	defer func() { FlagConfig = Config{} }()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs.StringVar)
	require.NoError(t, fs.Parse([]string{"--log-level", "debug", "--log-file", "x.log"}))
	assert.Equal(t, Config{Level: "debug", File: "x.log"}, FlagConfig)
}

func TestNamespaceFormatter(t *testing.T) {
	f := &NamespaceFormatter{
		Parent: &logrus.TextFormatter{DisableColors: true, DisableTimestamp: true},
	}
	l := logrus.New()
	e := logrus.NewEntry(l).WithField(ComponentField, "serve")
	e.Message = "Reloaded"
	out, err := f.Format(e)
	require.NoError(t, err)
	assert.Contains(t, string(out), `msg="[serve   ] Reloaded"`)

	e = logrus.NewEntry(l)
	e.Message = "plain"
	out, err = f.Format(e)
	require.NoError(t, err)
	assert.Contains(t, string(out), "msg=plain")
}
