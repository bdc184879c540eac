package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

var (
	LogLevels     = []string{"trace", "debug", "info", "warning", "error", "fatal"}
	LogFormats    = []string{"human", "logfmt", "json"}
	LogTimestamps = []string{"short", "disable", "full"}
)

// Config configures logging. Logs go to stderr by default, stdout is
// reserved for command output like dumps.
type Config struct {
	Level     string `yaml:"level"`     // One of LogLevels
	Format    string `yaml:"format"`    // One of LogFormats
	Timestamp string `yaml:"timestamp"` // One of LogTimestamps
	File      string `yaml:"file"`      // Append to this file instead of stderr
}

// DefaultConfig defines the default configuration
var DefaultConfig = Config{
	Level:     "info",
	Format:    "human",
	Timestamp: "short",
}

// FlagConfig captures flag values. Unset flags keep their zero value, so
// that Merge only overrides what was given on the command line.
var FlagConfig = Config{}

// StringVarFlagFunc has the signature of pflag's (*FlagSet).StringVar
type StringVarFlagFunc func(p *string, name string, value string, usage string)

// RegisterFlags registers the log flags with given function.
func RegisterFlags(stringVar StringVarFlagFunc) {
	stringVar(&FlagConfig.Level, "log-level", "", "Log level "+
		optionsHelp(DefaultConfig.Level, LogLevels))
	stringVar(&FlagConfig.Format, "log-format", "", "Log format "+
		optionsHelp(DefaultConfig.Format, LogFormats))
	stringVar(&FlagConfig.Timestamp, "log-timestamp", "", "Log timestamp "+
		optionsHelp(DefaultConfig.Timestamp, LogTimestamps))
	stringVar(&FlagConfig.File, "log-file", "", "Append logs to this file instead of stderr")
}

// Check validates a Config instance
func (c Config) Check() error {
	if _, err := logrus.ParseLevel(c.Level); err != nil || !lo.Contains(LogLevels, c.Level) {
		return optionError("level", LogLevels)
	}
	if !lo.Contains(LogFormats, c.Format) {
		return optionError("format", LogFormats)
	}
	if c.Timestamp != "" && !lo.Contains(LogTimestamps, c.Timestamp) {
		return optionError("timestamp", LogTimestamps)
	}
	return nil
}

func optionError(name string, options []string) error {
	return fmt.Errorf("log.%s: must be one of: %s", name, strings.Join(options, ", "))
}

// Merge returns c with all fields overridden that are set in o.
func (c Config) Merge(o Config) Config {
	if o.Level != "" {
		c.Level = o.Level
	}
	if o.Format != "" {
		c.Format = o.Format
	}
	if o.Timestamp != "" {
		c.Timestamp = o.Timestamp
	}
	if o.File != "" {
		c.File = o.File
	}
	return c
}

// Configure configures the standard logrus logger according to Config
func Configure(c Config) error {
	return ConfigureLogger(logrus.StandardLogger(), c)
}

// ConfigureLogger configures the given logger according to Config. The
// Config is expected to have passed Check.
func ConfigureLogger(l *logrus.Logger, c Config) error {
	if c.File != "" {
		f, err := os.OpenFile(c.File, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
		if err != nil {
			return errors.Wrap(err, "open log file")
		}
		l.SetOutput(f)
	}
	if formatter := newFormatter(c); formatter != nil {
		l.SetFormatter(formatter)
	}
	if level, err := logrus.ParseLevel(c.Level); err == nil {
		l.SetLevel(level)
	}
	return nil
}

func newFormatter(c Config) logrus.Formatter {
	noTimestamp := c.Timestamp == "disable"
	fullTimestamp := c.Timestamp == "full"
	switch c.Format {
	case "json":
		return &logrus.JSONFormatter{DisableTimestamp: noTimestamp}
	case "logfmt":
		return &logrus.TextFormatter{
			DisableColors:    true, // this sets logfmt
			DisableTimestamp: noTimestamp,
			FullTimestamp:    fullTimestamp,
		}
	case "human":
		return &NamespaceFormatter{
			Parent: &logrus.TextFormatter{
				DisableColors:    c.File != "",
				DisableTimestamp: noTimestamp,
				FullTimestamp:    fullTimestamp,
			},
		}
	}
	return nil
}

func optionsHelp(def string, options []string) string {
	return fmt.Sprintf("(default: %s; options: %s)", def, strings.Join(options, ", "))
}
