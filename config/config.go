// Package config implements the YAML config file parser
package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/PowerDNS/eixdb/config/logger"
	"github.com/PowerDNS/eixdb/eix"
	"github.com/PowerDNS/eixdb/index"
	"github.com/PowerDNS/eixdb/status/healthtracker"
	"github.com/PowerDNS/eixdb/status/starttracker"
)

const (
	// DefaultConfigFile is used when no --config flag is given. It may be
	// missing.
	DefaultConfigFile = "eixdb.yaml"

	// DefaultDatabasePath is where eix-update writes its cache
	DefaultDatabasePath = "/var/cache/eix/portage.eix"

	// DefaultIndexPath is the directory of the LMDB index
	DefaultIndexPath = "/var/lib/eixdb"

	// DefaultPollInterval is the interval between reload checks in serve mode
	DefaultPollInterval = time.Minute

	// DefaultMaxConcurrentRequests limits the concurrent API index readers.
	// LMDB allows 126 readers by default.
	DefaultMaxConcurrentRequests = 32
)

// Config is the config root object
type Config struct {
	Database Database      `yaml:"database"`
	Index    Index         `yaml:"index"`
	Storage  Storage       `yaml:"storage"`
	HTTP     HTTP          `yaml:"http"`
	Serve    Serve         `yaml:"serve"`
	Log      logger.Config `yaml:"log"`

	// Set to current version by main
	Version string `yaml:"-"`
}

// Database configures the eix cache file to read
type Database struct {
	// Path is the default cache file, a "blob:" prefix loads it from storage
	Path    string      `yaml:"path"`
	Options eix.Options `yaml:",inline"` // min_version, strict_hints
}

// Index configures the LMDB package index
type Index struct {
	Path    string        `yaml:"path"` // Path to directory holding data.mdb, or mdb file if NoSubdir
	Options index.Options `yaml:"options"`
}

// Storage configures the simpleblob backend for remote cache files
type Storage struct {
	Type    string                 `yaml:"type"`
	Options map[string]interface{} `yaml:"options"`
}

// HTTP configures the HTTP server with Prometheus metrics, status page and
// package API
type HTTP struct {
	Address               string `yaml:"address"` // Address like ":8000"
	MaxConcurrentRequests int    `yaml:"max_concurrent_requests"`
}

// Serve configures the reload loop of the serve command
type Serve struct {
	PollInterval time.Duration              `yaml:"poll_interval"`
	Health       healthtracker.HealthConfig `yaml:"health"`
	Startup      starttracker.StartConfig   `yaml:"startup"`
}

// Check validates a Config instance
func (c Config) Check() error {
	if err := c.Log.Check(); err != nil {
		return err
	}
	if c.Database.Options.MinVersion > eix.CurrentFormatVersion {
		return fmt.Errorf("database.min_version: %d is newer than the newest supported format version %d",
			c.Database.Options.MinVersion, eix.CurrentFormatVersion)
	}
	if c.Index.Path == "" {
		return fmt.Errorf("index.path: no path configured")
	}
	if c.Index.Options.FileMask > 0777 { // decimal 511
		return fmt.Errorf("index.options.file_mask: too large value, possible use of decimal (%d) instead of octal (%#o)",
			c.Index.Options.FileMask, c.Index.Options.FileMask)
	}
	if c.Index.Options.DirMask > 0777 { // decimal 511
		return fmt.Errorf("index.options.dir_mask: too large value, possible use of decimal (%d) instead of octal (%#o)",
			c.Index.Options.DirMask, c.Index.Options.DirMask)
	}
	if c.Storage.Type == "" && len(c.Storage.Options) > 0 {
		return fmt.Errorf("storage.type: options given without a type")
	}
	if c.HTTP.Address != "" {
		if _, _, err := net.SplitHostPort(c.HTTP.Address); err != nil {
			return fmt.Errorf("http.address: %v", err)
		}
	}
	if c.HTTP.MaxConcurrentRequests < 1 {
		return fmt.Errorf("http.max_concurrent_requests: must be at least 1")
	}
	if c.Serve.PollInterval < time.Second {
		return fmt.Errorf("serve.poll_interval: too short interval")
	}
	if err := c.Serve.Health.Check(); err != nil {
		return fmt.Errorf("serve.health: %v", err)
	}
	if err := c.Serve.Startup.Check(); err != nil {
		return fmt.Errorf("serve.startup: %v", err)
	}
	return nil
}

// secretKeys are storage option key fragments whose values are masked
var secretKeys = []string{"secret", "password", "token"}

// String returns the config as a YAML string with passwords masked.
func (c Config) String() string {
	c.Storage.Options = lo.MapEntries(c.Storage.Options,
		func(k string, v interface{}) (string, interface{}) {
			lk := strings.ToLower(k)
			if lo.ContainsBy(secretKeys, func(s string) bool { return strings.Contains(lk, s) }) {
				return k, "***"
			}
			return k, v
		})
	y, err := yaml.Marshal(c)
	if err != nil {
		logrus.Panicf("YAML marshal of config failed: %v", err) // Should never happen
	}
	return string(y)
}

// LoadYAML loads config from YAML. Any set value overwrites any existing value,
// but omitted keys are untouched.
func (c *Config) LoadYAML(yamlContents []byte, expandEnv bool) error {
	if expandEnv {
		yamlContents = []byte(os.ExpandEnv(string(yamlContents)))
	}
	return yaml.UnmarshalStrict(yamlContents, c)
}

// LoadYAMLFile loads config from a YAML file. Any set value overwrites any existing value,
// but omitted keys are untouched.
func (c *Config) LoadYAMLFile(fpath string, expandEnv bool) error {
	contents, err := os.ReadFile(fpath)
	if err != nil {
		return errors.Wrap(err, "open yaml file")
	}
	return c.LoadYAML(contents, expandEnv)
}

// Default returns a Config with default settings
func Default() Config {
	return Config{
		Database: Database{
			Path: DefaultDatabasePath,
			Options: eix.Options{
				MinVersion: eix.CurrentFormatVersion,
			},
		},
		Index: Index{
			Path: DefaultIndexPath,
		},
		HTTP: HTTP{
			MaxConcurrentRequests: DefaultMaxConcurrentRequests,
		},
		Serve: Serve{
			PollInterval: DefaultPollInterval,
			Health:       healthtracker.DefaultHealthConfig,
			Startup:      starttracker.DefaultStartConfig,
		},
		Log: logger.DefaultConfig,
	}
}
