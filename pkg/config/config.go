package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"github.com/srg/peltctl/internal/device"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up under the user config directory.
const FileName = "peltctl/config.yaml"

// Config holds application configuration
type Config struct {
	// LogLevel is debug, info, warn, error or panic (silent).
	LogLevel string `yaml:"log_level" default:"panic"`

	Target     string `yaml:"target" default:"94:51:DC:58:55:6A"`
	TargetName string `yaml:"target_name" default:"LKZ_PELT"`
	Adapter    string `yaml:"adapter" default:"hci0"`

	ScanTimeout          time.Duration `yaml:"scan_timeout" default:"10s"`
	ConnectionCheckDelay time.Duration `yaml:"connection_check_delay" default:"13s"`
	ConnectTimeout       time.Duration `yaml:"connect_timeout" default:"10s"`
	SettleDelay          time.Duration `yaml:"settle_delay" default:"1500ms"`
	PowerOffCheckDelay   time.Duration `yaml:"power_off_check_delay" default:"1s"`
	PollInterval         time.Duration `yaml:"poll_interval" default:"1s"`
	MTU                  int           `yaml:"mtu" default:"512"`

	OutputFormat string `yaml:"output_format" default:"table"` // table, json
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// DefaultPath returns the per-user config file path, or "" when the user
// config directory is unknown.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, FileName)
}

// Load reads path on top of the defaults. An empty path falls back to
// DefaultPath, and a missing default file is not an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// go-defaults only fills zero fields, so file values win.
	defaults.SetDefaults(cfg)
	return cfg, cfg.Validate()
}

// Validate checks the target address, durations and output format.
func (c *Config) Validate() error {
	if err := device.ValidateAddress(c.Target); err != nil {
		return fmt.Errorf("invalid target: %w", err)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}

	durations := map[string]time.Duration{
		"scan_timeout":           c.ScanTimeout,
		"connection_check_delay": c.ConnectionCheckDelay,
		"connect_timeout":        c.ConnectTimeout,
		"settle_delay":           c.SettleDelay,
		"power_off_check_delay":  c.PowerOffCheckDelay,
		"poll_interval":          c.PollInterval,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if c.MTU < minMTU || c.MTU > maxMTU {
		return fmt.Errorf("mtu must be between %d and %d, got %d", minMTU, maxMTU, c.MTU)
	}

	switch c.OutputFormat {
	case "table", "json":
	default:
		return fmt.Errorf("invalid output format: %s (must be table or json)", c.OutputFormat)
	}
	return nil
}

// ATT MTU bounds.
const (
	minMTU = 23
	maxMTU = 517
)

// ParseLogLevel maps debug/info/warn/error/panic to a logrus level.
func ParseLogLevel(s string) (logrus.Level, error) {
	switch s {
	case "debug":
		return logrus.DebugLevel, nil
	case "info":
		return logrus.InfoLevel, nil
	case "warn":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	case "panic", "":
		return logrus.PanicLevel, nil
	default:
		return logrus.PanicLevel, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", s)
	}
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	level, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		level = logrus.PanicLevel
	}
	logger.SetLevel(level)

	// Use structured logging format
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}
