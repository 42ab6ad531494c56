package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/peltctl/internal/device/goble"
	"github.com/srg/peltctl/pkg/config"
)

var (
	configPath   string
	logLevelFlag string
	verboseFlag  bool
	targetFlag   string
	adapterFlag  string
)

func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/peltctl/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "Debug logging (same as --log-level=debug)")
	cmd.PersistentFlags().StringVar(&targetFlag, "target", "", "Target device address")
	cmd.PersistentFlags().StringVar(&adapterFlag, "adapter", "", "Local adapter (Linux), e.g. hci0")
}

// loadSettings loads the config file and applies the global flags on top.
// --log-level takes precedence over --verbose.
func loadSettings() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	switch {
	case logLevelFlag != "":
		cfg.LogLevel = logLevelFlag
	case verboseFlag:
		cfg.LogLevel = "debug"
	}
	if targetFlag != "" {
		cfg.Target = targetFlag
	}
	if adapterFlag != "" {
		cfg.Adapter = adapterFlag
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := goble.SetAdapter(cfg.Adapter); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configureLogger returns the settings and a logger built from them.
func configureLogger() (*config.Config, *logrus.Logger, error) {
	cfg, err := loadSettings()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, cfg.NewLogger(), nil
}
