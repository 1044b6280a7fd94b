// Package config provides configuration management for the hedgesim application.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME}).
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the configuration (${VAR} syntax)
	expanded := os.ExpandEnv(string(data))

	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	v.SetEnvPrefix("HEDGESIM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

// applyDefaults fills optional fields the file may omit.
func applyDefaults(cfg *Config) {
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = "info"
	}
	if cfg.Borsdata.TimeoutSeconds == 0 {
		cfg.Borsdata.TimeoutSeconds = 30
	}
	if cfg.Borsdata.RateLimit == 0 {
		cfg.Borsdata.RateLimit = 10.0
	}
	if cfg.Borsdata.CacheTTLSeconds == 0 {
		cfg.Borsdata.CacheTTLSeconds = 900
	}
	if cfg.Borsdata.PrefetchWorkers == 0 {
		cfg.Borsdata.PrefetchWorkers = 4
	}
	if cfg.Backtest.BenchmarkTicker == "" {
		cfg.Backtest.BenchmarkTicker = "OMXS30"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConnections == 0 {
		cfg.Database.MaxConnections = 4
	}
	if cfg.DataSync.Schedule == "" {
		cfg.DataSync.Schedule = "0 6 * * *"
	}
	if cfg.DataSync.HealthPort == "" {
		cfg.DataSync.HealthPort = "8090"
	}
}
