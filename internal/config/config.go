package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/cadencelabs/cadence/internal/engine"
	"github.com/cadencelabs/cadence/internal/ledger"
	"github.com/cadencelabs/cadence/internal/poller"
	"github.com/cadencelabs/cadence/internal/storage"
	"github.com/cadencelabs/cadence/internal/store"
)

// Config represents the application configuration
type Config struct {
	Storage storage.Config `toml:"storage"`
	Engine  EngineConfig   `toml:"engine"`
	Poller  poller.Config  `toml:"poller"`
	Logging LoggingConfig  `toml:"logging"`
}

// EngineConfig holds recurrence and due-detection policy
type EngineConfig struct {
	// Timezone is the IANA name of the canonical time basis used for
	// recurrence arithmetic, e.g. "UTC" or "America/New_York".
	Timezone string `toml:"timezone"`

	// DueWindow is how long past its next-execution instant a
	// schedule still counts as due. Missed firings beyond it are
	// skipped, not replayed.
	DueWindow time.Duration `toml:"due_window"`

	// StoreCapacity bounds how many schedules are kept; the oldest is
	// evicted when an insertion would exceed it.
	StoreCapacity int `toml:"store_capacity"`

	// HistoryPerSchedule bounds retained execution records per
	// schedule.
	HistoryPerSchedule int `toml:"history_per_schedule"`
}

// Location resolves the configured timezone
func (c EngineConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid engine timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Build converts the TOML-facing engine section into the engine's
// runtime configuration.
func (c EngineConfig) Build() (engine.Config, error) {
	loc, err := c.Location()
	if err != nil {
		return engine.Config{}, err
	}
	return engine.Config{
		DueWindow: c.DueWindow,
		Location:  loc,
	}, nil
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Storage: storage.DefaultConfig(),
		Engine: EngineConfig{
			Timezone:           "UTC",
			DueWindow:          engine.DefaultDueWindow,
			StoreCapacity:      store.DefaultCapacity,
			HistoryPerSchedule: ledger.DefaultMaxPerSchedule,
		},
		Poller: poller.DefaultConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadFromFile loads configuration from a TOML file
func LoadFromFile(path string) (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	// Parse TOML file
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// LoadConfig loads configuration with the following precedence:
// 1. Default values
// 2. Config file (if specified)
// 3. Command-line flags (handled by caller)
func LoadConfig(configPath string) (*Config, error) {
	// If no config file specified, return defaults
	if configPath == "" {
		return DefaultConfig(), nil
	}

	return LoadFromFile(configPath)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Storage validation
	if err := c.Storage.Validate(); err != nil {
		return err
	}

	// Engine validation
	if _, err := c.Engine.Location(); err != nil {
		return err
	}
	if c.Engine.DueWindow < 0 {
		return fmt.Errorf("engine due_window must not be negative")
	}
	if c.Engine.StoreCapacity < 0 {
		return fmt.Errorf("engine store_capacity must not be negative")
	}
	if c.Engine.HistoryPerSchedule < 0 {
		return fmt.Errorf("engine history_per_schedule must not be negative")
	}

	// Poller validation
	if err := c.Poller.Validate(); err != nil {
		return err
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logging.Format)
	}

	return nil
}
