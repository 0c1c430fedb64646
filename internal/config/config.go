// Package config loads the fivenine CLI settings. Values are layered:
// built-in defaults, then an optional YAML file, then FIVENINE_*
// environment variables. Command-line flags are applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvEntityID      = "FIVENINE_ENTITY_ID"
	EnvDeviceID      = "FIVENINE_DEVICE_ID"
	EnvLogURLBase    = "FIVENINE_LOG_URL_BASE"
	EnvTimeout       = "FIVENINE_TIMEOUT"
	EnvJournalPath   = "FIVENINE_JOURNAL_PATH"
	EnvJournalMaxAge = "FIVENINE_JOURNAL_MAX_AGE"
)

type Config struct {
	EntityID      string        `yaml:"entity_id"`
	DeviceID      string        `yaml:"device_id"`
	LogURLBase    string        `yaml:"log_url_base"`
	Timeout       time.Duration `yaml:"timeout"`
	JournalPath   string        `yaml:"journal_path"`
	JournalMaxAge time.Duration `yaml:"journal_max_age"`
}

func Default() Config {
	return Config{
		Timeout: 10 * time.Second,
	}
}

// Load returns the defaults overlaid with the YAML file at path (skipped
// when path is empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.EntityID = getString(EnvEntityID, c.EntityID)
	c.DeviceID = getString(EnvDeviceID, c.DeviceID)
	c.LogURLBase = getString(EnvLogURLBase, c.LogURLBase)
	c.JournalPath = getString(EnvJournalPath, c.JournalPath)

	var err error
	if c.Timeout, err = getDuration(EnvTimeout, c.Timeout); err != nil {
		return err
	}
	if c.JournalMaxAge, err = getDuration(EnvJournalMaxAge, c.JournalMaxAge); err != nil {
		return err
	}
	return nil
}

// Validate checks the settings needed to send events.
func (c Config) Validate() error {
	var errs []error
	if c.EntityID == "" {
		errs = append(errs, errors.New("config: entity ID is not set"))
	}
	if c.Timeout < 0 {
		errs = append(errs, errors.New("config: timeout must not be negative"))
	}
	return errors.Join(errs...)
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
