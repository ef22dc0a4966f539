// Package config provides YAML-based configuration loading for depotctl.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level depotctl configuration, loaded from depot.yaml.
type Config struct {
	PortalURL      string `yaml:"portal_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	StateDB        string `yaml:"state_db"`
	PollInterval   string `yaml:"poll_interval"`
	DashboardPort  int    `yaml:"dashboard_port"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Timeout returns the per-request HTTP timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Poll returns the watch poll interval.
func (c *Config) Poll() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 10
	}
	if c.StateDB == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			c.StateDB = filepath.Join(home, ".depotctl", "state.db")
		}
	}
	if c.PollInterval == "" {
		c.PollInterval = "60s"
	}
	if c.DashboardPort == 0 {
		c.DashboardPort = 8080
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.PortalURL == "" {
		errs = append(errs, "portal_url is required")
	} else if !strings.HasPrefix(c.PortalURL, "http://") && !strings.HasPrefix(c.PortalURL, "https://") {
		errs = append(errs, "portal_url must start with http:// or https://")
	}
	if c.TimeoutSeconds < 0 {
		errs = append(errs, "timeout_seconds must not be negative")
	}
	if c.StateDB == "" {
		errs = append(errs, "state_db is required")
	}
	if _, err := time.ParseDuration(c.PollInterval); err != nil {
		errs = append(errs, fmt.Sprintf("poll_interval %q is not a valid duration", c.PollInterval))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
