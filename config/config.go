// Package config loads the server configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete server configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Admin       AdminConfig       `yaml:"admin"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
}

// ServerConfig holds the HTTP listener configuration
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig holds database configuration. An empty path keeps all
// state in memory.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AdminConfig holds the privileged login pair
type AdminConfig struct {
	Identifier string `yaml:"identifier"`
	Secret     string `yaml:"secret"`
}

// MaintenanceConfig holds background job timing
type MaintenanceConfig struct {
	FlushInterval     time.Duration `yaml:"-"`
	ActivityRetention time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	FlushIntervalRaw     string `yaml:"flush_interval"`
	ActivityRetentionRaw string `yaml:"activity_retention"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Path: "anistream.db"},
		Admin:    AdminConfig{Identifier: "Shawaiz", Secret: "231980079"},
		Maintenance: MaintenanceConfig{
			FlushInterval:     time.Minute,
			ActivityRetention: 30 * 24 * time.Hour,
		},
	}
}

// Load reads a configuration file from the given path on top of Default.
// Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// Unset variables expand to an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

// Validate checks that the required fields are present
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Admin.Identifier == "" || c.Admin.Secret == "" {
		return fmt.Errorf("admin.identifier and admin.secret are required")
	}
	if c.Maintenance.FlushInterval <= 0 {
		return fmt.Errorf("maintenance.flush_interval must be positive")
	}
	if c.Maintenance.ActivityRetention < 0 {
		return fmt.Errorf("maintenance.activity_retention must not be negative")
	}
	return nil
}

func parseDurations(cfg *Config) error {
	var err error

	if cfg.Maintenance.FlushIntervalRaw != "" {
		cfg.Maintenance.FlushInterval, err = time.ParseDuration(cfg.Maintenance.FlushIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing flush_interval %q: %w", cfg.Maintenance.FlushIntervalRaw, err)
		}
	}

	if cfg.Maintenance.ActivityRetentionRaw != "" {
		cfg.Maintenance.ActivityRetention, err = time.ParseDuration(cfg.Maintenance.ActivityRetentionRaw)
		if err != nil {
			return fmt.Errorf("parsing activity_retention %q: %w", cfg.Maintenance.ActivityRetentionRaw, err)
		}
	}

	return nil
}
