// Package daemon manages the forge daemon lifecycle, state and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all daemon configuration.
type Config struct {
	API       APIConfig       `toml:"api"`
	Hardware  HardwareConfig  `toml:"hardware"`
	Profiles  ProfilesConfig  `toml:"profiles"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// HardwareConfig controls the sysfs and external tool layers.
type HardwareConfig struct {
	// SysfsRoot relocates every sysfs path, for tests and containers.
	// Empty means the real filesystem root.
	SysfsRoot string `toml:"sysfs_root"`

	// SysfsOverrides pins an attribute to an explicit path, bypassing
	// the built-in candidate lists. Keys are attribute names.
	SysfsOverrides map[string]string `toml:"sysfs_overrides"`

	RefreshInterval string `toml:"refresh_interval"`
	ToolTimeout     string `toml:"tool_timeout"`
	DisableTools    bool   `toml:"disable_tools"`
}

// ProfilesConfig controls profile storage.
type ProfilesConfig struct {
	Dir string `toml:"dir"`
}

// TelemetryConfig controls metrics and history recording.
type TelemetryConfig struct {
	Prometheus     bool `toml:"prometheus"`
	History        bool `toml:"history"`
	RetentionHours int  `toml:"retention_hours"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	homeDir := forgeHome()
	return Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 9730,
		},
		Hardware: HardwareConfig{
			RefreshInterval: "2s",
			ToolTimeout:     "5s",
		},
		Profiles: ProfilesConfig{
			Dir: filepath.Join(homeDir, "profiles"),
		},
		Telemetry: TelemetryConfig{
			Prometheus:     true,
			History:        true,
			RetentionHours: 168,
		},
	}
}

// LoadConfig reads config from $FORGE_HOME/config.toml, falling back to
// defaults when no file exists.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(forgeHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the config to $FORGE_HOME/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(forgeHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// RefreshInterval parses the configured sensor refresh interval.
func (c Config) RefreshInterval() time.Duration {
	return parseDuration(c.Hardware.RefreshInterval, 2*time.Second)
}

// ToolTimeout parses the configured external tool timeout.
func (c Config) ToolTimeout() time.Duration {
	return parseDuration(c.Hardware.ToolTimeout, 5*time.Second)
}

// forgeHome returns the forge data directory.
func forgeHome() string {
	if env := os.Getenv("FORGE_HOME"); env != "" {
		return env
	}
	return "/var/lib/forge"
}

// ForgeHome is exported for use by other packages.
func ForgeHome() string {
	return forgeHome()
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
