// Package daemon manages the cpupd daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all daemon configuration.
type Config struct {
	API       APIConfig       `toml:"api"`
	Topology  TopologyConfig  `toml:"topology"`
	Platform  PlatformConfig  `toml:"platform"`
	Admission AdmissionConfig `toml:"admission"`
	Journal   JournalConfig   `toml:"journal"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// TopologyConfig selects the domain hierarchy description. File wins
// over Preset when both are set.
type TopologyConfig struct {
	File   string `toml:"file"`
	Preset string `toml:"preset"`
}

// PlatformConfig selects the power callback backend. "noop" succeeds
// silently; "log" logs every transition.
type PlatformConfig struct {
	Backend string `toml:"backend"`
}

// AdmissionConfig seeds the runtime latency tolerance.
type AdmissionConfig struct {
	ToleranceUs int64 `toml:"tolerance_us"`
}

// JournalConfig controls the transition journal.
type JournalConfig struct {
	Enabled       bool   `toml:"enabled"`
	Dir           string `toml:"dir"`
	RetentionDays int    `toml:"retention_days"`
}

// TelemetryConfig controls observability endpoints.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	homeDir := cpupdHome()
	return Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8090,
		},
		Topology: TopologyConfig{
			Preset: "juno",
		},
		Platform: PlatformConfig{
			Backend: "noop",
		},
		Admission: AdmissionConfig{
			ToleranceUs: 0, // power-down forbidden until raised
		},
		Journal: JournalConfig{
			Enabled:       true,
			Dir:           filepath.Join(homeDir, "journal"),
			RetentionDays: 30,
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
	}
}

// LoadConfig reads config from ~/.cpupd/config.toml, falling back to
// defaults when the file does not exist.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(cpupdHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the config to ~/.cpupd/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(cpupdHome(), "config.toml")
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

// cpupdHome returns the cpupd data directory.
func cpupdHome() string {
	if env := os.Getenv("CPUPD_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cpupd")
}

// CpupdHome is exported for use by other packages.
func CpupdHome() string {
	return cpupdHome()
}
