// Package config loads the top-level YAML configuration for the antenna
// service, combining the submission pipeline's options with the ambient
// stack's logging, Sentry and admin settings.
package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/mozilla/antenna/breakpad"
	"github.com/mozilla/antenna/crashstorage"
	"github.com/mozilla/antenna/log"
)

// StorageConfig holds the backend-specific settings for whichever class
// breakpad.Config.CrashStorageClass names. Only the fields matching the
// selected class are consulted.
type StorageConfig struct {
	File  FileStorageConfig        `yaml:"file"`
	Redis crashstorage.RedisConfig `yaml:"redis"`
}

// FileStorageConfig configures the filesystem-backed CrashStorage.
type FileStorageConfig struct {
	Dir string `yaml:"dir"`
}

// ThrottlerConfig points at an optional hot-reloadable rule file. When
// RulesPath is empty, the service runs with an ACCEPT-all catch-all rule only.
type ThrottlerConfig struct {
	RulesPath string `yaml:"rules_path"`
}

// ResilienceConfig configures the retry/circuit-breaker wrapper placed
// around the configured storage backend.
type ResilienceConfig struct {
	MaxAttempts       uint    `yaml:"max_attempts"`
	MinRequestsToTrip int     `yaml:"min_requests_to_trip"`
	FailureThreshold  float64 `yaml:"failure_threshold"`
}

// Config is the root configuration document for cmd/antenna.
type Config struct {
	Breakpad   breakpad.Config  `yaml:",inline"`
	Storage    StorageConfig    `yaml:"storage"`
	Throttler  ThrottlerConfig  `yaml:"throttler"`
	Resilience ResilienceConfig `yaml:"resilience"`

	AdminAddr string           `yaml:"admin_addr"`
	LogLevel  log.Level        `yaml:"log_level"`
	Sentry    log.SentryConfig `yaml:"sentry"`
}

// Default returns a Config populated with every contractual default.
func Default() Config {
	return Config{
		Breakpad:  breakpad.DefaultConfig(),
		AdminAddr: "",
		LogLevel:  log.InfoLevel,
		Resilience: ResilienceConfig{
			MaxAttempts:       3,
			MinRequestsToTrip: 10,
			FailureThreshold:  0.5,
		},
	}
}

// Load reads and parses a YAML config file at path, applying defaults for
// anything left unset, and validates it before returning.
//
// Validate failures are fatal (log.Fatalw), matching the
// configuration-failure-at-startup contract: a misconfigured pool size must
// refuse to initialize rather than run in a degraded mode.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: opening %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.Breakpad.Validate()
	return cfg, nil
}
