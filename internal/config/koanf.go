// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
var DefaultConfigPaths = []string{
	"pagetracker.yaml",
	"pagetracker.yml",
	"/etc/pagetracker/config.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "PAGETRACKER_CONFIG"

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "PAGETRACKER_"

// defaultConfig returns a Config populated with defaults. Values match the
// behaviour of the page snippet the agent replaces: three retries, 365-day
// cookies, /event and /js-log paths.
func defaultConfig() *Config {
	return &Config{
		Transport: TransportConfig{
			Endpoint:        "http://127.0.0.1:8080",
			EventPath:       "/event",
			LogPath:         "/js-log",
			ProductPath:     "/track",
			Timeout:         10 * time.Second,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Tracking: TrackingConfig{
			MaxRetries:       3,
			ProductElementID: "product-data",
			AutoPageView:     true,
			ForwardLogs:      true,
			LogRate:          5,
			LogBurst:         20,
		},
		Identity: IdentityConfig{
			Backend:    "badger",
			Path:       "pagetracker-identity",
			TTL:        365 * 24 * time.Hour,
			ConsentKey: "tracking_consent",
			UserKey:    "_p_uid",
			AccountKey: "_p_acc",
		},
		Intake: IntakeConfig{
			Enabled:     true,
			Listen:      "127.0.0.1:8123",
			CORSOrigins: []string{},
			RateLimit:   600,
			RateWindow:  time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration with layered sources:
//  1. Defaults
//  2. Config file: path argument, else PAGETRACKER_CONFIG, else DefaultConfigPaths
//  3. Environment variables (highest priority)
func LoadWithKoanf(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath, err := findConfigFile(path)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile resolves the config file. An explicit path must exist;
// the environment and default locations are optional.
func findConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}

	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", nil
}

// sliceConfigPaths are parsed from comma-separated strings when set from the environment.
var sliceConfigPaths = []string{
	"intake.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// configSections are the top-level keys an environment variable may target.
var configSections = map[string]bool{
	"transport":  true,
	"tracking":   true,
	"identity":   true,
	"intake":     true,
	"logging":    true,
	"supervisor": true,
}

// envTransformFunc maps PAGETRACKER_<SECTION>_<KEY> to <section>.<key>.
// Section names contain no underscore, so the first underscore after the
// prefix separates section from key:
//
//   - PAGETRACKER_TRANSPORT_ENDPOINT -> transport.endpoint
//   - PAGETRACKER_TRACKING_MAX_RETRIES -> tracking.max_retries
//   - PAGETRACKER_IDENTITY_COOKIE_HEADER -> identity.cookie_header
//
// Anything else (including PAGETRACKER_CONFIG) maps to "" and is skipped.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok || rest == "" || !configSections[section] {
		return ""
	}
	return section + "." + rest
}
