// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Transport.EventPath != "/event" {
		t.Errorf("Transport.EventPath = %q, want /event", cfg.Transport.EventPath)
	}
	if cfg.Transport.LogPath != "/js-log" {
		t.Errorf("Transport.LogPath = %q, want /js-log", cfg.Transport.LogPath)
	}
	if cfg.Transport.Timeout != 10*time.Second {
		t.Errorf("Transport.Timeout = %v, want 10s", cfg.Transport.Timeout)
	}
	if cfg.Tracking.MaxRetries != 3 {
		t.Errorf("Tracking.MaxRetries = %d, want 3", cfg.Tracking.MaxRetries)
	}
	if cfg.Tracking.ProductElementID != "product-data" {
		t.Errorf("Tracking.ProductElementID = %q, want product-data", cfg.Tracking.ProductElementID)
	}
	if cfg.Identity.TTL != 365*24*time.Hour {
		t.Errorf("Identity.TTL = %v, want 8760h", cfg.Identity.TTL)
	}
	if cfg.Identity.ConsentKey != "tracking_consent" || cfg.Identity.UserKey != "_p_uid" || cfg.Identity.AccountKey != "_p_acc" {
		t.Errorf("identity keys = %q/%q/%q", cfg.Identity.ConsentKey, cfg.Identity.UserKey, cfg.Identity.AccountKey)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"PAGETRACKER_TRANSPORT_ENDPOINT", "transport.endpoint"},
		{"PAGETRACKER_TRANSPORT_EVENT_PATH", "transport.event_path"},
		{"PAGETRACKER_TRACKING_MAX_RETRIES", "tracking.max_retries"},
		{"PAGETRACKER_IDENTITY_COOKIE_HEADER", "identity.cookie_header"},
		{"PAGETRACKER_INTAKE_CORS_ORIGINS", "intake.cors_origins"},
		{"PAGETRACKER_LOGGING_LEVEL", "logging.level"},
		{"PAGETRACKER_SUPERVISOR_SHUTDOWN_TIMEOUT", "supervisor.shutdown_timeout"},
		{"PAGETRACKER_CONFIG", ""},
		{"PAGETRACKER_UNKNOWN_KEY", ""},
		{"PAGETRACKER_LOGGING", ""},
		{"PAGETRACKER_LOGGING_", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := envTransformFunc(tt.input); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Run("explicit path must exist", func(t *testing.T) {
		if _, err := findConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Error("expected error for missing explicit config file")
		}
	})

	t.Run("explicit path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.yaml")
		if err := os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		got, err := findConfigFile(path)
		if err != nil {
			t.Fatalf("findConfigFile: %v", err)
		}
		if got != path {
			t.Errorf("findConfigFile = %q, want %q", got, path)
		}
	})

	t.Run("env path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "env.yaml")
		if err := os.WriteFile(path, []byte("{}\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Setenv(ConfigPathEnvVar, path)
		got, err := findConfigFile("")
		if err != nil {
			t.Fatalf("findConfigFile: %v", err)
		}
		if got != path {
			t.Errorf("findConfigFile = %q, want %q", got, path)
		}
	})

	t.Run("nothing found", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv(ConfigPathEnvVar, "")
		got, err := findConfigFile("")
		if err != nil {
			t.Fatalf("findConfigFile: %v", err)
		}
		if got != "" {
			t.Errorf("findConfigFile = %q, want empty", got)
		}
	})
}

func TestLoadWithKoanfEnvVars(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PAGETRACKER_TRANSPORT_ENDPOINT", "https://collector.example.com")
	t.Setenv("PAGETRACKER_TRACKING_MAX_RETRIES", "5")
	t.Setenv("PAGETRACKER_TRANSPORT_TIMEOUT", "2s")
	t.Setenv("PAGETRACKER_INTAKE_CORS_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("PAGETRACKER_IDENTITY_IN_MEMORY", "true")

	cfg, err := LoadWithKoanf("")
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}

	if cfg.Transport.Endpoint != "https://collector.example.com" {
		t.Errorf("Transport.Endpoint = %q", cfg.Transport.Endpoint)
	}
	if cfg.Tracking.MaxRetries != 5 {
		t.Errorf("Tracking.MaxRetries = %d, want 5", cfg.Tracking.MaxRetries)
	}
	if cfg.Transport.Timeout != 2*time.Second {
		t.Errorf("Transport.Timeout = %v, want 2s", cfg.Transport.Timeout)
	}
	if !cfg.Identity.InMemory {
		t.Error("Identity.InMemory should be true")
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.Intake.CORSOrigins) != len(want) {
		t.Fatalf("Intake.CORSOrigins = %v, want %v", cfg.Intake.CORSOrigins, want)
	}
	for i := range want {
		if cfg.Intake.CORSOrigins[i] != want[i] {
			t.Errorf("Intake.CORSOrigins[%d] = %q, want %q", i, cfg.Intake.CORSOrigins[i], want[i])
		}
	}
}

func TestLoadWithKoanfEnvOverridesFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "pagetracker.yaml")
	content := `
transport:
  endpoint: https://file.example.com
  event_path: /collect
tracking:
  max_retries: 1
  page_url: https://shop.example.com/p/1
identity:
  backend: cookie
  cookie_header: "tracking_consent=true; _p_uid=u1"
logging:
  level: debug
  format: console
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PAGETRACKER_TRACKING_MAX_RETRIES", "7")

	cfg, err := LoadWithKoanf(path)
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}

	if cfg.Transport.Endpoint != "https://file.example.com" {
		t.Errorf("Transport.Endpoint = %q", cfg.Transport.Endpoint)
	}
	if cfg.Transport.EventPath != "/collect" {
		t.Errorf("Transport.EventPath = %q, want /collect", cfg.Transport.EventPath)
	}
	if cfg.Transport.LogPath != "/js-log" {
		t.Errorf("Transport.LogPath = %q, want default /js-log", cfg.Transport.LogPath)
	}
	if cfg.Tracking.MaxRetries != 7 {
		t.Errorf("Tracking.MaxRetries = %d, want env override 7", cfg.Tracking.MaxRetries)
	}
	if cfg.Identity.Backend != "cookie" {
		t.Errorf("Identity.Backend = %q, want cookie", cfg.Identity.Backend)
	}
	if cfg.Identity.CookieHeader != "tracking_consent=true; _p_uid=u1" {
		t.Errorf("Identity.CookieHeader = %q", cfg.Identity.CookieHeader)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Logging.Format = %q, want console", cfg.Logging.Format)
	}
}

func TestLoadWithKoanfValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad endpoint", map[string]string{"PAGETRACKER_TRANSPORT_ENDPOINT": "not a url"}},
		{"path without slash", map[string]string{"PAGETRACKER_TRANSPORT_EVENT_PATH": "event"}},
		{"retries too high", map[string]string{"PAGETRACKER_TRACKING_MAX_RETRIES": "11"}},
		{"negative retries", map[string]string{"PAGETRACKER_TRACKING_MAX_RETRIES": "-1"}},
		{"unknown backend", map[string]string{"PAGETRACKER_IDENTITY_BACKEND": "redis"}},
		{"badger without path", map[string]string{"PAGETRACKER_IDENTITY_PATH": ""}},
		{"bad log level", map[string]string{"PAGETRACKER_LOGGING_LEVEL": "loud"}},
		{"bad listen", map[string]string{"PAGETRACKER_INTAKE_LISTEN": "nowhere"}},
		{"zero timeout", map[string]string{"PAGETRACKER_TRANSPORT_TIMEOUT": "0s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadWithKoanf(""); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateCrossField(t *testing.T) {
	cfg := defaultConfig()
	cfg.Identity.Path = ""
	cfg.Identity.InMemory = true
	if err := cfg.Validate(); err != nil {
		t.Errorf("in-memory badger without path should validate: %v", err)
	}

	cfg = defaultConfig()
	cfg.Intake.Enabled = false
	cfg.Intake.Listen = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled intake without listen should validate: %v", err)
	}

	cfg = defaultConfig()
	cfg.Intake.Listen = ""
	if err := cfg.Validate(); err == nil {
		t.Error("enabled intake without listen should fail")
	}

	cfg = defaultConfig()
	cfg.Intake.RateWindow = 0
	if err := cfg.Validate(); err == nil {
		t.Error("rate limit without window should fail")
	}
}
