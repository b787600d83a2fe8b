// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

package config

import (
	"time"
)

// Config holds all agent configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: defaultConfig()
//  2. Config File: optional YAML file (pagetracker.yaml or PAGETRACKER_CONFIG)
//  3. Environment Variables: PAGETRACKER_<SECTION>_<KEY>
//
// Example:
//
//	cfg, err := config.LoadWithKoanf("")
//	if err != nil {
//	    return fmt.Errorf("load configuration: %w", err)
//	}
type Config struct {
	Transport  TransportConfig  `koanf:"transport"`
	Tracking   TrackingConfig   `koanf:"tracking"`
	Identity   IdentityConfig   `koanf:"identity"`
	Intake     IntakeConfig     `koanf:"intake"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// TransportConfig configures delivery to the remote collector.
type TransportConfig struct {
	// Endpoint is the collector base URL; paths below are appended to it.
	Endpoint string `koanf:"endpoint" validate:"required,http_url"`

	// EventPath receives trackEvent payloads.
	// Default: /event
	EventPath string `koanf:"event_path" validate:"required,urlpath"`

	// LogPath receives forwarded diagnostic entries.
	// Default: /js-log
	LogPath string `koanf:"log_path" validate:"required,urlpath"`

	// ProductPath receives trackProduct payloads.
	// Default: /track
	ProductPath string `koanf:"product_path" validate:"required,urlpath"`

	// Timeout bounds every request. A request that exceeds it is a failure
	// and enters the normal retry path.
	// Default: 10s
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// BreakerFailures is the number of consecutive failures that opens the circuit.
	// Default: 5
	BreakerFailures uint32 `koanf:"breaker_failures" validate:"min=1"`

	// BreakerTimeout is how long the circuit stays open before a trial request.
	// Default: 30s
	BreakerTimeout time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
}

// TrackingConfig configures the dispatcher and the page the agent tracks.
type TrackingConfig struct {
	// MaxRetries is the attempt ceiling for trackEvent: a command is sent at
	// most MaxRetries+1 times.
	// Default: 3
	MaxRetries int `koanf:"max_retries" validate:"min=0,max=10"`

	// PageURL is reported as the url field of every event.
	PageURL string `koanf:"page_url"`

	// PageTitle names the page for the automatic PageView. When empty the
	// title is read from PageFile, then the path of PageURL is used.
	PageTitle string `koanf:"page_title"`

	// PageFile is an optional HTML document scraped once at startup for the
	// title and product data attributes.
	PageFile string `koanf:"page_file"`

	// ProductElementID is the id of the element carrying data-product-* attributes.
	// Default: product-data
	ProductElementID string `koanf:"product_element_id"`

	// AutoPageView queues a PageView at startup when consent is already granted.
	// Default: true
	AutoPageView bool `koanf:"auto_page_view"`

	// ForwardLogs forwards diagnostic entries to the collector while consent is granted.
	// Default: true
	ForwardLogs bool `koanf:"forward_logs"`

	// LogRate and LogBurst throttle diagnostic forwarding (entries per
	// second). A LogRate of 0 disables throttling.
	LogRate  float64 `koanf:"log_rate" validate:"gte=0"`
	LogBurst int     `koanf:"log_burst" validate:"min=1"`
}

// IdentityConfig configures the persistent identity store.
type IdentityConfig struct {
	// Backend selects the store: badger (on-disk or in-memory) or cookie.
	// Default: badger
	Backend string `koanf:"backend" validate:"oneof=badger cookie"`

	// Path is the BadgerDB directory.
	Path string `koanf:"path"`

	// InMemory keeps the BadgerDB store in memory (nothing survives a restart).
	InMemory bool `koanf:"in_memory"`

	// TTL is the expiry applied to every persisted entry.
	// Default: 8760h (365 days)
	TTL time.Duration `koanf:"ttl" validate:"gt=0"`

	ConsentKey string `koanf:"consent_key" validate:"required"`
	UserKey    string `koanf:"user_key" validate:"required"`
	AccountKey string `koanf:"account_key" validate:"required"`

	// CookieHeader seeds the cookie backend, in Cookie header form ("a=b; c=d").
	CookieHeader string `koanf:"cookie_header"`
}

// IntakeConfig configures the local HTTP intake.
type IntakeConfig struct {
	Enabled bool   `koanf:"enabled"`
	Listen  string `koanf:"listen" validate:"omitempty,hostname_port"`

	// CORSOrigins lists page origins allowed to push commands.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimit is the per-IP request budget per RateWindow. 0 disables limiting.
	RateLimit  int           `koanf:"rate_limit" validate:"min=0"`
	RateWindow time.Duration `koanf:"rate_window"`
}

// LoggingConfig configures the zerolog output.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format" validate:"oneof=json console"`

	// Caller includes caller file:line in log entries.
	Caller bool `koanf:"caller"`
}

// SupervisorConfig configures the suture supervisor tree.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold" validate:"gt=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff" validate:"gt=0"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}
