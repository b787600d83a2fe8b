// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

/*
Package config provides layered configuration for the tracking agent.

# Configuration Sources

Configuration is loaded with Koanf v2 in increasing priority:
  - Built-in defaults (defaultConfig)
  - An optional YAML file (--config, PAGETRACKER_CONFIG, or pagetracker.yaml)
  - Environment variables named PAGETRACKER_<SECTION>_<KEY>

# Configuration Structure

  - TransportConfig: collector endpoint, paths, timeout, circuit breaker
  - TrackingConfig: retry ceiling, page metadata, diagnostic forwarding
  - IdentityConfig: identity backend, key names, entry TTL
  - IntakeConfig: local HTTP intake listener, CORS, rate limiting
  - LoggingConfig: zerolog level and format
  - SupervisorConfig: suture failure thresholds and shutdown timeout

# Example

	PAGETRACKER_TRANSPORT_ENDPOINT=https://collector.example.com \
	PAGETRACKER_TRACKING_MAX_RETRIES=5 \
	PAGETRACKER_INTAKE_CORS_ORIGINS=https://shop.example.com,https://www.example.com \
	pagetracker --page https://shop.example.com/products/42

# Validation

LoadWithKoanf validates struct tags through the validation package and then
applies cross-field rules (for example, an on-disk badger store needs a path).
*/
package config
