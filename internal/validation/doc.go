// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

// Package validation wraps go-playground/validator v10 with a shared,
// lazily-built validator instance and readable error messages.
//
// Struct tags drive the rules:
//
//	type TransportConfig struct {
//	    Endpoint  string        `validate:"required,http_url"`
//	    EventPath string        `validate:"required,urlpath"`
//	    Timeout   time.Duration `validate:"gt=0"`
//	}
//
//	if err := validation.ValidateStruct(&cfg.Transport); err != nil {
//	    return fmt.Errorf("transport: %w", err)
//	}
//
// Custom tags:
//   - urlpath: a non-empty path starting with "/" and containing no query or fragment
package validation
