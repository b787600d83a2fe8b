// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

package identity

import (
	"fmt"
	"time"

	"github.com/tomtom215/pagetracker/internal/config"
)

// Persisted consent values. Anything else reads as not granted.
const (
	ConsentGranted = "granted"
	ConsentDenied  = "denied"
)

// Store is a small key/value store with per-entry expiry.
type Store interface {
	// Get returns the value and true, or "" and false when the entry is
	// absent, expired, or unreadable.
	Get(key string) (string, bool)

	// Set writes value under key for ttl. Errors are logged, not returned.
	Set(key, value string, ttl time.Duration)
}

// Backend is a Store that owns resources.
type Backend interface {
	Store
	Name() string
	Close() error
}

// CookieRenderer is implemented by backends whose state lives in the page.
type CookieRenderer interface {
	SetCookieHeaders() []string
}

// Keys names the three persisted entries.
type Keys struct {
	Consent string
	User    string
	Account string
}

// KeysFromConfig returns the entry names configured in cfg.
func KeysFromConfig(cfg config.IdentityConfig) Keys {
	return Keys{
		Consent: cfg.ConsentKey,
		User:    cfg.UserKey,
		Account: cfg.AccountKey,
	}
}

// Open creates the backend selected by cfg.Backend.
func Open(cfg config.IdentityConfig) (Backend, error) {
	switch cfg.Backend {
	case "badger":
		return OpenBadgerStore(cfg.Path, cfg.InMemory)
	case "cookie":
		return NewCookieStore(cfg.CookieHeader), nil
	default:
		return nil, fmt.Errorf("unknown identity backend %q", cfg.Backend)
	}
}
