// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

// Package pageload reads the tracked page once at startup: its title for the
// automatic page view and the product element's data-product-* attributes.
package pageload
