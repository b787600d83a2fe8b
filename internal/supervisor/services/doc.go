// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

// Package services adapts blocking components to suture.Service.
//
// The dispatcher already implements Serve(ctx) error and is added to the
// tree directly; only the HTTP server needs a wrapper to translate
// ListenAndServe/Shutdown into context cancellation.
package services
