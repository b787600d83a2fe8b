// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

package tracker

import "errors"

var (
	// ErrMalformedCommand marks a command whose arguments cannot be used.
	ErrMalformedCommand = errors.New("malformed command")

	// ErrConsentRequired marks a send refused because consent is not granted.
	ErrConsentRequired = errors.New("tracking consent required")

	// ErrUnknownCommand marks a command kind the dispatcher does not handle.
	ErrUnknownCommand = errors.New("unknown command")
)
