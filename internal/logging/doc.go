// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

// Package logging provides the zerolog-based structured logger shared by every
// PageTracker component.
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("kind", "trackEvent").Msg("Command queued")
//	logging.Error().Err(err).Str("path", "/event").Msg("Send failed")
//
// # Component Loggers
//
//	dispatchLog := logging.WithComponent("dispatcher")
//	dispatchLog.Debug().Int("queue_depth", n).Msg("Drain finished")
//
// # Context-Aware Logging
//
// Intake requests and queued commands carry a correlation ID:
//
//	ctx = logging.ContextWithCommandID(ctx, cmdID)
//	logging.Ctx(ctx).Info().Msg("Dispatching")
//
// # slog Adapter
//
// suture reports supervisor events through slog; NewSlogLogger bridges them
// into the zerolog output.
//
// # Testing
//
//	var buf bytes.Buffer
//	logger := logging.NewTestLogger(&buf)
package logging
