// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

/*
Package diagnostics records the agent's own activity.

Every entry is written to the local zerolog sink. While visitor consent is
granted, entries at info level and above are also forwarded to the
collector's log path as {message, args, timestamp}. Forwarding is
best-effort: it runs in its own goroutine, is throttled by a token bucket,
and its failures are only logged locally at debug level.
*/
package diagnostics
