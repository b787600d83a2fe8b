// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

/*
Package transport posts JSON payloads to the remote collector.

Every request is bounded by the configured timeout and passes through a
gobreaker circuit breaker. A dial error, timeout, non-2xx status, body that
is not JSON, or a request rejected by an open breaker is returned as an
error. Callers decide whether to retry.

	client := transport.New(transport.BreakerCollector, cfg.Transport)
	resp, err := client.Send(ctx, "/event", payload)
*/
package transport
