// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

/*
Package intake exposes the dispatcher to pages over HTTP.

Routes:

	POST /queue    one [kind, ...args] array or an array of them -> 202 {"accepted", "rejected"}
	GET  /consent  {"granted": bool}
	GET  /cookies  Set-Cookie lines for the page when the cookie identity backend is used
	GET  /healthz  liveness plus dispatcher stats
	GET  /metrics  Prometheus exposition

Middleware (outermost first): request ID with logging correlation, panic
recovery, request metrics, CORS for the configured page origins, and a
per-IP rate limit.
*/
package intake
