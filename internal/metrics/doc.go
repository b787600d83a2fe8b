// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

/*
Package metrics declares the Prometheus instrumentation of the tracking agent.

All collectors are registered on the default registry through promauto and
exposed by the intake server at GET /metrics.

# Metric Families

  - pagetracker_commands_total{kind,outcome}: dispatcher command outcomes
  - pagetracker_queue_depth: commands held awaiting consent
  - pagetracker_retries_total / pagetracker_drops_total: retry path
  - pagetracker_sends_total{path,result}: collector sends
  - pagetracker_circuit_breaker_state{name}: 0=closed, 1=half-open, 2=open
  - pagetracker_diagnostic_forwards_total{result}: forwarded diagnostics
  - pagetracker_intake_requests_total: intake HTTP traffic
  - pagetracker_identity_operations_total: identity store reads and writes
*/
package metrics
