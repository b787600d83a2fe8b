// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

/*
Command pagetracker runs the consent-gated page event tracking agent.

The agent queues tracking commands from the page (POST /queue on the intake
server), holds everything except consent changes until the visitor grants
consent, and then delivers events and product views to the collector with a
bounded number of retries.

# Startup order

 1. Configuration: defaults, then the YAML file, then PAGETRACKER_* variables, then flags
 2. Logging: zerolog from the logging section
 3. Identity store: BadgerDB directory or the page's cookie header
 4. Transport: collector client behind a circuit breaker
 5. Diagnostics: local log plus consent-gated forwarding
 6. Page: title and product element read once from --page-file
 7. Dispatcher and intake server under the supervisor tree

# Flags

	--config      path to a YAML config file (also PAGETRACKER_CONFIG)
	--page-url    URL reported with every event
	--page-title  page view label; defaults to the page file's <title>
	--page-file   HTML document to read the title and product element from
	--listen      intake listen address, e.g. 127.0.0.1:8123
	--log-level   trace, debug, info, warn or error

# Example

	export PAGETRACKER_TRANSPORT_ENDPOINT=https://collector.example
	pagetracker --page-file ./product.html --page-url https://shop.example/p/42

	curl -X POST localhost:8123/queue -d '[["setConsent", true], ["trackEvent", "AddToCart", {"sku": "42"}]]'

SIGINT and SIGTERM cancel the supervisor tree; the intake server drains
for supervisor.shutdown_timeout and pending diagnostic forwards are
awaited before exit.
*/
package main
