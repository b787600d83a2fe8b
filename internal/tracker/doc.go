// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

/*
Package tracker implements the consent-gated command queue.

Pages submit commands as JSON arrays of the form [kind, ...args]:

	["setConsent", true]
	["setAccount", "acct-42"]
	["trackEvent", "AddToCart", {"sku": "X1"}, {"id": "u-1", "email": "a@example.com"}, 0]
	["trackProduct", {"productId": "42", "productName": "Lamp"}]

DecodeCommand and DecodeBatch turn those arrays into Command values, which
are handed to a Dispatcher with Push.

# Dispatcher

The Dispatcher is a single goroutine (Serve) that owns the queue and the
visitor state. Push only appends to a mailbox and wakes it, so callers never
block and never see an error.

Nothing that reaches the network is processed while consent is not granted.
In that state only setConsent commands are taken from the queue; everything
else keeps its place and is flushed, in order, once consent arrives.

A failed trackEvent is re-pushed with its attempt counter incremented until
the counter reaches the configured ceiling, after which it is dropped. A
panicking command is logged and dropped without retry.
*/
package tracker
