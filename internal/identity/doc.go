// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

/*
Package identity persists the consent flag and the visitor identifiers
between runs.

Two backends implement Store:
  - BadgerStore: BadgerDB entries written with a TTL, on disk or in memory
  - CookieStore: a site-wide cookie jar seeded from a Cookie header that
    renders Set-Cookie lines for the page

Reads never fail: a missing, expired, or unreadable entry is reported as
absent. Writes never fail either: storage errors are logged and counted.
*/
package identity
