// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

package tracker

import (
	"github.com/tomtom215/pagetracker/internal/diagnostics"
	"github.com/tomtom215/pagetracker/internal/identity"
)

// eventPayload builds the trackEvent body. Caller data is merged last and
// wins on key collisions.
func (d *Dispatcher) eventPayload(c TrackEvent) map[string]any {
	payload := map[string]any{
		"eventName":             c.Name,
		"account":               d.state.Identity.AccountID,
		"userId":                d.state.Identity.UserID,
		"email":                 d.state.Identity.Email,
		"cookie_user_id":        nil,
		"cookie_consent_status": identity.ConsentDenied,
		"timestamp":             diagnostics.FormatTimestamp(d.now()),
		"url":                   d.opts.PageURL,
		"retryCount":            c.Attempt,
	}

	if uid, ok := d.store.Get(d.opts.Keys.User); ok && uid != "" {
		payload["cookie_user_id"] = uid
	}
	if status, ok := d.store.Get(d.opts.Keys.Consent); ok && status != "" {
		payload["cookie_consent_status"] = status
	}

	for k, v := range c.Data {
		payload[k] = v
	}
	return payload
}

// productPayload builds the trackProduct body.
func (d *Dispatcher) productPayload(p ProductData) map[string]any {
	return map[string]any{
		"account":         d.state.Identity.AccountID,
		"timestamp":       diagnostics.FormatTimestamp(d.now()),
		"productId":       p.ID,
		"productName":     p.Name,
		"productPrice":    p.Price,
		"productCategory": p.Category,
	}
}
