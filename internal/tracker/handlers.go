// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

package tracker

import (
	"context"
	"fmt"

	"github.com/tomtom215/pagetracker/internal/identity"
	"github.com/tomtom215/pagetracker/internal/logging"
	"github.com/tomtom215/pagetracker/internal/metrics"
)

func (d *Dispatcher) handleSetConsent(c SetConsent) {
	if c.Malformed {
		metrics.RecordCommand(KindSetConsent, "malformed")
		d.diag.Debug("Ignoring setConsent without a boolean value", c.Raw)
		return
	}

	d.state.Consent = c.Granted
	d.state.Decided = true
	d.consent.Store(c.Granted)

	value := identity.ConsentDenied
	if c.Granted {
		value = identity.ConsentGranted
	}
	d.store.Set(d.opts.Keys.Consent, value, d.opts.TTL)

	metrics.RecordCommand(KindSetConsent, "handled")
	d.diag.Info(fmt.Sprintf("Tracking consent set to: %t", c.Granted))

	if c.Granted && d.state.reloadIdentity(d.store, d.opts.Keys) {
		d.diag.Info("User data loaded from store.", d.state.Identity)
	}
}

func (d *Dispatcher) handleSetAccount(c SetAccount) {
	if c.ID == "" {
		metrics.RecordCommand(KindSetAccount, "malformed")
		metrics.RecordDrop(KindSetAccount, "malformed")
		d.diag.Warn("setAccount dropped", fmt.Errorf("%w: empty account id", ErrMalformedCommand))
		return
	}

	d.state.Identity.AccountID = c.ID
	d.store.Set(d.opts.Keys.Account, c.ID, d.opts.TTL)

	metrics.RecordCommand(KindSetAccount, "handled")
	d.diag.Info("Account set and persisted.", map[string]any{"accountId": c.ID})
}

func (d *Dispatcher) handleTrackEvent(ctx context.Context, c TrackEvent) {
	if c.Attempt < 0 {
		c.Attempt = 0
	}

	if !c.Account.Empty() {
		d.state.applyAccountInfo(c.Account)
		d.store.Set(d.opts.Keys.User, d.state.Identity.UserID, d.opts.TTL)
		d.store.Set(d.opts.Keys.Account, d.state.Identity.AccountID, d.opts.TTL)
		d.diag.Info("Account/user updated and persisted via trackEvent.", d.state.Identity)
	}

	if !d.state.Consent {
		metrics.RecordCommand(KindTrackEvent, "skipped")
		metrics.RecordDrop(KindTrackEvent, "consent")
		d.diag.Info(fmt.Sprintf("Tracking skipped: consent not given for event '%s'", c.Name),
			map[string]any{"eventData": c.Data}, ErrConsentRequired)
		return
	}

	payload := d.eventPayload(c)
	d.diag.Info(fmt.Sprintf("Sending event '%s' data (Attempt %d/%d)", c.Name, c.Attempt+1, d.opts.MaxRetries+1), payload)
	metrics.RecordCommand(KindTrackEvent, "handled")

	d.goSend(ctx, KindTrackEvent, d.opts.EventPath, payload, func(err error) {
		d.eventFailed(ctx, c, err)
	})
}

// eventFailed runs on the send goroutine. Retries go back through the mailbox.
func (d *Dispatcher) eventFailed(ctx context.Context, c TrackEvent, err error) {
	logging.Ctx(ctx).Debug().
		Str("event", c.Name).
		Int("attempt", c.Attempt+1).
		Err(err).
		Msg("Event send failed")

	if ctx.Err() != nil {
		metrics.RecordDrop(KindTrackEvent, "shutdown")
		d.diag.Debug(fmt.Sprintf("Event '%s' dropped at shutdown", c.Name), err)
		return
	}

	if c.Attempt < d.opts.MaxRetries {
		metrics.RecordRetry(KindTrackEvent)
		d.diag.Warn(fmt.Sprintf("Event '%s' tracking failed (Attempt %d), retrying...", c.Name, c.Attempt+1), err)
		retry := c
		retry.Attempt++
		d.Push(retry)
		return
	}

	metrics.RecordDrop(KindTrackEvent, "retries_exhausted")
	d.diag.Error(fmt.Sprintf("Event '%s' permanently failed after %d attempts. Giving up.", c.Name, c.Attempt+1), err)
}

func (d *Dispatcher) handleTrackProduct(ctx context.Context, c TrackProduct) {
	if !d.state.Consent {
		metrics.RecordCommand(KindTrackProduct, "skipped")
		metrics.RecordDrop(KindTrackProduct, "consent")
		d.diag.Info("Product tracking skipped: consent not given", ErrConsentRequired)
		return
	}

	if c.Product.ID == "" {
		metrics.RecordCommand(KindTrackProduct, "malformed")
		metrics.RecordDrop(KindTrackProduct, "malformed")
		d.diag.Warn("Product data incomplete, product not tracked", fmt.Errorf("%w: missing product id", ErrMalformedCommand))
		return
	}

	payload := d.productPayload(c.Product)
	metrics.RecordCommand(KindTrackProduct, "handled")

	d.goSend(ctx, KindTrackProduct, d.opts.ProductPath, payload, func(err error) {
		metrics.RecordDrop(KindTrackProduct, "send_failed")
		d.diag.Error(fmt.Sprintf("Product '%s' tracking failed, not retried.", c.Product.ID), err)
	})
}

func (d *Dispatcher) handleUnknown(c Unknown) {
	metrics.RecordCommand("unknown", "unknown")
	metrics.RecordDrop("unknown", "unknown")
	d.diag.Warn("Unknown method", c.Name, ErrUnknownCommand)
}

// goSend delivers payload from its own goroutine. onFailure runs on that
// goroutine; a panicking sender is logged and not retried.
func (d *Dispatcher) goSend(ctx context.Context, kind, path string, payload map[string]any, onFailure func(error)) {
	d.inFlight.Add(1)
	go func() {
		defer d.inFlight.Add(-1)
		defer func() {
			if r := recover(); r != nil {
				metrics.RecordDrop(kind, "panic")
				logging.Ctx(ctx).Error().Str("kind", kind).Interface("panic", r).Msg("Send panicked")
				d.diag.Error(fmt.Sprintf("Sending '%s' failed and will NOT be retried.", kind), fmt.Sprint(r))
			}
		}()

		resp, err := d.opts.Sender.Send(ctx, path, payload)
		if err != nil {
			onFailure(err)
			return
		}
		d.diag.Info("Server response", resp)
	}()
}
