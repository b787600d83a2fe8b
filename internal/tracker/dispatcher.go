// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

package tracker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/tomtom215/pagetracker/internal/diagnostics"
	"github.com/tomtom215/pagetracker/internal/identity"
	"github.com/tomtom215/pagetracker/internal/logging"
	"github.com/tomtom215/pagetracker/internal/metrics"
	"github.com/tomtom215/pagetracker/internal/transport"
)

// Options configures a Dispatcher.
type Options struct {
	Store       identity.Store
	Keys        identity.Keys
	TTL         time.Duration
	Sender      transport.Sender
	Diagnostics *diagnostics.Logger

	EventPath   string
	ProductPath string

	// MaxRetries is the attempt ceiling: a trackEvent is sent at most
	// MaxRetries+1 times.
	MaxRetries int

	// PageURL is reported as the url of every event.
	PageURL string

	// AutoPageView queues a PageView for PageName at construction when
	// consent is already granted.
	AutoPageView bool
	PageName     string

	// Now defaults to time.Now.
	Now func() time.Time
}

// Stats is a point-in-time view of the dispatcher.
type Stats struct {
	QueueDepth int  `json:"queue_depth"`
	Pending    int  `json:"pending"`
	InFlight   int  `json:"in_flight"`
	Draining   bool `json:"draining"`
	Consent    bool `json:"consent"`
}

// Dispatcher owns the command queue and the visitor state. Push may be
// called from any goroutine; everything else happens on the Serve goroutine.
type Dispatcher struct {
	opts  Options
	store identity.Store
	diag  *diagnostics.Logger
	now   func() time.Time

	mailbox *mailbox

	// Owned by the Serve goroutine.
	queue Queue
	state AgentState

	consent  atomic.Bool
	draining atomic.Bool
	depth    atomic.Int64
	inFlight atomic.Int64
}

// New reads the store once to build the starting state. When consent is
// already granted and AutoPageView is set, a PageView is queued first.
func New(opts Options) *Dispatcher {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Diagnostics == nil {
		opts.Diagnostics = diagnostics.New(nil, diagnostics.Options{})
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	d := &Dispatcher{
		opts:    opts,
		store:   opts.Store,
		diag:    opts.Diagnostics,
		now:     opts.Now,
		mailbox: newMailbox(),
		state:   LoadState(opts.Store, opts.Keys),
	}
	d.consent.Store(d.state.Consent)
	d.diag.BindConsent(d.ConsentGranted)

	if d.state.Consent {
		d.diag.Info("Consent granted via stored state.")
		if d.state.Identity != DefaultIdentity() {
			d.diag.Info("User data loaded from store.", d.state.Identity)
		}
		if opts.AutoPageView {
			d.queue.Append(TrackEvent{
				Name: "PageView",
				Data: map[string]any{"page": opts.PageName},
			})
			d.updateDepth()
		}
	} else {
		d.diag.Debug("Consent not granted via stored state. Tracking is paused.")
	}

	return d
}

// Push appends commands to the queue. It never blocks and never fails.
func (d *Dispatcher) Push(cmds ...Command) {
	filtered := cmds[:0:0]
	for _, cmd := range cmds {
		if cmd != nil {
			filtered = append(filtered, cmd)
		}
	}
	if len(filtered) == 0 {
		return
	}
	metrics.CommandsPushed.Add(float64(len(filtered)))
	d.mailbox.post(filtered...)
}

// ConsentGranted reports the current consent flag.
func (d *Dispatcher) ConsentGranted() bool {
	return d.consent.Load()
}

// Stats returns queue and send counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		QueueDepth: int(d.depth.Load()),
		Pending:    d.mailbox.len(),
		InFlight:   int(d.inFlight.Load()),
		Draining:   d.draining.Load(),
		Consent:    d.consent.Load(),
	}
}

// Serve runs the dispatcher until ctx is cancelled. It implements
// suture.Service.
func (d *Dispatcher) Serve(ctx context.Context) error {
	logging.Info().Int("queued", d.queue.Len()).Bool("consent", d.state.Consent).Msg("Dispatcher started")

	// Commands pushed before Serve, and the startup queue, get one drain.
	d.queue.Append(d.mailbox.take()...)
	d.updateDepth()
	d.drain(ctx)

	for {
		select {
		case <-ctx.Done():
			logging.Info().Int("queued", d.queue.Len()).Msg("Dispatcher stopped")
			return ctx.Err()
		case <-d.mailbox.wake:
			d.receive(ctx)
		}
	}
}

// String names the service for the supervisor.
func (d *Dispatcher) String() string {
	return "tracker-dispatcher"
}

// receive applies the append rule to everything waiting in the mailbox:
// drain when a consent decision exists or a setConsent arrived.
func (d *Dispatcher) receive(ctx context.Context) {
	items := d.mailbox.take()
	if len(items) == 0 {
		return
	}

	trigger := d.state.Decided
	for _, cmd := range items {
		if isConsentCommand(cmd) {
			trigger = true
		}
	}

	d.queue.Append(items...)
	d.updateDepth()

	if trigger {
		d.drain(ctx)
	}
}

// drain processes eligible commands until none remain. Once consent is
// decided the head is taken, so commands arriving after a denial reach their
// handler and are dropped there. Before any decision only the first
// setConsent is taken and the rest wait for it.
func (d *Dispatcher) drain(ctx context.Context) {
	d.draining.Store(true)
	defer d.draining.Store(false)

	for {
		var (
			cmd Command
			ok  bool
		)
		if d.state.Decided {
			cmd, ok = d.queue.PopHead()
		} else {
			cmd, ok = d.queue.RemoveFirst(isConsentCommand)
		}
		if !ok {
			return
		}
		d.updateDepth()
		d.dispatch(ctx, cmd)
	}
}

// dispatch runs one command. A panic is logged and the command dropped.
// The command ID travels in ctx to every log line for the command,
// including those of its retries.
func (d *Dispatcher) dispatch(ctx context.Context, cmd Command) {
	kind := metricKind(cmd)
	id := commandID(cmd)
	ctx = logging.ContextWithCommandID(ctx, id)

	defer func() {
		if r := recover(); r != nil {
			metrics.RecordCommand(kind, "panic")
			metrics.RecordDrop(kind, "panic")
			logging.Ctx(ctx).Error().Str("kind", kind).Interface("panic", r).Msg("Command panicked")
			d.diag.Error(fmt.Sprintf("Command '%s' failed and will NOT be retried.", kind), fmt.Sprint(r))
		}
	}()

	logging.Ctx(ctx).Trace().Str("kind", kind).Msg("Processing queue item")

	switch c := cmd.(type) {
	case TrackEvent:
		c.id = id
		d.handleTrackEvent(ctx, c)
	case SetConsent:
		d.handleSetConsent(c)
	case SetAccount:
		d.handleSetAccount(c)
	case TrackProduct:
		d.handleTrackProduct(ctx, c)
	case Unknown:
		d.handleUnknown(c)
	default:
		d.handleUnknown(Unknown{Name: fmt.Sprintf("%T", cmd)})
	}
}

// commandID returns the ID a retried event already carries, or a new one.
func commandID(cmd Command) string {
	if c, ok := cmd.(TrackEvent); ok && c.id != "" {
		return c.id
	}
	return logging.GenerateCommandID()
}

func (d *Dispatcher) updateDepth() {
	n := d.queue.Len()
	d.depth.Store(int64(n))
	metrics.QueueDepth.Set(float64(n))
}
