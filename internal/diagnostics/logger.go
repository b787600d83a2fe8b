// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

package diagnostics

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/pagetracker/internal/logging"
	"github.com/tomtom215/pagetracker/internal/metrics"
	"github.com/tomtom215/pagetracker/internal/transport"
)

// TimestampLayout renders UTC instants with millisecond precision, the
// format the collector expects in every payload.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// messagePrefix tags every local entry.
const messagePrefix = "[PageTracker] "

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Entry is the forwarded form of a diagnostic message.
type Entry struct {
	Message   string `json:"message"`
	Args      []any  `json:"args"`
	Timestamp string `json:"timestamp"`
}

// Options configures a Logger.
type Options struct {
	// Path is the collector path entries are forwarded to.
	Path string

	// Forward enables forwarding while consent is granted.
	Forward bool

	// Rate and Burst configure the forwarding token bucket. Rate 0 disables throttling.
	Rate  float64
	Burst int

	// Local is the local sink. Defaults to the global logger.
	Local *zerolog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Logger writes diagnostic entries locally and forwards them while consent
// is granted. It is safe for concurrent use.
type Logger struct {
	sender  transport.Sender
	path    string
	forward bool
	limiter *rate.Limiter
	local   zerolog.Logger
	now     func() time.Time

	consent atomic.Pointer[func() bool]
	wg      sync.WaitGroup
}

// New creates a Logger that forwards through sender.
func New(sender transport.Sender, opts Options) *Logger {
	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}

	local := logging.WithComponent("pagetracker")
	if opts.Local != nil {
		local = *opts.Local
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Logger{
		sender:  sender,
		path:    opts.Path,
		forward: opts.Forward && sender != nil,
		limiter: rate.NewLimiter(limit, burst),
		local:   local,
		now:     now,
	}
}

// BindConsent sets the consent query consulted before each forward.
// Until it is called nothing is forwarded.
func (l *Logger) BindConsent(granted func() bool) {
	l.consent.Store(&granted)
}

// Debug writes a local-only entry.
func (l *Logger) Debug(msg string, args ...any) {
	l.write(zerolog.DebugLevel, msg, args)
}

// Info writes an entry and forwards it when consent is granted.
func (l *Logger) Info(msg string, args ...any) {
	l.write(zerolog.InfoLevel, msg, args)
	l.forwardEntry(msg, args)
}

// Warn writes a warning and forwards it when consent is granted.
func (l *Logger) Warn(msg string, args ...any) {
	l.write(zerolog.WarnLevel, msg, args)
	l.forwardEntry(msg, args)
}

// Error writes an error entry and forwards it when consent is granted.
func (l *Logger) Error(msg string, args ...any) {
	l.write(zerolog.ErrorLevel, msg, args)
	l.forwardEntry(msg, args)
}

// Close waits for in-flight forwards to finish.
func (l *Logger) Close() {
	l.wg.Wait()
}

func (l *Logger) write(level zerolog.Level, msg string, args []any) {
	metrics.RecordDiagnostic(level.String())

	event := l.local.WithLevel(level)
	if len(args) > 0 {
		event = event.Interface("args", normalizeArgs(args))
	}
	event.Msg(messagePrefix + msg)
}

func (l *Logger) consentGranted() bool {
	fn := l.consent.Load()
	return fn != nil && (*fn)()
}

func (l *Logger) forwardEntry(msg string, args []any) {
	if !l.forward || !l.consentGranted() {
		metrics.RecordDiagnosticForward("skipped")
		return
	}
	if !l.limiter.Allow() {
		metrics.RecordDiagnosticForward("throttled")
		return
	}

	entry := Entry{
		Message:   msg,
		Args:      normalizeArgs(args),
		Timestamp: FormatTimestamp(l.now()),
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if _, err := l.sender.Send(context.Background(), l.path, entry); err != nil {
			metrics.RecordDiagnosticForward("failed")
			l.local.Debug().Err(err).Msg("Log server unreachable")
			return
		}
		metrics.RecordDiagnosticForward("sent")
	}()
}

// normalizeArgs renders errors as their message so they survive JSON encoding.
func normalizeArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		if err, ok := a.(error); ok {
			out[i] = err.Error()
			continue
		}
		out[i] = a
	}
	return out
}
