// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/pagetracker/internal/config"
	"github.com/tomtom215/pagetracker/internal/logging"
	"github.com/tomtom215/pagetracker/internal/metrics"
)

// maxErrorBody caps how much of a failed response is quoted in errors.
const maxErrorBody = 512

var (
	// ErrUnexpectedStatus is returned for any non-2xx response.
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// ErrInvalidResponse is returned when a 2xx body is not a JSON value.
	ErrInvalidResponse = errors.New("invalid response body")

	// ErrCircuitOpen is returned when the breaker rejects a request.
	ErrCircuitOpen = errors.New("circuit breaker open")
)

// Response is the decoded JSON value returned by the collector.
type Response = any

// Sender delivers one payload to a collector path.
type Sender interface {
	Send(ctx context.Context, path string, body any) (Response, error)
}

// Breaker names. Event delivery and diagnostic forwarding use separate
// clients so a failing log path cannot open the breaker for events.
const (
	BreakerCollector   = "collector"
	BreakerDiagnostics = "diagnostics"
)

// Client is the HTTP Sender. It is safe for concurrent use.
type Client struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[Response]
	name       string
}

// New creates a client for cfg.Endpoint whose breaker is reported as name.
//
// Circuit breaker configuration:
//   - Opens after cfg.BreakerFailures consecutive failures
//   - Stays open for cfg.BreakerTimeout, then admits one trial request
func New(name string, cfg config.TransportConfig) *Client {
	return NewWithHTTPClient(name, cfg, &http.Client{Timeout: cfg.Timeout})
}

// NewWithHTTPClient creates a client that sends through httpClient.
func NewWithHTTPClient(name string, cfg config.TransportConfig, httpClient *http.Client) *Client {
	cbName := name
	if cbName == "" {
		cbName = BreakerCollector
	}
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	threshold := cfg.BreakerFailures
	if threshold == 0 {
		threshold = 1
	}

	cb := gobreaker.NewCircuitBreaker[Response](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			shouldTrip := counts.ConsecutiveFailures >= threshold
			if shouldTrip {
				logging.Warn().Str("breaker", cbName).Uint32("consecutive_failures", counts.ConsecutiveFailures).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		timeout:    cfg.Timeout,
		httpClient: httpClient,
		cb:         cb,
		name:       cbName,
	}
}

// Send marshals body, posts it to endpoint+path and decodes the JSON reply.
func (c *Client) Send(ctx context.Context, path string, body any) (Response, error) {
	start := time.Now()

	resp, err := c.cb.Execute(func() (Response, error) {
		return c.post(ctx, path, body)
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordSend(path, "rejected", time.Since(start))
			return nil, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
		}
		metrics.RecordSend(path, "failure", time.Since(start))
		logging.Ctx(ctx).Debug().Str("breaker", c.name).Str("path", path).Err(err).Msg("Collector request failed")
		return nil, err
	}

	metrics.RecordSend(path, "success", time.Since(start))
	return resp, nil
}

// Name returns the breaker name.
func (c *Client) Name() string {
	return c.name
}

// State returns the breaker state name: closed, half-open, or open.
func (c *Client) State() string {
	return stateToString(c.cb.State())
}

func (c *Client) post(ctx context.Context, path string, body any) (Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: post %s returned %d: %s", ErrUnexpectedStatus, path, httpResp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded Response
	if err := json.NewDecoder(httpResp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: post %s: %w", ErrInvalidResponse, path, err)
	}
	return decoded, nil
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
