// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

package intake

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/pagetracker/internal/config"
	"github.com/tomtom215/pagetracker/internal/identity"
	"github.com/tomtom215/pagetracker/internal/logging"
	"github.com/tomtom215/pagetracker/internal/tracker"
)

// maxBodyBytes bounds a POST /queue body.
const maxBodyBytes = 1 << 20

// Dispatcher is the part of tracker.Dispatcher the intake uses.
type Dispatcher interface {
	Push(cmds ...tracker.Command)
	ConsentGranted() bool
	Stats() tracker.Stats
}

// Handler serves the intake routes.
type Handler struct {
	dispatcher Dispatcher
	cookies    identity.CookieRenderer
}

// NewHandler creates the route handlers. cookies may be nil when the
// identity backend keeps no page cookies.
func NewHandler(d Dispatcher, cookies identity.CookieRenderer) *Handler {
	return &Handler{dispatcher: d, cookies: cookies}
}

// NewRouter builds the chi router with the full middleware stack.
func NewRouter(h *Handler, cfg config.IntakeConfig) http.Handler {
	mw := NewMiddleware(MiddlewareConfig{
		CORSAllowedOrigins: cfg.CORSOrigins,
		RateLimitRequests:  cfg.RateLimit,
		RateLimitWindow:    cfg.RateWindow,
	})

	r := chi.NewRouter()
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestMetrics)
	r.Use(mw.CORS())

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(mw.RateLimitByIP())
		r.Post("/queue", h.Queue)
		r.Get("/consent", h.Consent)
		r.Get("/cookies", h.Cookies)
	})

	return r
}

// NewServer creates the HTTP server for cfg.Listen.
func NewServer(h *Handler, cfg config.IntakeConfig) *http.Server {
	return &http.Server{
		Addr:              cfg.Listen,
		Handler:           NewRouter(h, cfg),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// QueueResponse reports how many commands were queued and dropped.
type QueueResponse struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

// Queue decodes one command array or a batch and pushes it in order.
// Malformed arrays are logged and counted, never surfaced as an error.
func (h *Handler) Queue(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		respondError(w, http.StatusBadRequest, "unreadable request body")
		return
	}

	result, err := tracker.DecodeBatch(body)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Rejected non-JSON queue body")
		respondError(w, http.StatusBadRequest, "body must be a JSON command array")
		return
	}

	for _, rejErr := range result.Rejected {
		logging.Ctx(r.Context()).Warn().Err(rejErr).Msg("Dropped malformed command")
	}
	h.dispatcher.Push(result.Commands...)

	respondJSON(w, http.StatusAccepted, QueueResponse{
		Accepted: len(result.Commands),
		Rejected: len(result.Rejected),
	})
}

// Consent reports the current consent flag.
func (h *Handler) Consent(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]bool{"granted": h.dispatcher.ConsentGranted()})
}

// Cookies returns the Set-Cookie lines the page should apply.
func (h *Handler) Cookies(w http.ResponseWriter, r *http.Request) {
	lines := []string{}
	if h.cookies != nil {
		lines = h.cookies.SetCookieHeaders()
	}
	respondJSON(w, http.StatusOK, map[string][]string{"cookies": lines})
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status string        `json:"status"`
	Stats  tracker.Stats `json:"stats"`
}

// Health reports liveness and dispatcher stats.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{Status: "ok", Stats: h.dispatcher.Stats()})
}

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
