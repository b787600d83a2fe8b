// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

package identity

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/pagetracker/internal/logging"
	"github.com/tomtom215/pagetracker/internal/metrics"
)

// CookieStore keeps identity in site-wide cookies. Every write produces a
// cookie with Path=/, Secure and SameSite=Lax that the page applies to its
// document through SetCookieHeaders.
type CookieStore struct {
	mu      sync.RWMutex
	cookies map[string]*http.Cookie
	now     func() time.Time
}

// NewCookieStore seeds a store from a Cookie header value ("a=b; c=d").
// Unparseable pairs are skipped.
func NewCookieStore(header string) *CookieStore {
	s := &CookieStore{
		cookies: make(map[string]*http.Cookie),
		now:     time.Now,
	}

	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		parsed, err := http.ParseCookie(part)
		if err != nil || len(parsed) == 0 {
			logging.Debug().Str("cookie", part).Msg("Skipping unparseable cookie")
			continue
		}
		c := parsed[0]
		c.Path = "/"
		s.cookies[c.Name] = c
	}
	return s
}

// Name returns the backend name.
func (s *CookieStore) Name() string { return "cookie" }

// Get returns the cookie value, treating expired cookies as absent. Values
// are percent-decoded; one that does not decode is returned as stored.
func (s *CookieStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	metrics.RecordIdentityOp(s.Name(), "get", nil)
	c, ok := s.cookies[key]
	if !ok || s.expired(c) {
		return "", false
	}
	if v, err := url.PathUnescape(c.Value); err == nil {
		return v, true
	}
	return c.Value, true
}

// Set writes a cookie expiring ttl from now. The value is percent-encoded so
// any string, including non-ASCII emails, fits the cookie value grammar.
func (s *CookieStore) Set(key, value string, ttl time.Duration) {
	c := &http.Cookie{
		Name:     key,
		Value:    url.PathEscape(value),
		Path:     "/",
		Expires:  s.now().Add(ttl).UTC(),
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
	if err := c.Valid(); err != nil {
		metrics.RecordIdentityOp(s.Name(), "set", err)
		logging.Warn().Err(err).Str("key", key).Msg("Identity cookie rejected")
		return
	}

	s.mu.Lock()
	s.cookies[key] = c
	s.mu.Unlock()
	metrics.RecordIdentityOp(s.Name(), "set", nil)
}

// SetCookieHeaders renders every cookie written or seeded, sorted by name.
func (s *CookieStore) SetCookieHeaders() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.cookies))
	for name := range s.cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, s.cookies[name].String())
	}
	return lines
}

// Close is a no-op; cookies live in the page.
func (s *CookieStore) Close() error { return nil }

func (s *CookieStore) expired(c *http.Cookie) bool {
	return !c.Expires.IsZero() && !s.now().Before(c.Expires)
}
