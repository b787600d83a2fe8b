// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

package intake

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/pagetracker/internal/config"
	"github.com/tomtom215/pagetracker/internal/tracker"
)

type fakeDispatcher struct {
	mu      sync.Mutex
	pushed  []tracker.Command
	consent bool
}

func (f *fakeDispatcher) Push(cmds ...tracker.Command) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed = append(f.pushed, cmds...)
}

func (f *fakeDispatcher) ConsentGranted() bool { return f.consent }

func (f *fakeDispatcher) Stats() tracker.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return tracker.Stats{QueueDepth: len(f.pushed), Consent: f.consent}
}

type fakeCookies []string

func (c fakeCookies) SetCookieHeaders() []string { return c }

func testIntakeConfig() config.IntakeConfig {
	return config.IntakeConfig{
		Enabled:     true,
		Listen:      "127.0.0.1:0",
		CORSOrigins: []string{"https://shop.example"},
		RateLimit:   0,
		RateWindow:  time.Minute,
	}
}

func newTestRouter(d *fakeDispatcher, cookies fakeCookies, cfg config.IntakeConfig) http.Handler {
	var h *Handler
	if cookies != nil {
		h = NewHandler(d, cookies)
	} else {
		h = NewHandler(d, nil)
	}
	return NewRouter(h, cfg)
}

func TestQueue(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantStatus   int
		wantAccepted int
		wantRejected int
		wantKinds    []string
	}{
		{
			name:         "single command",
			body:         `["trackEvent", "PageView", {"page": "/"}]`,
			wantStatus:   http.StatusAccepted,
			wantAccepted: 1,
			wantKinds:    []string{tracker.KindTrackEvent},
		},
		{
			name:         "batch keeps order",
			body:         `[["setConsent", true], ["setAccount", "42"], ["trackEvent", "Buy"]]`,
			wantStatus:   http.StatusAccepted,
			wantAccepted: 3,
			wantKinds:    []string{tracker.KindSetConsent, tracker.KindSetAccount, tracker.KindTrackEvent},
		},
		{
			name:         "malformed element counted",
			body:         `[["trackEvent", 7], ["setConsent", false]]`,
			wantStatus:   http.StatusAccepted,
			wantAccepted: 1,
			wantRejected: 1,
			wantKinds:    []string{tracker.KindSetConsent},
		},
		{
			name:         "non-array JSON rejected",
			body:         `{"kind": "trackEvent"}`,
			wantStatus:   http.StatusAccepted,
			wantRejected: 1,
		},
		{
			name:       "not JSON",
			body:       `trackEvent(PageView)`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDispatcher{}
			router := newTestRouter(d, nil, testIntakeConfig())

			req := httptest.NewRequest(http.MethodPost, "/queue", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusAccepted {
				if len(d.pushed) != 0 {
					t.Errorf("pushed %d commands on error", len(d.pushed))
				}
				return
			}

			var resp QueueResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Accepted != tt.wantAccepted || resp.Rejected != tt.wantRejected {
				t.Errorf("response = %+v, want accepted=%d rejected=%d", resp, tt.wantAccepted, tt.wantRejected)
			}
			if len(d.pushed) != len(tt.wantKinds) {
				t.Fatalf("pushed %d commands, want %d", len(d.pushed), len(tt.wantKinds))
			}
			for i, kind := range tt.wantKinds {
				if got := d.pushed[i].Kind(); got != kind {
					t.Errorf("pushed[%d] kind = %q, want %q", i, got, kind)
				}
			}
		})
	}
}

func TestQueueBodyTooLarge(t *testing.T) {
	d := &fakeDispatcher{}
	router := newTestRouter(d, nil, testIntakeConfig())

	body := `["trackEvent", "` + strings.Repeat("x", maxBodyBytes) + `"]`
	req := httptest.NewRequest(http.MethodPost, "/queue", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestConsent(t *testing.T) {
	for _, granted := range []bool{true, false} {
		d := &fakeDispatcher{consent: granted}
		router := newTestRouter(d, nil, testIntakeConfig())

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/consent", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp map[string]bool
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp["granted"] != granted {
			t.Errorf("granted = %v, want %v", resp["granted"], granted)
		}
	}
}

func TestCookies(t *testing.T) {
	tests := []struct {
		name    string
		cookies fakeCookies
		want    int
	}{
		{name: "no renderer", cookies: nil, want: 0},
		{name: "renderer", cookies: fakeCookies{"_p_uid=u1; Path=/", "tracking_consent=granted; Path=/"}, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeDispatcher{}, tt.cookies, testIntakeConfig())

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cookies", nil))

			var resp map[string][]string
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			lines, ok := resp["cookies"]
			if !ok {
				t.Fatal("response has no cookies field")
			}
			if len(lines) != tt.want {
				t.Errorf("len(cookies) = %d, want %d", len(lines), tt.want)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	d := &fakeDispatcher{consent: true}
	d.Push(tracker.SetAccount{ID: "1"})
	router := newTestRouter(d, nil, testIntakeConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || !resp.Stats.Consent || resp.Stats.QueueDepth != 1 {
		t.Errorf("health = %+v", resp)
	}
}

func TestRequestIDHeader(t *testing.T) {
	router := newTestRouter(&fakeDispatcher{}, nil, testIntakeConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("expected generated X-Request-Id")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "page-123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-Id"); got != "page-123" {
		t.Errorf("X-Request-Id = %q, want page-123", got)
	}
}

func TestCORS(t *testing.T) {
	router := newTestRouter(&fakeDispatcher{}, nil, testIntakeConfig())

	tests := []struct {
		origin string
		want   string
	}{
		{origin: "https://shop.example", want: "https://shop.example"},
		{origin: "https://evil.example", want: ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodOptions, "/queue", nil)
		req.Header.Set("Origin", tt.origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("origin %s: Allow-Origin = %q, want %q", tt.origin, got, tt.want)
		}
	}
}

func TestRateLimitByIP(t *testing.T) {
	cfg := testIntakeConfig()
	cfg.RateLimit = 2
	router := newTestRouter(&fakeDispatcher{}, nil, cfg)

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/consent", nil)
		req.RemoteAddr = "192.0.2.10:5000"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want %d", last, http.StatusTooManyRequests)
	}

	// health is outside the limited group
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "192.0.2.10:5000"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("healthz status = %d", rec.Code)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(&fakeDispatcher{}, nil, testIntakeConfig())

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/consent", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "pagetracker_intake_requests_total") {
		t.Error("metrics output missing intake request counter")
	}
}

func TestNewServer(t *testing.T) {
	cfg := testIntakeConfig()
	srv := NewServer(NewHandler(&fakeDispatcher{}, nil), cfg)
	if srv.Addr != cfg.Listen {
		t.Errorf("Addr = %q, want %q", srv.Addr, cfg.Listen)
	}
	if srv.ReadHeaderTimeout == 0 {
		t.Error("ReadHeaderTimeout not set")
	}
}
