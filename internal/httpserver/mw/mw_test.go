package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sitefleet/platform/internal/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestMatchHost(t *testing.T) {
	tests := []struct {
		host    string
		pattern string
		want    bool
	}{
		{host: "plans.sitefleet.io", pattern: "plans.sitefleet.io", want: true},
		{host: "plans.sitefleet.io", pattern: "*.sitefleet.io", want: true},
		{host: "sitefleet.io", pattern: "*.sitefleet.io", want: false},
		{host: "evilsitefleet.io", pattern: "*.sitefleet.io", want: false},
		{host: "plans.sitefleet.io", pattern: "other.sitefleet.io", want: false},
	}

	for _, tt := range tests {
		if got := matchHost(tt.host, tt.pattern); got != tt.want {
			t.Errorf("matchHost(%q, %q) = %v, want %v", tt.host, tt.pattern, got, tt.want)
		}
	}
}

func TestEnforceHost(t *testing.T) {
	h := EnforceHost([]string{"Plans.Sitefleet.io"}, logger.NewNop())(okHandler)

	tests := []struct {
		host string
		want int
	}{
		{host: "plans.sitefleet.io", want: http.StatusOK},
		{host: "plans.sitefleet.io:8080", want: http.StatusOK},
		{host: "other.example", want: http.StatusForbidden},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/plan/", nil)
		req.Host = tt.host
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("host %q: status = %d, want %d", tt.host, rec.Code, tt.want)
		}
	}
}

func TestEnforceHostPassthrough(t *testing.T) {
	h := EnforceHost(nil, logger.NewNop())(okHandler)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with no allowed hosts", rec.Code)
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		trustProxy bool
		remote     string
		xff        string
		want       int
	}{
		{name: "empty list passes", allowed: nil, remote: "203.0.113.7:4000", want: http.StatusOK},
		{name: "cidr match", allowed: []string{"10.0.0.0/8"}, remote: "10.1.2.3:4000", want: http.StatusOK},
		{name: "exact ip match", allowed: []string{"192.168.1.4"}, remote: "192.168.1.4:4000", want: http.StatusOK},
		{name: "outside range", allowed: []string{"10.0.0.0/8"}, remote: "203.0.113.7:4000", want: http.StatusForbidden},
		{name: "forwarded ignored without trust", allowed: []string{"10.0.0.0/8"}, remote: "203.0.113.7:4000", xff: "10.0.0.1", want: http.StatusForbidden},
		{name: "forwarded used with trust", allowed: []string{"10.0.0.0/8"}, trustProxy: true, remote: "127.0.0.1:4000", xff: "10.0.0.1, 127.0.0.1", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := AllowOnlyCIDRS(tt.allowed, tt.trustProxy, logger.NewNop())(okHandler)
			req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestLimiterBurstThenRefill(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newLimiter(RateLimitConfig{Burst: 3, RefillPerIPPerMin: 60}, now)

	for i := 0; i < 3; i++ {
		ok, remaining, _ := l.allow("10.0.0.1", now)
		if !ok {
			t.Fatalf("request %d rejected inside the burst", i)
		}
		if remaining != 2-i {
			t.Errorf("request %d: remaining = %d, want %d", i, remaining, 2-i)
		}
	}

	ok, _, retry := l.allow("10.0.0.1", now)
	if ok {
		t.Fatal("request beyond the burst was allowed")
	}
	if retry != 1 {
		t.Errorf("retry after = %d, want 1 (one token per second)", retry)
	}

	// other clients keep their own bucket
	if ok, _, _ := l.allow("10.0.0.2", now); !ok {
		t.Error("a second client was limited by the first")
	}

	if ok, _, _ := l.allow("10.0.0.1", now.Add(time.Second)); !ok {
		t.Error("no token refilled after one second")
	}
}

func TestLimiterSweepsIdleClients(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newLimiter(RateLimitConfig{Burst: 1, RefillPerIPPerMin: 1, SweepInterval: time.Minute, IdleTTL: 5 * time.Minute}, now)

	l.allow("10.0.0.1", now)
	l.allow("10.0.0.2", now)
	if l.size() != 2 {
		t.Fatalf("tracked clients = %d, want 2", l.size())
	}

	l.allow("10.0.0.3", now.Add(10*time.Minute))
	if l.size() != 1 {
		t.Errorf("tracked clients after sweep = %d, want 1", l.size())
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimit(RateLimitConfig{Burst: 1, RefillPerIPPerMin: 1})(okHandler)

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/plan/sites", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d", first.Code)
	}
	if first.Header().Get("X-RateLimit-Limit") != "1" {
		t.Errorf("X-RateLimit-Limit = %q", first.Header().Get("X-RateLimit-Limit"))
	}

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/plan/sites", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}
