package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIPMatcher(t *testing.T) {
	m := NewIPMatcher([]string{"10.0.0.0/8", "192.168.1.4", "2001:db8::/32", "not-an-ip", ""})

	tests := []struct {
		ip   string
		want bool
	}{
		{ip: "10.20.30.40", want: true},
		{ip: "192.168.1.4", want: true},
		{ip: "192.168.1.5", want: false},
		{ip: "::ffff:10.0.0.1", want: true},
		{ip: "2001:db8::1", want: true},
		{ip: "garbage", want: false},
	}
	for _, tt := range tests {
		if got := m.Allow(tt.ip); got != tt.want {
			t.Errorf("Allow(%q) = %v, want %v", tt.ip, got, tt.want)
		}
	}

	if !NewIPMatcher(nil).IsEmpty() || !NewIPMatcher([]string{"nope"}).IsEmpty() {
		t.Error("matcher without valid entries should be empty")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{name: "remote addr", remote: "203.0.113.7:4000", want: "203.0.113.7"},
		{name: "ipv6 remote", remote: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "headers ignored", remote: "203.0.113.7:4000", headers: map[string]string{"X-Real-IP": "10.0.0.1"}, want: "203.0.113.7"},
		{name: "cloudflare first", remote: "127.0.0.1:1", trustProxy: true, headers: map[string]string{"CF-Connecting-IP": "198.51.100.2", "X-Forwarded-For": "10.0.0.1"}, want: "198.51.100.2"},
		{name: "left-most forwarded", remote: "127.0.0.1:1", trustProxy: true, headers: map[string]string{"X-Forwarded-For": " 10.0.0.1 , 127.0.0.1"}, want: "10.0.0.1"},
		{name: "real ip", remote: "127.0.0.1:1", trustProxy: true, headers: map[string]string{"X-Real-IP": "10.0.0.9"}, want: "10.0.0.9"},
		{name: "no headers with trust", remote: "127.0.0.1:1", trustProxy: true, want: "127.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := ClientIP(req, tt.trustProxy); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
