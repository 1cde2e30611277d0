package ratelimit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sarithdm/iedc-website-sub000/internal/app/system/ratelimit"
)

func TestLimiterAllow(t *testing.T) {
	l := ratelimit.New(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Error("fourth attempt should be blocked")
	}

	// Other keys have their own windows.
	if !l.Allow("10.0.0.2") {
		t.Error("different key should be unaffected")
	}
}

func TestLimiterWindowExpiry(t *testing.T) {
	l := ratelimit.New(1, 20*time.Millisecond)

	if !l.Allow("k") {
		t.Fatal("first attempt should be allowed")
	}
	if l.Allow("k") {
		t.Fatal("second attempt in window should be blocked")
	}

	time.Sleep(30 * time.Millisecond)
	if !l.Allow("k") {
		t.Error("attempt after window expiry should be allowed")
	}
}

func TestLimiterReset(t *testing.T) {
	l := ratelimit.New(1, time.Minute)

	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("should be blocked before reset")
	}
	l.Reset("k")
	if !l.Allow("k") {
		t.Error("should be allowed after reset")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{name: "remote addr with port", remoteAddr: "203.0.113.7:54321", want: "203.0.113.7"},
		{name: "x-forwarded-for wins", remoteAddr: "10.0.0.1:80", xff: "198.51.100.2, 10.0.0.1", want: "198.51.100.2"},
		{name: "x-real-ip fallback", remoteAddr: "10.0.0.1:80", xri: "198.51.100.9", want: "198.51.100.9"},
		{name: "remote addr without port", remoteAddr: "203.0.113.7", want: "203.0.113.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ratelimit.ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginLimiterAccountThrottle(t *testing.T) {
	ll := ratelimit.NewLoginLimiter()

	req := func(ip string) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		r.RemoteAddr = ip + ":1234"
		return r
	}

	// Spread attempts over IPs so only the per-account window fills.
	for i := 0; i < 5; i++ {
		ip := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4", "10.0.0.5"}[i]
		if ok, reason := ll.Check(req(ip), "Asha@College.EDU"); !ok {
			t.Fatalf("attempt %d blocked: %s", i+1, reason)
		}
	}
	if ok, _ := ll.Check(req("10.0.0.6"), "asha@college.edu"); ok {
		t.Error("sixth attempt for the same account should be blocked")
	}

	ll.ResetAccount("ASHA@college.edu")
	if ok, reason := ll.Check(req("10.0.0.7"), "asha@college.edu"); !ok {
		t.Errorf("attempt after account reset blocked: %s", reason)
	}
}
