package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimit_AllowsThenBlocks(t *testing.T) {
	h := RateLimit(60, 2, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "1.2.3.4:1234"

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != 200 {
			t.Fatalf("want 200 got %d", rr.Code)
		}
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != 429 {
		t.Fatalf("want 429 got %d", rr.Code)
	}

	// other clients have their own bucket
	other := httptest.NewRequest("GET", "/", nil)
	other.RemoteAddr = "5.6.7.8:1234"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, other)
	if rr.Code != 200 {
		t.Fatalf("want 200 for a different client, got %d", rr.Code)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	h := RateLimit(0, 0, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest("GET", "/", nil)
	for i := 0; i < 100; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != 200 {
			t.Fatalf("request %d: want 200 got %d", i, rr.Code)
		}
	}
}

func TestLimiter_RefillsAndForgets(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := newLimiter(1, 1, time.Minute)
	l.now = func() time.Time { return now }

	if !l.allow("a") {
		t.Fatalf("first request should pass")
	}
	if l.allow("a") {
		t.Fatalf("second request in the same instant should be limited")
	}

	now = now.Add(1100 * time.Millisecond)
	if !l.allow("a") {
		t.Fatalf("request after refill should pass")
	}

	now = now.Add(2 * time.Minute)
	l.allow("b")
	if _, ok := l.m["a"]; ok {
		t.Fatalf("idle visitor should have been swept")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	if got := clientIP(r, true); got != "10.0.0.1" {
		t.Fatalf("clientIP=%s", got)
	}
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientIP(r, true); got != "203.0.113.9" {
		t.Fatalf("clientIP with trusted XFF=%s", got)
	}
	if got := clientIP(r, false); got != "10.0.0.1" {
		t.Fatalf("untrusted XFF must be ignored, got %s", got)
	}
}

func TestRateLimit_ForwardedForRotationDoesNotEvade(t *testing.T) {
	h := RateLimit(60, 1, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for _, xff := range []string{"198.51.100.1", "198.51.100.2", "198.51.100.3"} {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "1.2.3.4:1234"
		req.Header.Set("X-Forwarded-For", xff)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[0] != 200 || codes[1] != 429 || codes[2] != 429 {
		t.Fatalf("rotating X-Forwarded-For should not reset the bucket, got %v", codes)
	}
}

func TestRateLimit_TrustedProxyKeysByForwardedFor(t *testing.T) {
	h := RateLimit(60, 1, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, xff := range []string{"198.51.100.1", "198.51.100.2"} {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "10.0.0.1:1234" // the proxy
		req.Header.Set("X-Forwarded-For", xff)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != 200 {
			t.Fatalf("client %s behind trusted proxy: want 200 got %d", xff, rr.Code)
		}
	}
}
