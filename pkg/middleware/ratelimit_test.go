package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newLimiter(t *testing.T, rps float64, burst int, trustProxy bool) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(rps, burst, trustProxy, discardLogger())
	t.Cleanup(rl.Close)
	return rl
}

func send(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil)
	req.RemoteAddr = remoteAddr
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRateLimit_RequestsWithinLimit_Pass(t *testing.T) {
	h := newLimiter(t, 10, 10, false).Handler(okHandler())

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, send(h, "192.168.1.1:12345").Code, "request %d should pass", i+1)
	}
}

func TestRateLimit_ExceedingBurst_Returns429(t *testing.T) {
	h := newLimiter(t, 0.001, 3, false).Handler(okHandler())

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, send(h, "10.0.0.1:1").Code)
	}

	rr := send(h, "10.0.0.1:1")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Contains(t, rr.Body.String(), "RATE_LIMITED")
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
}

func TestRateLimit_DifferentIPs_IndependentLimits(t *testing.T) {
	h := newLimiter(t, 0.001, 1, false).Handler(okHandler())

	assert.Equal(t, http.StatusOK, send(h, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, send(h, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusOK, send(h, "10.0.0.2:1").Code)
}

func TestRateLimit_IgnoresForwardedHeaderWithoutTrust(t *testing.T) {
	h := newLimiter(t, 0.001, 1, false).Handler(okHandler())

	req := func(xff string) int {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "10.0.0.9:1"
		r.Header.Set("X-Forwarded-For", xff)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, req("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, req("2.2.2.2"), "spoofed header must not reset the bucket")
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl := newLimiter(t, 1, 1, false)
	now := time.Now()
	rl.now = func() time.Time { return now }

	rl.allow("10.0.0.1")
	assert.Len(t, rl.visitors, 1)

	now = now.Add(rl.ttl + time.Second)
	rl.evictIdle()
	assert.Empty(t, rl.visitors)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	assert.Equal(t, "10.0.0.1", ClientIP(r, false))
	assert.Equal(t, "203.0.113.7", ClientIP(r, true))

	r.Header.Del("X-Forwarded-For")
	r.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", ClientIP(r, true))
}
