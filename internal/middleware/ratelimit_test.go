package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func request(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/book-slots", nil)
	req.RemoteAddr = remote
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	h := rl.Limit(okHandler())

	assert.Equal(t, http.StatusOK, request(h, "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, request(h, "10.0.0.1:1001").Code)

	rr := request(h, "10.0.0.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.JSONEq(t, `{"success": false, "message": "Too many requests"}`, rr.Body.String())
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	h := rl.Limit(okHandler())

	assert.Equal(t, http.StatusOK, request(h, "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusTooManyRequests, request(h, "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, request(h, "10.0.0.2:1000").Code)
}

func TestRateLimiter_PrunesIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.getLimiter("10.0.0.1")
	now = now.Add(visitorIdleTimeout + 2*time.Minute)
	rl.getLimiter("10.0.0.2")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.visitors, "10.0.0.1")
	assert.Contains(t, rl.visitors, "10.0.0.2")
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.9:5555"
	assert.Equal(t, "192.168.1.9", clientIP(req))

	req.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", clientIP(req))
}
