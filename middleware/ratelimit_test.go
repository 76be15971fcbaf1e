package middleware

import (
	"io"
	"log/slog"
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

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(1, 2, slog.New(slog.NewTextHandler(io.Discard, nil)))
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }
	handler := rl.Limit(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/tournaments", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// another client has its own bucket
	req := httptest.NewRequest(http.MethodPost, "/tournaments", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// tokens refill over time
	fixed = fixed.Add(2 * time.Second)
	req = httptest.NewRequest(http.MethodPost, "/tournaments", nil)
	req.RemoteAddr = "10.0.0.1:5001"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_ForgetsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	current := start
	rl.now = func() time.Time { return current }

	rl.limiterFor("10.0.0.1")
	assert.Len(t, rl.visitors, 1)

	current = start.Add(limiterIdleTTL + time.Minute)
	rl.limiterFor("10.0.0.2")
	assert.Len(t, rl.visitors, 1)
	_, ok := rl.visitors["10.0.0.2"]
	assert.True(t, ok)
}

func TestRateLimiter_SweepsOnlyOnNewClients(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	current := start
	rl.now = func() time.Time { return current }

	rl.limiterFor("10.0.0.1")
	current = start.Add(time.Minute)
	rl.limiterFor("10.0.0.2")
	assert.Equal(t, start, rl.lastSweep, "no second sweep within the idle window")

	// a known client never triggers a sweep
	current = start.Add(limiterIdleTTL + 2*time.Minute)
	rl.limiterFor("10.0.0.2")
	assert.Len(t, rl.visitors, 2)

	rl.limiterFor("10.0.0.3")
	assert.Len(t, rl.visitors, 2)
	_, idle := rl.visitors["10.0.0.1"]
	assert.False(t, idle)
	_, active := rl.visitors["10.0.0.2"]
	assert.True(t, active)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.5:4321"
	assert.Equal(t, "192.168.1.5", clientIP(req))

	req.RemoteAddr = "no-port"
	assert.Equal(t, "no-port", clientIP(req))
}
