package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLimiterAllow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewLimiter(Config{Requests: 2, Window: time.Minute}).WithClock(clock.now)

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "clients are counted separately")

	clock.advance(time.Minute)
	assert.True(t, rl.Allow("a"), "a new window resets the count")

	m := rl.GetMetrics()
	assert.Equal(t, int64(1), m.TotalHits)
	assert.Equal(t, int64(2), m.ClientCount)
}

func TestLimiterCleanup(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewLimiter(Config{Requests: 5, Window: time.Minute}).WithClock(clock.now)

	rl.Allow("idle")
	clock.advance(90 * time.Second)
	rl.Allow("active")
	clock.advance(45 * time.Second)

	assert.Equal(t, 1, rl.Cleanup())
	assert.Equal(t, int64(1), rl.GetMetrics().ClientCount)
}

func TestLimiterStartStop(t *testing.T) {
	rl := NewLimiter(Config{CleanupInterval: time.Millisecond})
	rl.Start()
	rl.Start()
	rl.Stop()
	rl.Stop()
}

func TestMiddleware(t *testing.T) {
	rl := NewLimiter(Config{Requests: 1, Window: 30 * time.Second})
	handler := rl.Middleware(func(r *http.Request) string { return r.RemoteAddr }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "30", rr.Header().Get("Retry-After"))
}

func TestMiddlewareCustomOnLimit(t *testing.T) {
	rl := NewLimiter(Config{Requests: 1})
	called := false
	handler := rl.Middleware(
		func(*http.Request) string { return "k" },
		func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusServiceUnavailable)
		},
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for range 2 {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	assert.True(t, called)
}
