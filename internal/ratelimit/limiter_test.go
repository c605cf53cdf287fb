package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(t *testing.T) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := New(Options{SweepInterval: -1, Now: clock.Now})
	t.Cleanup(l.Stop)
	return l, clock
}

func TestCheck_ThreeCallsWithLimitTwo(t *testing.T) {
	l, _ := newTestLimiter(t)
	cfg := Config{Max: 2, Window: 60 * time.Second}

	var allowed []bool
	var remaining []int
	for i := 0; i < 3; i++ {
		res := l.Check("login:1.2.3.4:/api/auth/login", cfg)
		allowed = append(allowed, res.Allowed)
		remaining = append(remaining, res.Remaining)
		assert.Equal(t, 2, res.Limit)
	}
	assert.Equal(t, []bool{true, true, false}, allowed)
	assert.Equal(t, []int{1, 0, 0}, remaining)
}

func TestCheck_DeniedAfterMaxThenResetsAfterWindow(t *testing.T) {
	for _, n := range []int{1, 5, 10} {
		l, clock := newTestLimiter(t)
		cfg := Config{Max: n, Window: time.Minute}
		for i := 0; i < n; i++ {
			require.True(t, l.Check("id", cfg).Allowed)
		}
		res := l.Check("id", cfg)
		assert.False(t, res.Allowed)
		assert.Equal(t, 0, res.Remaining)

		clock.Advance(time.Minute)
		res = l.Check("id", cfg)
		assert.True(t, res.Allowed)
		assert.Equal(t, n-1, res.Remaining)
	}
}

func TestCheck_ResetTimeIsFixedWithinWindow(t *testing.T) {
	l, clock := newTestLimiter(t)
	cfg := Config{Max: 3, Window: time.Minute}
	first := l.Check("id", cfg)
	clock.Advance(30 * time.Second)
	second := l.Check("id", cfg)
	assert.Equal(t, first.ResetTime, second.ResetTime)
	assert.Equal(t, clock.Now().Add(30*time.Second), second.ResetTime)
}

func TestCheck_IdentifiersAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(t)
	cfg := Config{Max: 1, Window: time.Minute}
	assert.True(t, l.Check("a", cfg).Allowed)
	assert.False(t, l.Check("a", cfg).Allowed)
	assert.True(t, l.Check("b", cfg).Allowed)
}

func TestSweep_RemovesOnlyExpiredWindows(t *testing.T) {
	l, clock := newTestLimiter(t)
	l.Check("old", Config{Max: 5, Window: time.Minute})
	clock.Advance(45 * time.Second)
	l.Check("new", Config{Max: 5, Window: time.Minute})
	require.Equal(t, 2, l.Len())

	clock.Advance(15 * time.Second)
	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 1, l.Len())

	clock.Advance(time.Hour)
	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 0, l.Len())
}

func TestStop_Idempotent(t *testing.T) {
	l := New(Options{SweepInterval: 5 * time.Millisecond})
	time.Sleep(15 * time.Millisecond)
	l.Stop()
	l.Stop()
}

func TestMiddleware_HeadersAnd429(t *testing.T) {
	l, _ := newTestLimiter(t)
	h := l.Middleware("strict", Config{Max: 1, Window: time.Minute})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	newReq := func() *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		r.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
		return r
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, newReq())
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rr.Header().Get("X-RateLimit-Reset"))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, newReq())
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Contains(t, rr.Body.String(), `"code":"RATE_LIMITED"`)
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))

	// another client is not affected
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	r.Header.Set("X-Real-IP", "10.9.9.9")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/reports/monthly", nil)
	assert.Equal(t, "export:unknown:/api/reports/monthly", Key("export", r))
}
