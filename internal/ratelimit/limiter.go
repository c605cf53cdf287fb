// Package ratelimit implements an in-process fixed-window request limiter.
//
// Each identifier owns one window: the first request (or the first request
// after the window has passed) opens a window of Config.Window length with
// count 1; later requests increment the count and are denied once it
// exceeds Config.Max. Windows reset sharply; state is not shared between
// processes.
package ratelimit

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"github.com/uclergnlts/tav-egitim/internal/metrics"
)

// Config is the limit applied to one identifier.
type Config struct {
	Max    int
	Window time.Duration
}

// Presets used by the router.
var (
	Strict   = Config{Max: 10, Window: time.Minute}
	Standard = Config{Max: 100, Window: time.Minute}
	Generous = Config{Max: 1000, Window: time.Minute}
	Export   = Config{Max: 30, Window: time.Minute}
)

// Result is the outcome of one Check.
type Result struct {
	Allowed   bool
	Remaining int
	Limit     int
	ResetTime time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

// Options configures a Limiter. Zero values pick defaults.
type Options struct {
	SweepInterval time.Duration
	// Now replaces the clock, for tests.
	Now func() time.Time
}

// DefaultSweepInterval is how often expired windows are purged.
const DefaultSweepInterval = time.Minute

// Limiter holds the windows of all identifiers. Create it with New and
// release it with Stop.
type Limiter struct {
	mu    sync.Mutex
	store *cache.Cache
	now   func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New creates a limiter and starts its sweep goroutine. A negative sweep
// interval disables the goroutine; Sweep can still be called directly.
func New(opts Options) *Limiter {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SweepInterval == 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	l := &Limiter{
		// windows expire by the limiter's own clock, so the cache janitor stays off
		store: cache.New(cache.NoExpiration, 0),
		now:   opts.Now,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	if opts.SweepInterval > 0 {
		go l.sweepLoop(opts.SweepInterval)
	} else {
		close(l.done)
	}
	return l
}

// Check records one request for id and reports whether it is allowed.
func (l *Limiter) Check(id string, cfg Config) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	var w *window
	if v, ok := l.store.Get(id); ok {
		w = v.(*window)
	}
	if w == nil || !now.Before(w.resetAt) {
		w = &window{count: 1, resetAt: now.Add(cfg.Window)}
		l.store.Set(id, w, cache.NoExpiration)
		return Result{Allowed: cfg.Max >= 1, Remaining: max(cfg.Max-1, 0), Limit: cfg.Max, ResetTime: w.resetAt}
	}

	w.count++
	if w.count > cfg.Max {
		return Result{Allowed: false, Remaining: 0, Limit: cfg.Max, ResetTime: w.resetAt}
	}
	return Result{Allowed: true, Remaining: cfg.Max - w.count, Limit: cfg.Max, ResetTime: w.resetAt}
}

// Sweep removes windows whose reset time has passed and returns how many
// were removed.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for id, item := range l.store.Items() {
		if w, ok := item.Object.(*window); !ok || !now.Before(w.resetAt) {
			l.store.Delete(id)
			removed++
		}
	}
	metrics.RateLimitEntries.Set(float64(l.store.ItemCount()))
	return removed
}

// Len returns the number of tracked identifiers.
func (l *Limiter) Len() int {
	return l.store.ItemCount()
}

// Stop ends the sweep goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
	<-l.done
}

func (l *Limiter) sweepLoop(interval time.Duration) {
	defer close(l.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := l.Sweep(); n > 0 {
				log.Debug().Int("removed", n).Msg("rate limit windows swept")
			}
		case <-l.stop:
			return
		}
	}
}
