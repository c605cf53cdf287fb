package gate

import (
	"context"
	"sync"
	"time"
)

// CachedResolver memoises another resolver for ttl so that role checks do
// not hit the database on every request.
type CachedResolver[U comparable] struct {
	inner ProfileResolver[U]
	ttl   time.Duration

	mu      sync.RWMutex
	entries map[U]cachedProfile
}

type cachedProfile struct {
	profile   Profile
	expiresAt time.Time
}

func NewCachedResolver[U comparable](inner ProfileResolver[U], ttl time.Duration) *CachedResolver[U] {
	return &CachedResolver[U]{inner: inner, ttl: ttl, entries: make(map[U]cachedProfile)}
}

// Resolve serves from cache while fresh, otherwise asks the inner resolver.
// Errors are not cached.
func (r *CachedResolver[U]) Resolve(ctx context.Context, subject U) (Profile, error) {
	r.mu.RLock()
	e, ok := r.entries[subject]
	r.mu.RUnlock()
	if ok && time.Now().Before(e.expiresAt) {
		return e.profile, nil
	}

	profile, err := r.inner.Resolve(ctx, subject)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.entries[subject] = cachedProfile{profile: profile, expiresAt: time.Now().Add(r.ttl)}
	r.mu.Unlock()
	return profile, nil
}

// Invalidate drops one subject, e.g. after its role or state changed.
func (r *CachedResolver[U]) Invalidate(subject U) {
	r.mu.Lock()
	delete(r.entries, subject)
	r.mu.Unlock()
}

func (r *CachedResolver[U]) InvalidateAll() {
	r.mu.Lock()
	r.entries = make(map[U]cachedProfile)
	r.mu.Unlock()
}
