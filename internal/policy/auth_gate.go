package policy

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/uclergnlts/tav-egitim/auth"
	"github.com/uclergnlts/tav-egitim/gate"
	"github.com/uclergnlts/tav-egitim/httpx"
	"gorm.io/gorm"
)

// AuthGate holds the configured Gate with caching.
// Use this as the central authorization point of the router.
type AuthGate struct {
	Gate          *gate.Gate[uint]
	CacheResolver *gate.CachedResolver[uint]
}

// NewAuthGate creates a gate that resolves users to role profiles from the
// database, caching each lookup for cacheTTL.
func NewAuthGate(db *gorm.DB, cacheTTL time.Duration) *AuthGate {
	cached := gate.NewCachedResolver[uint](NewDBProfileResolver(db), cacheTTL)
	return &AuthGate{
		Gate:          gate.New[uint](cached),
		CacheResolver: cached,
	}
}

// Authorize checks the current session user against resource:action.
func (ag *AuthGate) Authorize(ctx context.Context, action gate.Action, resource string) error {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return gate.ErrUnauthenticated
	}
	return ag.Gate.Authorize(ctx, userID, action, resource)
}

// IsSuperAdmin reports whether the session user's current profile holds
// "*:*". The role comes from the cached database lookup, not the token, so
// a role change applies as soon as the user's cache entry is invalidated.
func (ag *AuthGate) IsSuperAdmin(ctx context.Context) (bool, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return false, httpx.Unauthorized()
	}
	profile, err := ag.CacheResolver.Resolve(ctx, userID)
	if err != nil {
		return false, mapGateError(err)
	}
	return profile != nil && profile.HasPermission(gate.PermissionSuperAdmin), nil
}

// InvalidateUser clears the cache for a specific user.
// Call this when a user's role or state is changed.
func (ag *AuthGate) InvalidateUser(userID uint) {
	ag.CacheResolver.Invalidate(userID)
}

// RequirePermission returns middleware that checks the role profile.
func (ag *AuthGate) RequirePermission(resource string, action gate.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := ag.Authorize(r.Context(), action, resource); err != nil {
				httpx.HandleError(w, r, mapGateError(err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin only lets through users whose profile holds "*:*".
func (ag *AuthGate) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := ag.IsSuperAdmin(r.Context())
			if err != nil {
				httpx.HandleError(w, r, err)
				return
			}
			if !ok {
				httpx.HandleError(w, r, httpx.Forbidden(""))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func mapGateError(err error) error {
	switch {
	case errors.Is(err, gate.ErrUnauthenticated):
		return httpx.Unauthorized()
	case errors.Is(err, gate.ErrForbidden), errors.Is(err, gorm.ErrRecordNotFound):
		// deleted users keep a valid token until expiry
		return httpx.Forbidden("")
	}
	return err
}
