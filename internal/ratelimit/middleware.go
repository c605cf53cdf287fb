package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/uclergnlts/tav-egitim/httpx"
	"github.com/uclergnlts/tav-egitim/internal/metrics"
)

// Key builds the identifier "{purpose}:{clientIP}:{path}".
func Key(purpose string, r *http.Request) string {
	return purpose + ":" + httpx.ClientIP(r) + ":" + r.URL.Path
}

// Middleware limits requests per client IP and path under cfg. Every
// response carries X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset (unix seconds); denied requests get 429.
func (l *Limiter) Middleware(purpose string, cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := l.Check(Key(purpose, r), cfg)
			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetTime.Unix(), 10))
			if !res.Allowed {
				metrics.RateLimitDenied.WithLabelValues(purpose).Inc()
				retry := int(res.ResetTime.Sub(l.now()).Seconds()) + 1
				h.Set("Retry-After", strconv.Itoa(max(retry, 1)))
				httpx.JSONError(w, http.StatusTooManyRequests, httpx.CodeRateLimited,
					"Çok fazla istek gönderildi, lütfen daha sonra tekrar deneyin", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Passthrough is used when rate limiting is disabled by configuration.
func Passthrough(next http.Handler) http.Handler { return next }
