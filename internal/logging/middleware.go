package logging

import (
	"net/http"
	"strconv"
	"time"

	"github.com/uclergnlts/tav-egitim/internal/metrics"
)

// RequestIDHeader is read from upstream proxies and echoed on responses.
const RequestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// RouteFunc names the route of a request for metric labels; mux.Handler
// patterns keep label cardinality bounded.
type RouteFunc func(*http.Request) string

// Middleware assigns a request ID, logs one access line per request and
// records request metrics under the route returned by route.
func Middleware(route RouteFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return accessLog(route, next)
	}
}

func accessLog(route RouteFunc, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = NewRequestID()
		}
		w.Header().Set(RequestIDHeader, id)
		r = r.WithContext(ContextWithRequestID(r.Context(), id))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		name := "unmatched"
		if route != nil {
			if p := route(r); p != "" {
				name = p
			}
		}
		metrics.RecordAPIRequest(r.Method, name, strconv.Itoa(rec.status), elapsed)

		ev := Ctx(r.Context()).Info()
		if rec.status >= http.StatusInternalServerError {
			ev = Ctx(r.Context()).Error()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Int("bytes", rec.bytes).
			Dur("duration", elapsed).
			Msg("request")
	})
}
