package httpx

import (
	"net/http"
	"strconv"
	"strings"
)

// ClientIP returns the first non-empty X-Forwarded-For entry, then X-Real-IP,
// else "unknown".
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return "unknown"
}

// PageParams reads page/limit query parameters. limit is clamped to
// [1, maxLimit] and falls back to def.
func PageParams(r *http.Request, def, maxLimit int) (page, limit int) {
	page = 1
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			page = n
		}
	}
	limit = def
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// PathID parses a positive integer path value.
func PathID(r *http.Request, name string) (uint, error) {
	raw := r.PathValue(name)
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, BadRequest("INVALID_ID", "Geçersiz kimlik: "+raw)
	}
	return uint(n), nil
}

// WantsJSON reports whether the caller is an API client rather than a browser navigation.
func WantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}
