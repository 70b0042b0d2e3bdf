package middleware

import (
	"net/http"

	"github.com/pulseboard/pulseboard/internal/api/models"
)

// Content security policies.
const (
	// APIContentSecurityPolicy locks JSON responses down completely.
	APIContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'"

	// AppContentSecurityPolicy lets the dashboard bundle load its own
	// assets and open the health websocket.
	AppContentSecurityPolicy = "default-src 'self'; img-src 'self' data:; style-src 'self' 'unsafe-inline'; connect-src 'self' ws: wss:; frame-ancestors 'none'"
)

var baseSecurityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Strict-Transport-Security", "max-age=31536000; includeSubDomains"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Permissions-Policy", "geolocation=(), camera=(), microphone=()"},
}

// SecurityHeaders sets the standard hardening headers and csp as the
// Content-Security-Policy.
func SecurityHeaders(csp string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, kv := range baseSecurityHeaders {
				h.Set(kv[0], kv[1])
			}
			h.Set("Content-Security-Policy", csp)

			next.ServeHTTP(w, r)
		})
	}
}

// RequireTLS rejects requests a load balancer forwarded over plain HTTP, as
// reported by X-Forwarded-Proto. Exempt paths (platform health probes) are
// always let through.
func RequireTLS(enabled bool, exempt ...string) func(http.Handler) http.Handler {
	skip := make(map[string]bool, len(exempt))
	for _, p := range exempt {
		skip[p] = true
	}

	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			proto := r.Header.Get("X-Forwarded-Proto")
			if proto == "" || proto == "https" || skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			problem := models.NewForbidden(GetRequestID(r.Context()), "HTTPS is required")
			problem.Instance = r.URL.Path
			problem.Write(w)
		})
	}
}
