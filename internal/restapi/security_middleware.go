package restapi

import (
	"net/http"

	"ferryboard/internal/appconf"
)

// WithSecurityHeaders wraps the given handler with security headers middleware.
// Strict-Transport-Security is only sent in production.
func (api *RestAPI) WithSecurityHeaders(handler http.Handler) http.Handler {
	hsts := api.Config != nil && api.Config.Env == appconf.Production
	return securityHeaders(handler, hsts)
}

func securityHeaders(next http.Handler, hsts bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("X-Content-Type-Options", "nosniff")
		headers.Set("X-Frame-Options", "DENY")
		headers.Set("Referrer-Policy", "no-referrer")
		headers.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none';")
		// Boards go stale within a minute.
		headers.Set("Cache-Control", "no-store")
		if hsts {
			headers.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		if r.Header.Get("Origin") != "" {
			headers.Set("Access-Control-Allow-Origin", "*")
			headers.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			headers.Set("Access-Control-Allow-Headers", "Content-Type")
			headers.Set("Access-Control-Max-Age", "86400")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
