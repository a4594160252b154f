package mw

import (
	"net/http"
	"strings"

	"github.com/medvoice-ai/medvoice/pkg/gateway/config"
)

const (
	corsAllowedMethods = "GET, POST, OPTIONS"
	corsAllowedHeaders = "Authorization, Content-Type, X-Request-ID, X-MedVoice-Version"
	corsExposedHeaders = "X-Request-ID"
	corsMaxAge         = "600"
)

// CORS handles preflight requests and attaches response headers for
// allowlisted origins. Origins not on the allowlist get no CORS headers at
// all; their preflights are rejected outright.
func CORS(cfg config.Config, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		allowed := originAllowed(cfg, origin)

		if isPreflight(r) {
			if !allowed {
				http.Error(w, "cors preflight not allowed", http.StatusForbidden)
				return
			}
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Vary", "Origin")
			h.Set("Access-Control-Allow-Methods", corsAllowedMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
			h.Set("Access-Control-Max-Age", corsMaxAge)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if allowed {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Vary", "Origin")
			h.Set("Access-Control-Expose-Headers", corsExposedHeaders)
		}
		next.ServeHTTP(w, r)
	})
}

func isPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions &&
		strings.TrimSpace(r.Header.Get("Access-Control-Request-Method")) != ""
}

func originAllowed(cfg config.Config, origin string) bool {
	if origin == "" || len(cfg.CORSAllowedOrigins) == 0 {
		return false
	}
	_, ok := cfg.CORSAllowedOrigins[origin]
	return ok
}
