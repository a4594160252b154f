package mw

import (
	"net/http"
	"strconv"
	"time"

	"github.com/medvoice-ai/medvoice/pkg/core"
	"github.com/medvoice-ai/medvoice/pkg/gateway/auth"
	"github.com/medvoice-ai/medvoice/pkg/gateway/config"
	"github.com/medvoice-ai/medvoice/pkg/gateway/ratelimit"
)

// RateLimit applies the per-principal token bucket and concurrency cap.
// Health endpoints and CORS preflights bypass the limiter entirely.
func RateLimit(cfg config.Config, limiter *ratelimit.Limiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if bypassesLimits(r) {
			next.ServeHTTP(w, r)
			return
		}

		dec := limiter.AcquireRequest(limitPrincipal(r), time.Now())
		if !dec.Allowed {
			writeRateLimited(w, r, dec.RetryAfter)
			return
		}
		if dec.Permit != nil {
			defer dec.Permit.Release()
		}

		next.ServeHTTP(w, r)
	})
}

func bypassesLimits(r *http.Request) bool {
	if r.Method == http.MethodOptions {
		return true
	}
	return r.URL.Path == "/healthz" || r.URL.Path == "/readyz"
}

func limitPrincipal(r *http.Request) string {
	if p, ok := auth.PrincipalFrom(r.Context()); ok {
		return ratelimit.PrincipalKeyFromAPIKey(p.Key())
	}
	return "anonymous"
}

func writeRateLimited(w http.ResponseWriter, r *http.Request, retryAfter int) {
	reqID, _ := RequestIDFrom(r.Context())
	e := &core.Error{
		Type:      core.ErrRateLimit,
		Message:   "rate limit exceeded",
		RequestID: reqID,
	}
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		e.RetryAfter = &retryAfter
	}
	writeJSONError(w, http.StatusTooManyRequests, e)
}
