package auth

import (
	"context"
	"net/http"
	"strings"
)

type Principal struct {
	// APIKey is set when the caller authenticated with a static gateway key.
	APIKey string

	// UserID and Email are set when the caller authenticated through WorkOS.
	UserID string
	Email  string
}

// Key returns the stable identity used for rate limiting and logging.
func (p *Principal) Key() string {
	if p == nil {
		return ""
	}
	if p.UserID != "" {
		return p.UserID
	}
	return p.APIKey
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(*Principal)
	return p, ok && p != nil
}

// ParseBearer extracts the bearer token from the Authorization header.
// Empty tokens and non-bearer schemes report false.
func ParseBearer(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(strings.TrimSpace(r.Header.Get("Authorization")), "Bearer ")
	if !ok {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
