package auth

import (
	"context"
	"strings"

	"github.com/workos/workos-go/v6/pkg/usermanagement"

	"github.com/medvoice-ai/medvoice/pkg/core"
)

// workosAPI is the slice of the WorkOS user management client the verifier
// needs; tests substitute a scripted implementation.
type workosAPI interface {
	AuthenticateWithRefreshToken(ctx context.Context, opts usermanagement.AuthenticateWithRefreshTokenOpts) (usermanagement.AuthenticateResponse, error)
}

// WorkOSVerifier exchanges dashboard session tokens for clinician identities.
type WorkOSVerifier struct {
	clientID string
	api      workosAPI
}

func NewWorkOSVerifier(apiKey, clientID string) *WorkOSVerifier {
	return &WorkOSVerifier{
		clientID: clientID,
		api:      usermanagement.NewClient(apiKey),
	}
}

// Verify exchanges a WorkOS refresh token for the authenticated user. The
// rotated token pair is discarded; the gateway only needs the identity.
func (v *WorkOSVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	if v == nil || v.api == nil {
		return nil, core.NewAuthenticationError("workos auth not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, core.NewAuthenticationError("missing session token")
	}

	resp, err := v.api.AuthenticateWithRefreshToken(ctx, usermanagement.AuthenticateWithRefreshTokenOpts{
		ClientID:     v.clientID,
		RefreshToken: token,
	})
	if err != nil {
		return nil, core.NewAuthenticationError("invalid session token")
	}
	if resp.User.ID == "" {
		return nil, core.NewAuthenticationError("invalid session token")
	}
	return &Principal{
		UserID: resp.User.ID,
		Email:  resp.User.Email,
	}, nil
}
