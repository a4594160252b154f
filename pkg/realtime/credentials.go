package realtime

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/medvoice-ai/medvoice/pkg/core"
)

// HTTPCredentialSource mints ephemeral session tokens from the gateway's
// session endpoint. The endpoint wraps the provider's session mint and
// returns the nested client secret.
type HTTPCredentialSource struct {
	// URL is the full session endpoint, for example
	// https://gateway.example.com/v1/session.
	URL string

	// AuthToken optionally authenticates the clinician to the gateway.
	AuthToken string

	Client *http.Client
}

type sessionCredential struct {
	ID           string `json:"id"`
	ClientSecret struct {
		Value     string `json:"value"`
		ExpiresAt int64  `json:"expires_at"`
	} `json:"client_secret"`
}

// Ephemeral fetches one short-lived token. A response without a nested
// client secret value is a hard failure; sessions never dial with the
// long-lived key.
func (s *HTTPCredentialSource) Ephemeral(ctx context.Context) (string, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return "", core.NewInvalidRequestError("build credential request: " + err.Error())
	}
	if s.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.AuthToken)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", core.NewConnectionError("credential endpoint", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", core.NewConnectionError("read credential response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", core.NewUpstreamError("credential endpoint returned "+resp.Status, nil)
	}

	var cred sessionCredential
	if err := json.Unmarshal(body, &cred); err != nil {
		return "", core.NewUpstreamError("decode credential response", err)
	}
	if strings.TrimSpace(cred.ClientSecret.Value) == "" {
		return "", core.NewUpstreamError("credential response missing client secret", nil)
	}
	return cred.ClientSecret.Value, nil
}

// HTTPSDPExchanger posts the local offer to the provider's realtime
// endpoint and returns the answer SDP.
type HTTPSDPExchanger struct {
	// BaseURL is the provider API root, for example
	// https://api.openai.com/v1/realtime.
	BaseURL string

	// Model selects the realtime model, passed as a query parameter.
	Model string

	Client *http.Client
}

// Exchange trades offerSDP for the provider's answer using the ephemeral
// token minted for this session.
func (e *HTTPSDPExchanger) Exchange(ctx context.Context, offerSDP, token string) (string, error) {
	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}

	url := e.BaseURL + "?model=" + e.Model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(offerSDP))
	if err != nil {
		return "", core.NewInvalidRequestError("build sdp request: " + err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/sdp")

	resp, err := client.Do(req)
	if err != nil {
		return "", core.NewConnectionError("sdp exchange", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", core.NewConnectionError("read sdp answer", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", core.NewUpstreamError("sdp exchange returned "+resp.Status, nil)
	}

	answer := string(body)
	if strings.TrimSpace(answer) == "" {
		return "", core.NewUpstreamError("empty sdp answer", nil)
	}
	return answer, nil
}
