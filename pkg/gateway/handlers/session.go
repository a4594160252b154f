package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/medvoice-ai/medvoice/pkg/core"
	"github.com/medvoice-ai/medvoice/pkg/gateway/auth"
	"github.com/medvoice-ai/medvoice/pkg/gateway/config"
	"github.com/medvoice-ai/medvoice/pkg/gateway/mw"
	"github.com/medvoice-ai/medvoice/pkg/store"
)

const maxUpstreamResponseBytes = 1 << 20

// SessionHandler mints ephemeral realtime credentials. The server API key
// stays on this side; the browser only ever sees the short-lived secret.
type SessionHandler struct {
	Config     config.Config
	HTTPClient *http.Client
	Logger     *slog.Logger
	Store      *store.Store
}

type clientSecret struct {
	Value     string `json:"value"`
	ExpiresAt int64  `json:"expires_at"`
}

type mintResponse struct {
	ID           string       `json:"id"`
	Model        string       `json:"model"`
	ClientSecret clientSecret `json:"client_secret"`
}

// sessionResponse is the upstream mint plus the local session id used by the
// transcripts and notes endpoints.
type sessionResponse struct {
	mintResponse
	SessionID uuid.UUID `json:"session_id"`
}

func (h SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())

	// The session client fetches with GET; dashboards POST. Both mint.
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		methodNotAllowed(w, reqID, http.MethodGet, http.MethodPost)
		return
	}
	if h.Config.OpenAIAPIKey == "" {
		writeError(w, reqID, core.NewUpstreamError("realtime upstream not configured", nil))
		return
	}

	body, err := json.Marshal(map[string]string{
		"model": h.Config.RealtimeModel,
		"voice": h.Config.RealtimeVoice,
	})
	if err != nil {
		writeError(w, reqID, err)
		return
	}

	url := strings.TrimSuffix(h.Config.RealtimeBaseURL, "/") + "/v1/realtime/sessions"
	upReq, err := http.NewRequestWithContext(r.Context(), http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		writeError(w, reqID, err)
		return
	}
	upReq.Header.Set("Authorization", "Bearer "+h.Config.OpenAIAPIKey)
	upReq.Header.Set("Content-Type", "application/json")

	client := h.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(upReq)
	if err != nil {
		writeError(w, reqID, core.NewConnectionError("mint realtime session", err))
		return
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamResponseBytes))
	if err != nil {
		writeError(w, reqID, core.NewConnectionError("read mint response", err))
		return
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		h.logf("mint rejected", "status", resp.StatusCode)
		writeError(w, reqID, core.NewUpstreamError(fmt.Sprintf("mint realtime session: status %d", resp.StatusCode), nil))
		return
	}

	var mint mintResponse
	if err := json.Unmarshal(raw, &mint); err != nil {
		writeError(w, reqID, core.NewUpstreamError("decode mint response", err))
		return
	}
	if mint.ClientSecret.Value == "" {
		writeError(w, reqID, core.NewUpstreamError("mint response missing client secret", nil))
		return
	}

	principal := ""
	if p, ok := auth.PrincipalFrom(r.Context()); ok {
		principal = p.Key()
	}
	sessionID := uuid.New()
	if err := h.Store.CreateSession(r.Context(), store.SessionRecord{
		ID:        sessionID,
		Principal: principal,
		Role:      "primary",
		Status:    "created",
	}); err != nil {
		h.logf("persist session failed", "error", err)
	}

	writeJSON(w, http.StatusOK, sessionResponse{mintResponse: mint, SessionID: sessionID})
}

var sessionStatuses = map[string]struct{}{
	"created":      {},
	"connected":    {},
	"disconnected": {},
}

// SessionStatusHandler records client-reported session lifecycle transitions.
type SessionStatusHandler struct {
	Config config.Config
	Store  *store.Store
	Logger *slog.Logger
}

type sessionStatusRequest struct {
	SessionID uuid.UUID `json:"session_id"`
	Status    string    `json:"status"`
}

func (h SessionStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())

	if r.Method != http.MethodPost {
		methodNotAllowed(w, reqID, http.MethodPost)
		return
	}
	var req sessionStatusRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.Config.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, reqID, core.NewInvalidRequestError("malformed request body"))
		return
	}
	if req.SessionID == uuid.Nil {
		writeError(w, reqID, core.NewInvalidRequestErrorWithParam("session_id is required", "session_id"))
		return
	}
	if _, ok := sessionStatuses[req.Status]; !ok {
		writeError(w, reqID, core.NewInvalidRequestErrorWithParam("status must be created, connected, or disconnected", "status"))
		return
	}
	if h.Store == nil {
		writeError(w, reqID, core.NewPreconditionError("persistence not configured"))
		return
	}

	if err := h.Store.UpdateSessionStatus(r.Context(), req.SessionID, req.Status); err != nil {
		writeError(w, reqID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h SessionHandler) logf(msg string, args ...any) {
	if h.Logger != nil {
		h.Logger.Warn(msg, args...)
	}
}
