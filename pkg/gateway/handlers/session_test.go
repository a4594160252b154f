package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestSession_MintsCredential(t *testing.T) {
	var gotAuth, gotPath, gotBody string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotBody = body["model"] + "/" + body["voice"]
		writeJSON(w, http.StatusOK, mintResponse{
			ID:           "sess_123",
			Model:        body["model"],
			ClientSecret: clientSecret{Value: "ek_abc", ExpiresAt: 1767225600},
		})
	}))
	defer upstream.Close()

	cfg := validConfig()
	cfg.RealtimeBaseURL = upstream.URL
	h := SessionHandler{Config: cfg, HTTPClient: upstream.Client()}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/session", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
	if gotAuth != "Bearer sk-upstream" {
		t.Fatalf("auth=%q", gotAuth)
	}
	if gotPath != "/v1/realtime/sessions" {
		t.Fatalf("path=%q", gotPath)
	}
	if gotBody != "gpt-4o-realtime-preview-2024-12-17/sage" {
		t.Fatalf("body=%q", gotBody)
	}

	var got sessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ClientSecret.Value != "ek_abc" || got.ID != "sess_123" {
		t.Fatalf("mint=%+v", got)
	}
	if got.SessionID == uuid.Nil {
		t.Fatal("expected a local session id")
	}
}

func TestSession_MissingServerKeyIs502(t *testing.T) {
	cfg := validConfig()
	cfg.OpenAIAPIKey = ""
	h := SessionHandler{Config: cfg}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/session", nil))
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
}

func TestSession_UpstreamRejectionIs502(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer upstream.Close()

	cfg := validConfig()
	cfg.RealtimeBaseURL = upstream.URL
	h := SessionHandler{Config: cfg, HTTPClient: upstream.Client()}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/session", nil))
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
}

func TestSession_MissingClientSecretIs502(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "sess_123"})
	}))
	defer upstream.Close()

	cfg := validConfig()
	cfg.RealtimeBaseURL = upstream.URL
	h := SessionHandler{Config: cfg, HTTPClient: upstream.Client()}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/session", nil))
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
}

func TestSessionStatus_InvalidStatusIs400(t *testing.T) {
	h := SessionStatusHandler{Config: validConfig()}

	body := strings.NewReader(`{"session_id":"` + uuid.NewString() + `","status":"paused"}`)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/session/status", body))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
}

func TestSessionStatus_MissingSessionIDIs400(t *testing.T) {
	h := SessionStatusHandler{Config: validConfig()}

	body := strings.NewReader(`{"status":"connected"}`)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/session/status", body))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
}

func TestSessionStatus_NoStoreIs409(t *testing.T) {
	h := SessionStatusHandler{Config: validConfig()}

	body := strings.NewReader(`{"session_id":"` + uuid.NewString() + `","status":"connected"}`)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/session/status", body))
	if rr.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
}

func TestSession_GetMintsLikePost(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, mintResponse{
			ID:           "sess_456",
			ClientSecret: clientSecret{Value: "ek_def", ExpiresAt: 1767225600},
		})
	}))
	defer upstream.Close()

	cfg := validConfig()
	cfg.RealtimeBaseURL = upstream.URL
	h := SessionHandler{Config: cfg, HTTPClient: upstream.Client()}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/session", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
}

func TestSession_DeleteIs405(t *testing.T) {
	h := SessionHandler{Config: validConfig()}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/v1/session", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", rr.Code)
	}
	if rr.Header().Get("Allow") != "GET, POST" {
		t.Fatalf("allow=%q", rr.Header().Get("Allow"))
	}
}
