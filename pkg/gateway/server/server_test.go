package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/medvoice-ai/medvoice/pkg/gateway/config"
)

func testConfig() config.Config {
	return config.Config{
		AuthMode:                      config.AuthModeDisabled,
		APIKeys:                       map[string]struct{}{},
		CORSAllowedOrigins:            map[string]struct{}{},
		MaxBodyBytes:                  1 << 20,
		OpenAIAPIKey:                  "sk-upstream",
		RealtimeBaseURL:               "https://api.openai.com",
		RealtimeModel:                 "gpt-4o-realtime-preview-2024-12-17",
		RealtimeVoice:                 "sage",
		ReadHeaderTimeout:             10 * time.Second,
		ReadTimeout:                   30 * time.Second,
		HandlerTimeout:                time.Minute,
		ShutdownGracePeriod:           time.Second,
		UpstreamConnectTimeout:        time.Second,
		UpstreamResponseHeaderTimeout: time.Second,
	}
}

func newTestServer(cfg config.Config) *Server {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return New(cfg, logger, nil)
}

func TestServer_UnknownRoute_ReturnsJSON404(t *testing.T) {
	s := newTestServer(testConfig())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	s.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%q", ct)
	}
	if !strings.Contains(rr.Body.String(), `"type":"not_found_error"`) {
		t.Fatalf("unexpected body: %q", rr.Body.String())
	}
}

func TestServer_HealthRoutes_Reachable(t *testing.T) {
	s := newTestServer(testConfig())

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		s.Handler().ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("path %s status=%d body=%q", path, rr.Code, rr.Body.String())
		}
	}
}

func TestServer_SessionRoute_Reachable(t *testing.T) {
	cfg := testConfig()
	cfg.OpenAIAPIKey = ""
	s := newTestServer(cfg)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/session", nil)
	s.Handler().ServeHTTP(rr, req)

	// No upstream key configured: route answers 502 rather than 404.
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
}

func TestServer_NotesRoute_NotConfiguredIs409(t *testing.T) {
	s := newTestServer(testConfig())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/notes", strings.NewReader(`{"action":"generate","prompt":"x"}`))
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
}

func TestServer_AuthRequired_SessionRejectedWithoutKey(t *testing.T) {
	cfg := testConfig()
	cfg.AuthMode = config.AuthModeRequired
	cfg.APIKeys = map[string]struct{}{"mv_sk_test": {}}
	s := newTestServer(cfg)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/session", nil)
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}

	// Health stays reachable without credentials.
	rr2 := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr2, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr2.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", rr2.Code)
	}
}
