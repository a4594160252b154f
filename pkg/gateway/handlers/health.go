package handlers

import (
	"net/http"
	"strings"

	"github.com/medvoice-ai/medvoice/pkg/gateway/config"
)

type HealthHandler struct{}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

type ReadyHandler struct {
	Config config.Config
}

func (h ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type readyResp struct {
		OK           bool     `json:"ok"`
		AuthMode     string   `json:"auth_mode"`
		StoreEnabled bool     `json:"store_enabled"`
		NotesEnabled bool     `json:"notes_enabled"`
		Issues       []string `json:"issues,omitempty"`
	}

	issues := make([]string, 0, 4)

	switch h.Config.AuthMode {
	case config.AuthModeRequired, config.AuthModeOptional, config.AuthModeDisabled:
	default:
		issues = append(issues, "invalid auth_mode")
	}
	if h.Config.AuthMode == config.AuthModeRequired && len(h.Config.APIKeys) == 0 && h.Config.WorkOSAPIKey == "" {
		issues = append(issues, "auth_mode=required but no credentials configured")
	}

	if h.Config.OpenAIAPIKey == "" {
		issues = append(issues, "upstream api key not configured")
	}
	if strings.TrimSpace(h.Config.RealtimeBaseURL) == "" {
		issues = append(issues, "realtime base url must not be empty")
	}
	if strings.TrimSpace(h.Config.RealtimeModel) == "" {
		issues = append(issues, "realtime model must not be empty")
	}
	if h.Config.MaxBodyBytes <= 0 {
		issues = append(issues, "max_body_bytes must be > 0")
	}
	if h.Config.ReadHeaderTimeout <= 0 || h.Config.ReadTimeout <= 0 || h.Config.HandlerTimeout <= 0 {
		issues = append(issues, "timeouts must be > 0")
	}
	if h.Config.UpstreamConnectTimeout <= 0 || h.Config.UpstreamResponseHeaderTimeout <= 0 {
		issues = append(issues, "upstream timeouts must be > 0")
	}

	ok := len(issues) == 0
	status := http.StatusOK
	if !ok {
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, readyResp{
		OK:           ok,
		AuthMode:     string(h.Config.AuthMode),
		StoreEnabled: h.Config.DatabaseURL != "",
		NotesEnabled: h.Config.GeminiAPIKey != "",
		Issues:       issues,
	})
}
