package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type AuthMode string

const (
	AuthModeRequired AuthMode = "required"
	AuthModeOptional AuthMode = "optional"
	AuthModeDisabled AuthMode = "disabled"
)

type Config struct {
	Addr string

	AuthMode AuthMode
	APIKeys  map[string]struct{}

	// If true, client identity may be derived from proxy headers like X-Forwarded-For.
	// This should only be enabled when the gateway is deployed behind a trusted proxy/LB.
	TrustProxyHeaders bool

	MaxBodyBytes int64

	// CORS
	CORSAllowedOrigins map[string]struct{} // empty => disabled

	// Upstream realtime API. The server key never leaves the gateway; clients
	// only ever see minted ephemeral credentials.
	OpenAIAPIKey    string
	RealtimeBaseURL string
	RealtimeModel   string
	RealtimeVoice   string

	// Optional WorkOS session validation for dashboard users.
	WorkOSAPIKey   string
	WorkOSClientID string

	// Note generation.
	GeminiAPIKey string
	NotesModel   string

	// Optional persistence. Empty => gateway runs without a store.
	DatabaseURL string

	// In-memory limits (per principal).
	LimitRPS                   float64
	LimitBurst                 int
	LimitMaxConcurrentRequests int

	// Operational defaults
	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	HandlerTimeout      time.Duration
	ShutdownGracePeriod time.Duration

	// Upstream HTTP client defaults
	UpstreamConnectTimeout        time.Duration
	UpstreamResponseHeaderTimeout time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                          envOr("MEDVOICE_ADDR", ":8080"),
		AuthMode:                      AuthMode(envOr("MEDVOICE_AUTH_MODE", string(AuthModeRequired))),
		APIKeys:                       make(map[string]struct{}),
		TrustProxyHeaders:             envBoolOr("MEDVOICE_TRUST_PROXY_HEADERS", false),
		MaxBodyBytes:                  envInt64Or("MEDVOICE_MAX_BODY_BYTES", 1<<20), // 1 MiB
		CORSAllowedOrigins:            make(map[string]struct{}),
		OpenAIAPIKey:                  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		RealtimeBaseURL:               envOr("MEDVOICE_REALTIME_BASE_URL", "https://api.openai.com"),
		RealtimeModel:                 envOr("MEDVOICE_REALTIME_MODEL", "gpt-4o-realtime-preview-2024-12-17"),
		RealtimeVoice:                 envOr("MEDVOICE_REALTIME_VOICE", "sage"),
		WorkOSAPIKey:                  strings.TrimSpace(os.Getenv("WORKOS_API_KEY")),
		WorkOSClientID:                strings.TrimSpace(os.Getenv("WORKOS_CLIENT_ID")),
		GeminiAPIKey:                  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		NotesModel:                    envOr("MEDVOICE_NOTES_MODEL", "gemini-2.0-flash"),
		DatabaseURL:                   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		LimitRPS:                      envFloat64Or("MEDVOICE_RATE_LIMIT_RPS", 2.0),
		LimitBurst:                    envIntOr("MEDVOICE_RATE_LIMIT_BURST", 4),
		LimitMaxConcurrentRequests:    envIntOr("MEDVOICE_MAX_CONCURRENT_REQUESTS", 20),
		ReadHeaderTimeout:             envDurationOr("MEDVOICE_READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:                   envDurationOr("MEDVOICE_READ_TIMEOUT", 30*time.Second),
		HandlerTimeout:                envDurationOr("MEDVOICE_TOTAL_REQUEST_TIMEOUT", 2*time.Minute),
		ShutdownGracePeriod:           envDurationOr("MEDVOICE_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
		UpstreamConnectTimeout:        envDurationOr("MEDVOICE_CONNECT_TIMEOUT", 5*time.Second),
		UpstreamResponseHeaderTimeout: envDurationOr("MEDVOICE_RESPONSE_HEADER_TIMEOUT", 30*time.Second),
	}

	switch cfg.AuthMode {
	case AuthModeRequired, AuthModeOptional, AuthModeDisabled:
	default:
		return Config{}, fmt.Errorf("MEDVOICE_AUTH_MODE must be one of required|optional|disabled")
	}

	for _, key := range splitCSV(os.Getenv("MEDVOICE_API_KEYS")) {
		cfg.APIKeys[key] = struct{}{}
	}

	for _, origin := range splitCSV(os.Getenv("MEDVOICE_CORS_ORIGINS")) {
		cfg.CORSAllowedOrigins[origin] = struct{}{}
	}

	if cfg.MaxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("MEDVOICE_MAX_BODY_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.RealtimeBaseURL) == "" {
		return Config{}, fmt.Errorf("MEDVOICE_REALTIME_BASE_URL must not be empty")
	}
	if strings.TrimSpace(cfg.RealtimeModel) == "" {
		return Config{}, fmt.Errorf("MEDVOICE_REALTIME_MODEL must not be empty")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("MEDVOICE_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ReadTimeout <= 0 {
		return Config{}, fmt.Errorf("MEDVOICE_READ_TIMEOUT must be > 0")
	}
	if cfg.HandlerTimeout <= 0 {
		return Config{}, fmt.Errorf("MEDVOICE_TOTAL_REQUEST_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("MEDVOICE_SHUTDOWN_GRACE_PERIOD must be > 0")
	}
	if cfg.UpstreamConnectTimeout <= 0 {
		return Config{}, fmt.Errorf("MEDVOICE_CONNECT_TIMEOUT must be > 0")
	}
	if cfg.UpstreamResponseHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("MEDVOICE_RESPONSE_HEADER_TIMEOUT must be > 0")
	}

	if cfg.LimitRPS < 0 {
		return Config{}, fmt.Errorf("MEDVOICE_RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.LimitBurst < 0 {
		return Config{}, fmt.Errorf("MEDVOICE_RATE_LIMIT_BURST must be >= 0")
	}
	if cfg.LimitMaxConcurrentRequests < 0 {
		return Config{}, fmt.Errorf("MEDVOICE_MAX_CONCURRENT_REQUESTS must be >= 0")
	}

	if cfg.AuthMode == AuthModeRequired && len(cfg.APIKeys) == 0 && cfg.WorkOSAPIKey == "" {
		return Config{}, fmt.Errorf("MEDVOICE_API_KEYS or WORKOS_API_KEY must be set when MEDVOICE_AUTH_MODE=required")
	}
	if cfg.WorkOSAPIKey != "" && cfg.WorkOSClientID == "" {
		return Config{}, fmt.Errorf("WORKOS_CLIENT_ID must be set when WORKOS_API_KEY is set")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt64Or(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envFloat64Or(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return n
}

func envBoolOr(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return def
	}
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
