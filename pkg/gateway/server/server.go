package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/medvoice-ai/medvoice/pkg/gateway/auth"
	"github.com/medvoice-ai/medvoice/pkg/gateway/config"
	"github.com/medvoice-ai/medvoice/pkg/gateway/handlers"
	"github.com/medvoice-ai/medvoice/pkg/gateway/mw"
	"github.com/medvoice-ai/medvoice/pkg/gateway/ratelimit"
	"github.com/medvoice-ai/medvoice/pkg/notes"
	"github.com/medvoice-ai/medvoice/pkg/store"
)

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux

	httpClient *http.Client
	limiter    *ratelimit.Limiter
	verifier   mw.SessionVerifier
	store      *store.Store
	notes      handlers.NoteService
}

func New(cfg config.Config, logger *slog.Logger, st *store.Store) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout: cfg.UpstreamConnectTimeout,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			ResponseHeaderTimeout: cfg.UpstreamResponseHeaderTimeout,
		},
	}

	s := &Server{
		cfg:        cfg,
		logger:     logger,
		mux:        http.NewServeMux(),
		httpClient: httpClient,
		store:      st,
		limiter: ratelimit.New(ratelimit.Config{
			RPS:                   cfg.LimitRPS,
			Burst:                 cfg.LimitBurst,
			MaxConcurrentRequests: cfg.LimitMaxConcurrentRequests,
		}),
	}

	if cfg.WorkOSAPIKey != "" {
		s.verifier = auth.NewWorkOSVerifier(cfg.WorkOSAPIKey, cfg.WorkOSClientID)
	}

	if cfg.GeminiAPIKey != "" {
		svc, err := notes.NewService(context.Background(), cfg.GeminiAPIKey, cfg.NotesModel, logger)
		if err != nil {
			logger.Warn("note service unavailable", "error", err)
		} else {
			s.notes = svc
		}
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("/healthz", handlers.HealthHandler{})
	s.mux.Handle("/readyz", handlers.ReadyHandler{Config: s.cfg})

	s.mux.Handle("/v1/session", handlers.SessionHandler{
		Config:     s.cfg,
		HTTPClient: s.httpClient,
		Logger:     s.logger,
		Store:      s.store,
	})
	s.mux.Handle("/v1/session/status", handlers.SessionStatusHandler{
		Config: s.cfg,
		Store:  s.store,
		Logger: s.logger,
	})
	s.mux.Handle("/v1/transcripts", handlers.TranscriptsHandler{
		Config: s.cfg,
		Store:  s.store,
		Logger: s.logger,
	})
	s.mux.Handle("/v1/notes", handlers.NotesHandler{
		Config: s.cfg,
		Notes:  s.notes,
		Store:  s.store,
		Logger: s.logger,
	})

	s.mux.Handle("/", handlers.NotFoundHandler{})
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.RateLimit(s.cfg, s.limiter, h)
	h = mw.Auth(s.cfg, s.verifier, h)
	h = mw.APIVersion(h)
	h = mw.CORS(s.cfg, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}
