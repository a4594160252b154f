package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/medvoice-ai/medvoice/pkg/gateway/config"
	gatewayserver "github.com/medvoice-ai/medvoice/pkg/gateway/server"
	"github.com/medvoice-ai/medvoice/pkg/store"
)

func TestRunMain_ReturnsNonZeroWhenConfigLoadFails(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	exitCode := runMain(context.Background(), &stderr, gatewayDeps{
		loadConfig: func() (config.Config, error) {
			return config.Config{}, errors.New("boom")
		},
		newGateway: func(cfg config.Config, logger *slog.Logger, st *store.Store) *gatewayserver.Server {
			t.Fatalf("newGateway should not be called when config load fails")
			return nil
		},
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) {},
		signalStop:   func(c chan<- os.Signal) {},
	})

	if exitCode != 1 {
		t.Fatalf("exitCode=%d, want 1", exitCode)
	}
	if got := stderr.String(); got == "" {
		t.Fatalf("expected stderr output for startup error")
	}
}

func TestRunGateway_OpenStoreFailureIsFatal(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := runGateway(context.Background(), logger, gatewayDeps{
		loadConfig: func() (config.Config, error) {
			return config.Config{DatabaseURL: "postgres://localhost/medvoice"}, nil
		},
		openStore: func(ctx context.Context, dsn string) (*store.Store, error) {
			return nil, errors.New("connection refused")
		},
		newGateway: func(cfg config.Config, logger *slog.Logger, st *store.Store) *gatewayserver.Server {
			t.Fatalf("newGateway should not be called when store open fails")
			return nil
		},
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) {},
		signalStop:   func(c chan<- os.Signal) {},
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestBuildHTTPServer_UsesConfiguredAddress(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		Addr:              "127.0.0.1:9999",
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       3 * time.Second,
	}

	srv := buildHTTPServer(cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	if srv.Addr != cfg.Addr {
		t.Fatalf("Addr=%q, want %q", srv.Addr, cfg.Addr)
	}
	if srv.ReadHeaderTimeout != cfg.ReadHeaderTimeout {
		t.Fatalf("ReadHeaderTimeout=%v, want %v", srv.ReadHeaderTimeout, cfg.ReadHeaderTimeout)
	}
	if srv.ReadTimeout != cfg.ReadTimeout {
		t.Fatalf("ReadTimeout=%v, want %v", srv.ReadTimeout, cfg.ReadTimeout)
	}
}

func TestGatewayHandlerStack_Smoke(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw := gatewayserver.New(config.Config{
		AuthMode: config.AuthModeDisabled,
		APIKeys:  map[string]struct{}{},

		CORSAllowedOrigins:            map[string]struct{}{},
		MaxBodyBytes:                  1 << 20,
		UpstreamConnectTimeout:        time.Second,
		UpstreamResponseHeaderTimeout: time.Second,
		ReadHeaderTimeout:             time.Second,
		ReadTimeout:                   time.Second,

		LimitRPS:                   10,
		LimitBurst:                 20,
		LimitMaxConcurrentRequests: 20,
	}, logger, nil)

	ts := httptest.NewServer(gw.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d, want %d", resp.StatusCode, http.StatusOK)
	}
}
