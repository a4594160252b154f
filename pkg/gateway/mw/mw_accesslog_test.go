package mw

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, nil))
}

func parseSingleLogRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected log output")
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatalf("unmarshal log: %v", err)
	}
	return rec
}

func TestAccessLog_StatusLogging_ExplicitWriteHeader(t *testing.T) {
	loggerOut := &bytes.Buffer{}

	h := AccessLog(newTestLogger(loggerOut), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil).WithContext(WithRequestID(context.Background(), "req_test")))

	rec := parseSingleLogRecord(t, loggerOut)
	if got, ok := rec["status"].(float64); !ok || int(got) != http.StatusCreated {
		t.Fatalf("logged status=%v (type %T), want %d", rec["status"], rec["status"], http.StatusCreated)
	}
	if rec["request_id"] != "req_test" {
		t.Fatalf("logged request_id=%v", rec["request_id"])
	}
}

func TestAccessLog_StatusLogging_ImplicitWriteIs200(t *testing.T) {
	loggerOut := &bytes.Buffer{}

	h := AccessLog(newTestLogger(loggerOut), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil).WithContext(WithRequestID(context.Background(), "req_test")))

	rec := parseSingleLogRecord(t, loggerOut)
	if got, ok := rec["status"].(float64); !ok || int(got) != http.StatusOK {
		t.Fatalf("logged status=%v (type %T), want %d", rec["status"], rec["status"], http.StatusOK)
	}
}

func TestAccessLog_NilLoggerPassesThrough(t *testing.T) {
	h := AccessLog(nil, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusTeapot {
		t.Fatalf("status=%d", rr.Code)
	}
}
