package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/medvoice-ai/medvoice/pkg/core"
	"github.com/medvoice-ai/medvoice/pkg/gateway/apierror"
)

func writeError(w http.ResponseWriter, reqID string, err error) {
	coreErr, status := apierror.FromError(err, reqID)
	writeJSON(w, status, apierror.Envelope{Error: coreErr})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func methodNotAllowed(w http.ResponseWriter, reqID string, allow ...string) {
	w.Header().Set("Allow", strings.Join(allow, ", "))
	writeJSON(w, http.StatusMethodNotAllowed, apierror.Envelope{Error: &core.Error{
		Type:      core.ErrInvalidRequest,
		Message:   "method not allowed",
		RequestID: reqID,
	}})
}
