package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/medvoice-ai/medvoice/pkg/core"
	"github.com/medvoice-ai/medvoice/pkg/gateway/config"
	"github.com/medvoice-ai/medvoice/pkg/gateway/mw"
	"github.com/medvoice-ai/medvoice/pkg/store"
)

var transcriptRoles = map[string]struct{}{
	"user":      {},
	"assistant": {},
}

// TranscriptsHandler accepts transcript items reported by the session client.
// Re-sends of the same item id overwrite the stored text, so streamed
// transcripts can be flushed incrementally.
type TranscriptsHandler struct {
	Config config.Config
	Store  *store.Store
	Logger *slog.Logger
}

type transcriptRequest struct {
	SessionID uuid.UUID `json:"session_id"`
	ItemID    string    `json:"item_id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
}

func (h TranscriptsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())

	if r.Method != http.MethodPost {
		methodNotAllowed(w, reqID, http.MethodPost)
		return
	}
	var req transcriptRequest
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
	if req.ItemID == "" {
		writeError(w, reqID, core.NewInvalidRequestErrorWithParam("item_id is required", "item_id"))
		return
	}
	if _, ok := transcriptRoles[req.Role]; !ok {
		writeError(w, reqID, core.NewInvalidRequestErrorWithParam("role must be user or assistant", "role"))
		return
	}
	if h.Store == nil {
		writeError(w, reqID, core.NewPreconditionError("persistence not configured"))
		return
	}

	err := h.Store.InsertTranscriptItem(r.Context(), store.TranscriptItem{
		ID:        uuid.New(),
		SessionID: req.SessionID,
		ItemID:    req.ItemID,
		Role:      req.Role,
		Text:      req.Text,
	})
	if err != nil {
		writeError(w, reqID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
