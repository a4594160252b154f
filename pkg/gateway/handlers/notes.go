package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/medvoice-ai/medvoice/pkg/core"
	"github.com/medvoice-ai/medvoice/pkg/gateway/config"
	"github.com/medvoice-ai/medvoice/pkg/gateway/mw"
	"github.com/medvoice-ai/medvoice/pkg/notes"
	"github.com/medvoice-ai/medvoice/pkg/store"
)

// NoteService is the slice of the notes package the handler needs.
type NoteService interface {
	Generate(ctx context.Context, prompt string) (notes.Note, error)
	Update(ctx context.Context, current, instructions string) (notes.Note, error)
}

// NotesHandler exposes operative note generation to dashboard clients.
// GET returns the stored note for a session; POST generates or revises one.
type NotesHandler struct {
	Config config.Config
	Notes  NoteService
	Store  *store.Store
	Logger *slog.Logger
}

type notesRequest struct {
	Action       string `json:"action"`
	Prompt       string `json:"prompt,omitempty"`
	Current      string `json:"current,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

type storedNoteResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	Model     string    `json:"model"`
	Markdown  string    `json:"markdown"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (h NotesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())

	switch r.Method {
	case http.MethodGet:
		h.serveLatest(w, r, reqID)
		return
	case http.MethodPost:
	default:
		methodNotAllowed(w, reqID, http.MethodGet, http.MethodPost)
		return
	}
	if h.Notes == nil {
		writeError(w, reqID, core.NewPreconditionError("note generation not configured"))
		return
	}

	var req notesRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.Config.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, reqID, core.NewInvalidRequestError("malformed request body"))
		return
	}

	var (
		note notes.Note
		err  error
	)
	switch req.Action {
	case "generate":
		note, err = h.Notes.Generate(r.Context(), req.Prompt)
	case "update":
		note, err = h.Notes.Update(r.Context(), req.Current, req.Instructions)
	default:
		writeError(w, reqID, core.NewInvalidRequestErrorWithParam("action must be generate or update", "action"))
		return
	}
	if err != nil {
		writeError(w, reqID, err)
		return
	}

	writeJSON(w, http.StatusOK, note)
}

func (h NotesHandler) serveLatest(w http.ResponseWriter, r *http.Request, reqID string) {
	sessionID, err := uuid.Parse(r.URL.Query().Get("session_id"))
	if err != nil {
		writeError(w, reqID, core.NewInvalidRequestErrorWithParam("session_id must be a valid uuid", "session_id"))
		return
	}
	if h.Store == nil {
		writeError(w, reqID, core.NewPreconditionError("persistence not configured"))
		return
	}

	rec, err := h.Store.LatestNote(r.Context(), sessionID)
	if err != nil {
		writeError(w, reqID, err)
		return
	}
	writeJSON(w, http.StatusOK, storedNoteResponse{
		SessionID: rec.SessionID,
		Model:     rec.Model,
		Markdown:  rec.Markdown,
		UpdatedAt: rec.UpdatedAt,
	})
}
