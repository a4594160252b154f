package notes

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/medvoice-ai/medvoice/pkg/store"
)

// Sink adapts the note service to the router's scribe callbacks. It keeps the
// latest note so updates revise instead of starting over, and persists each
// revision when a store is configured.
type Sink struct {
	svc       *Service
	store     *store.Store
	sessionID uuid.UUID
	logger    *slog.Logger

	mu     sync.Mutex
	latest Note
	has    bool
}

func NewSink(svc *Service, st *store.Store, sessionID uuid.UUID, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{svc: svc, store: st, sessionID: sessionID, logger: logger}
}

func (k *Sink) Generate(ctx context.Context, prompt string) error {
	note, err := k.svc.Generate(ctx, prompt)
	if err != nil {
		return err
	}
	return k.remember(ctx, note)
}

func (k *Sink) Update(ctx context.Context, updateText string) error {
	k.mu.Lock()
	current := k.latest.Markdown
	k.mu.Unlock()

	note, err := k.svc.Update(ctx, current, updateText)
	if err != nil {
		return err
	}
	return k.remember(ctx, note)
}

// Latest returns the most recent note, if one has been produced.
func (k *Sink) Latest() (Note, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.latest, k.has
}

func (k *Sink) remember(ctx context.Context, note Note) error {
	k.mu.Lock()
	k.latest = note
	k.has = true
	k.mu.Unlock()

	err := k.store.UpsertNote(ctx, store.NoteRecord{
		ID:        uuid.New(),
		SessionID: k.sessionID,
		Model:     note.Model,
		Markdown:  note.Markdown,
	})
	if err != nil {
		// Persistence is best effort; the in-memory note is authoritative.
		k.logger.Warn("persist note failed", "error", err)
	}
	return nil
}
