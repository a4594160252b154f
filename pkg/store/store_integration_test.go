//go:build integration
// +build integration

package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medvoice-ai/medvoice/pkg/core"
)

func isNotFound(err error) bool {
	var ce *core.Error
	return errors.As(err, &ce) && ce.Type == core.ErrNotFound
}

func openTestStore(t *testing.T) (*Store, context.Context) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(s.Close)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s, ctx
}

func TestStore_SessionLifecycleRoundTrip(t *testing.T) {
	s, ctx := openTestStore(t)

	id := uuid.New()
	rec := SessionRecord{ID: id, Principal: "k_test", Role: "primary", Status: "created"}
	if err := s.CreateSession(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.UpdateSessionStatus(ctx, id, "connected"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.UpdateSessionStatus(ctx, uuid.New(), "connected"); !isNotFound(err) {
		t.Fatalf("unknown session err=%v", err)
	}
}

func TestStore_TranscriptUpsertOverwritesText(t *testing.T) {
	s, ctx := openTestStore(t)

	sessionID := uuid.New()
	if err := s.CreateSession(ctx, SessionRecord{ID: sessionID, Role: "primary", Status: "created"}); err != nil {
		t.Fatalf("create session: %v", err)
	}

	item := TranscriptItem{ID: uuid.New(), SessionID: sessionID, ItemID: "item_1", Role: "user", Text: "hel"}
	if err := s.InsertTranscriptItem(ctx, item); err != nil {
		t.Fatalf("insert: %v", err)
	}
	item.ID = uuid.New()
	item.Text = "hello doctor"
	if err := s.InsertTranscriptItem(ctx, item); err != nil {
		t.Fatalf("reinsert: %v", err)
	}
}

func TestStore_NoteUpsertAndLatest(t *testing.T) {
	s, ctx := openTestStore(t)

	sessionID := uuid.New()
	if err := s.CreateSession(ctx, SessionRecord{ID: sessionID, Role: "primary", Status: "created"}); err != nil {
		t.Fatalf("create session: %v", err)
	}

	if _, err := s.LatestNote(ctx, sessionID); !isNotFound(err) {
		t.Fatalf("missing note err=%v", err)
	}

	first := NoteRecord{ID: uuid.New(), SessionID: sessionID, Model: "gemini-2.0-flash", Markdown: "# v1"}
	if err := s.UpsertNote(ctx, first); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second := first
	second.ID = uuid.New()
	second.Markdown = "# v2"
	if err := s.UpsertNote(ctx, second); err != nil {
		t.Fatalf("revise: %v", err)
	}

	got, err := s.LatestNote(ctx, sessionID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got.Markdown != "# v2" {
		t.Fatalf("markdown=%q", got.Markdown)
	}
}
