package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/medvoice-ai/medvoice/pkg/core"
)

func TestNilStore_WritesAreNoOps(t *testing.T) {
	var s *Store
	ctx := context.Background()

	if err := s.CreateSession(ctx, SessionRecord{ID: uuid.New(), Role: "primary", Status: "connected"}); err != nil {
		t.Fatalf("CreateSession on nil store: %v", err)
	}
	if err := s.UpdateSessionStatus(ctx, uuid.New(), "disconnected"); err != nil {
		t.Fatalf("UpdateSessionStatus on nil store: %v", err)
	}
	if err := s.InsertTranscriptItem(ctx, TranscriptItem{ID: uuid.New()}); err != nil {
		t.Fatalf("InsertTranscriptItem on nil store: %v", err)
	}
	if err := s.UpsertNote(ctx, NoteRecord{ID: uuid.New()}); err != nil {
		t.Fatalf("UpsertNote on nil store: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate on nil store: %v", err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping on nil store: %v", err)
	}
	s.Close()
}

func TestNilStore_LatestNoteIsNotFound(t *testing.T) {
	var s *Store
	_, err := s.LatestNote(context.Background(), uuid.New())
	var ce *core.Error
	if !errors.As(err, &ce) || ce.Type != core.ErrNotFound {
		t.Fatalf("err = %v, want not_found", err)
	}
}

func TestOpen_RejectsMalformedDSN(t *testing.T) {
	_, err := Open(context.Background(), "://not-a-dsn")
	if err == nil {
		t.Fatal("expected error")
	}
}
