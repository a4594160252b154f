// Package store persists session lifecycles, transcripts, and generated
// notes in Postgres. A nil *Store is a valid no-op store so the session core
// can run without persistence configured.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medvoice-ai/medvoice/pkg/core"
)

type Store struct {
	pool *pgxpool.Pool
}

type SessionRecord struct {
	ID        uuid.UUID
	Principal string
	Role      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type TranscriptItem struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	ItemID    string
	Role      string
	Text      string
	CreatedAt time.Time
}

type NoteRecord struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Model     string
	Markdown  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return nil
	}
	return s.pool.Ping(ctx)
}

func (s *Store) CreateSession(ctx context.Context, rec SessionRecord) error {
	if s == nil || s.pool == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, principal, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())`,
		rec.ID, rec.Principal, rec.Role, rec.Status)
	return err
}

func (s *Store) UpdateSessionStatus(ctx context.Context, id uuid.UUID, status string) error {
	if s == nil || s.pool == nil {
		return nil
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE sessions SET status = $2, updated_at = now() WHERE id = $1`,
		id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.NewNotFoundError("session not found")
	}
	return nil
}

func (s *Store) InsertTranscriptItem(ctx context.Context, item TranscriptItem) error {
	if s == nil || s.pool == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO transcript_items (id, session_id, item_id, role, text, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (session_id, item_id)
		DO UPDATE SET text = EXCLUDED.text`,
		item.ID, item.SessionID, item.ItemID, item.Role, item.Text)
	return err
}

func (s *Store) UpsertNote(ctx context.Context, rec NoteRecord) error {
	if s == nil || s.pool == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notes (id, session_id, model, markdown, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (session_id)
		DO UPDATE SET model = EXCLUDED.model, markdown = EXCLUDED.markdown, updated_at = now()`,
		rec.ID, rec.SessionID, rec.Model, rec.Markdown)
	return err
}

func (s *Store) LatestNote(ctx context.Context, sessionID uuid.UUID) (NoteRecord, error) {
	if s == nil || s.pool == nil {
		return NoteRecord{}, core.NewNotFoundError("note not found")
	}
	var rec NoteRecord
	err := s.pool.QueryRow(ctx, `
		SELECT id, session_id, model, markdown, created_at, updated_at
		FROM notes WHERE session_id = $1
		ORDER BY updated_at DESC LIMIT 1`,
		sessionID).Scan(&rec.ID, &rec.SessionID, &rec.Model, &rec.Markdown, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return NoteRecord{}, core.NewNotFoundError("note not found")
	}
	if err != nil {
		return NoteRecord{}, err
	}
	return rec, nil
}
