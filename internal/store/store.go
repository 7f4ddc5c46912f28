// Package store defines the persistence contract the engine depends on.
// Two adapters implement it: a durable SQLite store and an in-memory store
// used by tests and --memory runs.
package store

import (
	"context"
	"errors"

	"ventureline/internal/domain"
)

var ErrNotFound = errors.New("not found")

// VentureUpdate carries a partial venture update; nil fields are untouched.
type VentureUpdate struct {
	Title        *string
	CurrentStage *int
	IsCompleted  *bool
	UpdatedAt    string
}

// StageContentUpsert is the write payload for the (ventureId, stage) keyed
// upsert. Nil Content/AIAnalysis/IsCompleted leave the stored value in
// place, so a chat turn can refresh the analysis without clobbering the
// completion flag and vice versa.
type StageContentUpsert struct {
	VentureID string
	Stage     domain.Stage

	// NewID is used only when the upsert creates the row.
	NewID       string
	Content     []byte
	AIAnalysis  []byte
	IsCompleted *bool
	UpdatedAt   string
}

type Store interface {
	// Ventures.
	InsertVenture(ctx context.Context, v domain.Venture) error
	GetVenture(ctx context.Context, id string) (domain.Venture, error)
	ListVentures(ctx context.Context, userID string) ([]domain.Venture, error)
	UpdateVenture(ctx context.Context, id string, upd VentureUpdate) error
	// DeleteVenture cascades to the venture's stage contents, messages,
	// report, and events.
	DeleteVenture(ctx context.Context, id string) error

	// Stage contents, keyed by (ventureId, stage).
	UpsertStageContent(ctx context.Context, upsert StageContentUpsert) (domain.StageContent, error)
	GetStageContent(ctx context.Context, ventureID string, stage domain.Stage) (domain.StageContent, error)
	ListStageContents(ctx context.Context, ventureID string) ([]domain.StageContent, error)

	// Chat messages: append-only, returned in insertion order.
	AppendChatMessage(ctx context.Context, msg domain.ChatMessage) error
	ListChatMessages(ctx context.Context, ventureID string, stage domain.Stage) ([]domain.ChatMessage, error)

	// Reports: at most one per venture.
	UpsertReport(ctx context.Context, r domain.Report) error
	GetReport(ctx context.Context, ventureID string) (domain.Report, error)

	// Event log.
	AppendEvent(ctx context.Context, e domain.Event) error
	LatestEvents(ctx context.Context, limit int, ventureID, evtType string) ([]domain.Event, error)

	Close() error
}
