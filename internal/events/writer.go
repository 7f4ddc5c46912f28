// Package events appends audit records to the store's event log.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ventureline/internal/domain"
	"ventureline/internal/store"
)

// Event types emitted by the engine.
const (
	TypeVentureCreated   = "venture.created"
	TypeVentureUpdated   = "venture.updated"
	TypeVentureDeleted   = "venture.deleted"
	TypeVentureCompleted = "venture.completed"
	TypeStageSaved       = "stage.saved"
	TypeStageCompleted   = "stage.completed"
	TypeStageAdvanced    = "stage.advanced"
	TypeMessageSent      = "message.sent"
	TypeAnalysisFailed   = "analysis.failed"
	TypeReportGenerated  = "report.generated"
)

type Writer struct {
	Store store.Store
	Now   func() time.Time
}

type Payload map[string]any

// Append records an event. Failures to append never interrupt the operation
// that emitted the event; callers decide whether to ignore the error.
func (w Writer) Append(ctx context.Context, evtType string, ventureID string, stage domain.Stage, userID string, payload Payload) error {
	now := w.Now
	if now == nil {
		now = time.Now
	}
	if payload == nil {
		payload = Payload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	return w.Store.AppendEvent(ctx, domain.Event{
		TS:        now().UTC().Format(time.RFC3339),
		Type:      evtType,
		VentureID: ventureID,
		Stage:     stage,
		UserID:    userID,
		Payload:   string(data),
	})
}
