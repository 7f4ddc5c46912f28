package events

import (
	"context"
	"testing"
	"time"

	"ventureline/internal/domain"
	"ventureline/internal/store/memory"
)

func TestAppendRecordsEvent(t *testing.T) {
	st := memory.New()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	w := Writer{Store: st, Now: func() time.Time { return fixed }}

	err := w.Append(context.Background(), TypeStageCompleted, "v1", domain.StageInitialIdea, "u1", Payload{"via": "chat"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	items, err := st.LatestEvents(context.Background(), 10, "v1", "")
	if err != nil || len(items) != 1 {
		t.Fatalf("events: %v (%d)", err, len(items))
	}
	e := items[0]
	if e.Type != TypeStageCompleted || e.Stage != domain.StageInitialIdea || e.UserID != "u1" {
		t.Fatalf("unexpected event: %+v", e)
	}
	if e.TS != "2026-01-02T03:04:05Z" {
		t.Fatalf("timestamp not RFC3339 UTC: %s", e.TS)
	}
	if e.Payload != `{"via":"chat"}` {
		t.Fatalf("payload: %s", e.Payload)
	}
}

func TestAppendNilPayload(t *testing.T) {
	st := memory.New()
	w := Writer{Store: st}
	if err := w.Append(context.Background(), TypeVentureCreated, "v1", "", "u1", nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	items, _ := st.LatestEvents(context.Background(), 1, "", "")
	if items[0].Payload != "{}" {
		t.Fatalf("nil payload should marshal to empty object: %s", items[0].Payload)
	}
}
