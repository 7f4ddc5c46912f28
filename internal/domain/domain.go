package domain

import "encoding/json"

// Roles of chat message authors.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Venture struct {
	ID           string `json:"id"`
	UserID       string `json:"userId"`
	Title        string `json:"title"`
	CurrentStage int    `json:"currentStage"`
	IsCompleted  bool   `json:"isCompleted"`
	CreatedAt    string `json:"createdAt" format:"date-time"`
	UpdatedAt    string `json:"updatedAt" format:"date-time"`
}

// StageContent is the durable record of one venture's progress through one
// stage. At most one row exists per (ventureId, stage); writes are upserts
// keyed on that pair.
type StageContent struct {
	ID          string          `json:"id"`
	VentureID   string          `json:"ventureId"`
	Stage       Stage           `json:"stage"`
	Content     json.RawMessage `json:"content"`
	AIAnalysis  json.RawMessage `json:"aiAnalysis,omitempty"`
	IsCompleted bool            `json:"isCompleted"`
	UpdatedAt   string          `json:"updatedAt" format:"date-time"`
}

type ChatMessage struct {
	ID        string `json:"id"`
	VentureID string `json:"ventureId"`
	Stage     Stage  `json:"stage"`
	Role      string `json:"role" enum:"user,assistant"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp" format:"date-time"`
}

// Slide is one entry of a pitch deck outline. Content may be a string or a
// list of strings; the presentation layer renders it generically.
type Slide struct {
	Title   string          `json:"title"`
	Content json.RawMessage `json:"content"`
}

// Report is the single synthesized output artifact of a venture. At most one
// exists per venture; regeneration overwrites.
type Report struct {
	ID            string          `json:"id"`
	VentureID     string          `json:"ventureId"`
	Title         string          `json:"title"`
	FullReport    json.RawMessage `json:"fullReport"`
	PitchDeck     []Slide         `json:"pitchDeck"`
	ElevatorPitch string          `json:"elevatorPitch"`
	FullPitch     string          `json:"fullPitch"`
	CreatedAt     string          `json:"createdAt" format:"date-time"`
}

type Event struct {
	ID        int64  `json:"id"`
	TS        string `json:"ts" format:"date-time"`
	Type      string `json:"type"`
	VentureID string `json:"ventureId,omitempty"`
	Stage     Stage  `json:"stage,omitempty"`
	UserID    string `json:"userId"`
	Payload   string `json:"payloadJson"`
}
