package server

import (
	"encoding/json"

	"ventureline/internal/domain"
	"ventureline/internal/engine"
)

// Request payloads

type CreateVentureRequest struct {
	Title  string  `json:"title"`
	UserID *string `json:"userId,omitempty"`

	// Accepted for payload compatibility but ignored: every venture starts
	// at stage 1 and not completed.
	CurrentStage *int  `json:"currentStage,omitempty" minimum:"1" maximum:"7"`
	IsCompleted  *bool `json:"isCompleted,omitempty"`
}

type UpdateVentureRequest struct {
	Title        *string `json:"title,omitempty"`
	CurrentStage *int    `json:"currentStage,omitempty" minimum:"1" maximum:"7"`
	IsCompleted  *bool   `json:"isCompleted,omitempty"`
}

type UpsertStageContentRequest struct {
	Content     map[string]any `json:"content,omitempty"`
	AIAnalysis  map[string]any `json:"aiAnalysis,omitempty"`
	IsCompleted *bool          `json:"isCompleted,omitempty"`
}

type SubmitMessageRequest struct {
	Content string `json:"content" minLength:"1"`
}

// Response payloads

type VentureResponse struct {
	ID           string `json:"id"`
	UserID       string `json:"userId"`
	Title        string `json:"title"`
	CurrentStage int    `json:"currentStage"`
	IsCompleted  bool   `json:"isCompleted"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

type StageContentResponse struct {
	ID          string         `json:"id"`
	VentureID   string         `json:"ventureId"`
	Stage       string         `json:"stage"`
	Content     map[string]any `json:"content"`
	AIAnalysis  map[string]any `json:"aiAnalysis,omitempty"`
	IsCompleted bool           `json:"isCompleted"`
	UpdatedAt   string         `json:"updatedAt"`
}

type ChatMessageResponse struct {
	ID        string `json:"id"`
	VentureID string `json:"ventureId"`
	Stage     string `json:"stage"`
	Role      string `json:"role" enum:"user,assistant"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type TurnResponse struct {
	UserMessage      ChatMessageResponse `json:"userMessage"`
	AssistantMessage ChatMessageResponse `json:"assistantMessage"`
	AIAnalysis       map[string]any      `json:"aiAnalysis,omitempty"`
}

type SlideResponse struct {
	Title   string `json:"title"`
	Content any    `json:"content"`
}

type ReportResponse struct {
	ID            string          `json:"id"`
	VentureID     string          `json:"ventureId"`
	Title         string          `json:"title"`
	FullReport    map[string]any  `json:"fullReport"`
	PitchDeck     []SlideResponse `json:"pitchDeck"`
	ElevatorPitch string          `json:"elevatorPitch"`
	FullPitch     string          `json:"fullPitch"`
	CreatedAt     string          `json:"createdAt"`
}

// Converters

func ventureResponse(v domain.Venture) VentureResponse {
	return VentureResponse{
		ID:           v.ID,
		UserID:       v.UserID,
		Title:        v.Title,
		CurrentStage: v.CurrentStage,
		IsCompleted:  v.IsCompleted,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
}

func mapVentures(items []domain.Venture) []VentureResponse {
	res := make([]VentureResponse, 0, len(items))
	for _, v := range items {
		res = append(res, ventureResponse(v))
	}
	return res
}

func decodeJSONMap(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

func encodeJSONMap(m map[string]any) json.RawMessage {
	if m == nil {
		return nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return data
}

func stageContentResponse(sc domain.StageContent) StageContentResponse {
	content := decodeJSONMap(sc.Content)
	if content == nil {
		content = map[string]any{}
	}
	return StageContentResponse{
		ID:          sc.ID,
		VentureID:   sc.VentureID,
		Stage:       string(sc.Stage),
		Content:     content,
		AIAnalysis:  decodeJSONMap(sc.AIAnalysis),
		IsCompleted: sc.IsCompleted,
		UpdatedAt:   sc.UpdatedAt,
	}
}

func mapStageContents(items []domain.StageContent) []StageContentResponse {
	res := make([]StageContentResponse, 0, len(items))
	for _, sc := range items {
		res = append(res, stageContentResponse(sc))
	}
	return res
}

func chatMessageResponse(m domain.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:        m.ID,
		VentureID: m.VentureID,
		Stage:     string(m.Stage),
		Role:      m.Role,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
}

func mapChatMessages(items []domain.ChatMessage) []ChatMessageResponse {
	res := make([]ChatMessageResponse, 0, len(items))
	for _, m := range items {
		res = append(res, chatMessageResponse(m))
	}
	return res
}

func turnResponse(turn engine.TurnResult) TurnResponse {
	return TurnResponse{
		UserMessage:      chatMessageResponse(turn.UserMessage),
		AssistantMessage: chatMessageResponse(turn.AssistantMessage),
		AIAnalysis:       decodeJSONMap(turn.AIAnalysis),
	}
}

func reportResponse(r domain.Report) ReportResponse {
	slides := make([]SlideResponse, 0, len(r.PitchDeck))
	for _, s := range r.PitchDeck {
		var content any
		if len(s.Content) > 0 {
			_ = json.Unmarshal(s.Content, &content)
		}
		slides = append(slides, SlideResponse{Title: s.Title, Content: content})
	}
	full := decodeJSONMap(r.FullReport)
	if full == nil {
		full = map[string]any{}
	}
	return ReportResponse{
		ID:            r.ID,
		VentureID:     r.VentureID,
		Title:         r.Title,
		FullReport:    full,
		PitchDeck:     slides,
		ElevatorPitch: r.ElevatorPitch,
		FullPitch:     r.FullPitch,
		CreatedAt:     r.CreatedAt,
	}
}
