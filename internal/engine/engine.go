// Package engine is the stage orchestrator: it owns venture lifecycle,
// stage progression, chat-turn handling, and report generation.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ventureline/internal/ai"
	"ventureline/internal/analysis"
	"ventureline/internal/config"
	"ventureline/internal/domain"
	"ventureline/internal/events"
	"ventureline/internal/store"
)

// Fixed assistant texts. The welcome message seeds every new venture's
// initialIdea conversation; the fallback covers collaborator failures; the
// generic reply covers stages without an analysis routine.
const (
	WelcomeMessage = "Hello! I'm excited to help you develop your venture idea. Please tell me about your initial concept. Be as detailed as possible about the problem you're solving and your approach."
	fallbackReply  = "I apologize, but I encountered an error processing your request. Please try again."
	genericReply   = "Thank you for your input. I'm analyzing this information and will provide feedback shortly."
)

// ValidationError is a caller mistake, surfaced as 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IncompleteStagesError refuses report generation and names every missing
// stage in canonical order.
type IncompleteStagesError struct {
	Missing []domain.Stage
}

func (e *IncompleteStagesError) Error() string {
	names := make([]string, len(e.Missing))
	for i, s := range e.Missing {
		names[i] = string(s)
	}
	return "Cannot generate report. The following stages are incomplete: " + strings.Join(names, ", ")
}

// SynthesisError marks a report-synthesis failure, surfaced as 500.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string { return "Failed to generate report" }
func (e *SynthesisError) Unwrap() error { return e.Err }

type Engine struct {
	Store  store.Store
	AI     ai.Collaborator
	Events events.Writer
	Config *config.Config
	Now    func() time.Time

	locks stageLocks
}

func New(st store.Store, collaborator ai.Collaborator, cfg *config.Config) *Engine {
	return &Engine{
		Store:  st,
		AI:     collaborator,
		Events: events.Writer{Store: st},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) timestamp() string {
	return e.now().UTC().Format(time.RFC3339)
}

func (e *Engine) welcome() string {
	if e.Config != nil && e.Config.Chat.WelcomeMessage != "" {
		return e.Config.Chat.WelcomeMessage
	}
	return WelcomeMessage
}

// CreateVenture creates a venture at stage 1 and seeds the welcome
// assistant message into its initialIdea conversation.
func (e *Engine) CreateVenture(ctx context.Context, userID, title string) (domain.Venture, error) {
	if strings.TrimSpace(title) == "" {
		return domain.Venture{}, validationf("venture title is required")
	}
	if userID == "" {
		return domain.Venture{}, validationf("user id is required")
	}
	ts := e.timestamp()
	v := domain.Venture{
		ID:           uuid.NewString(),
		UserID:       userID,
		Title:        title,
		CurrentStage: 1,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if err := e.Store.InsertVenture(ctx, v); err != nil {
		return domain.Venture{}, fmt.Errorf("insert venture: %w", err)
	}
	if err := e.Store.AppendChatMessage(ctx, domain.ChatMessage{
		ID:        uuid.NewString(),
		VentureID: v.ID,
		Stage:     domain.StageInitialIdea,
		Role:      domain.RoleAssistant,
		Content:   e.welcome(),
		Timestamp: ts,
	}); err != nil {
		return domain.Venture{}, fmt.Errorf("seed welcome message: %w", err)
	}
	_ = e.Events.Append(ctx, events.TypeVentureCreated, v.ID, "", userID, events.Payload{"title": title})
	return v, nil
}

func (e *Engine) GetVenture(ctx context.Context, id string) (domain.Venture, error) {
	return e.Store.GetVenture(ctx, id)
}

func (e *Engine) ListVentures(ctx context.Context, userID string) ([]domain.Venture, error) {
	return e.Store.ListVentures(ctx, userID)
}

// VentureUpdateOptions is the partial-update payload; nil fields are left
// untouched.
type VentureUpdateOptions struct {
	Title        *string
	CurrentStage *int
	IsCompleted  *bool
	ActorID      string
}

// UpdateVenture applies a partial update. CurrentStage must be a valid
// stage rank; no other progression validation is applied here.
func (e *Engine) UpdateVenture(ctx context.Context, id string, opts VentureUpdateOptions) (domain.Venture, error) {
	if opts.Title != nil && strings.TrimSpace(*opts.Title) == "" {
		return domain.Venture{}, validationf("venture title cannot be empty")
	}
	if opts.CurrentStage != nil {
		if _, err := domain.StageForRank(*opts.CurrentStage); err != nil {
			return domain.Venture{}, validationf("invalid stage rank %d", *opts.CurrentStage)
		}
	}
	err := e.Store.UpdateVenture(ctx, id, store.VentureUpdate{
		Title:        opts.Title,
		CurrentStage: opts.CurrentStage,
		IsCompleted:  opts.IsCompleted,
		UpdatedAt:    e.timestamp(),
	})
	if err != nil {
		return domain.Venture{}, err
	}
	v, err := e.Store.GetVenture(ctx, id)
	if err != nil {
		return domain.Venture{}, err
	}
	_ = e.Events.Append(ctx, events.TypeVentureUpdated, id, "", opts.ActorID, nil)
	return v, nil
}

// AdvanceStage moves the venture's stage pointer to the given rank. The
// rank must name a valid stage; completion of the prior stage is the
// caller's concern, not checked here.
func (e *Engine) AdvanceStage(ctx context.Context, ventureID string, targetRank int, actorID string) (domain.Venture, error) {
	stage, err := domain.StageForRank(targetRank)
	if err != nil {
		return domain.Venture{}, validationf("invalid stage rank %d", targetRank)
	}
	v, err := e.UpdateVenture(ctx, ventureID, VentureUpdateOptions{CurrentStage: &targetRank, ActorID: actorID})
	if err != nil {
		return domain.Venture{}, err
	}
	_ = e.Events.Append(ctx, events.TypeStageAdvanced, ventureID, stage, actorID, events.Payload{"rank": targetRank})
	return v, nil
}

func (e *Engine) DeleteVenture(ctx context.Context, id, actorID string) error {
	if err := e.Store.DeleteVenture(ctx, id); err != nil {
		return err
	}
	_ = e.Events.Append(ctx, events.TypeVentureDeleted, id, "", actorID, nil)
	return nil
}

// ReachableStages lists the stages the venture may be viewed at: every
// stage whose rank is at or below the current pointer.
func (e *Engine) ReachableStages(v domain.Venture) []domain.Stage {
	var res []domain.Stage
	for _, s := range domain.Stages() {
		if s.Order() <= v.CurrentStage {
			res = append(res, s)
		}
	}
	return res
}

// IsStageComplete reports the completion flag of the (venture, stage)
// content row, false when no row exists.
func (e *Engine) IsStageComplete(ctx context.Context, ventureID string, stage domain.Stage) (bool, error) {
	sc, err := e.Store.GetStageContent(ctx, ventureID, stage)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return sc.IsCompleted, nil
}

// StageContentOptions is the payload for a stage-content upsert. Nil
// fields preserve whatever is stored.
type StageContentOptions struct {
	Content     json.RawMessage
	AIAnalysis  json.RawMessage
	IsCompleted *bool
	ActorID     string
}

// UpsertStageContent writes the content row for (ventureID, stage),
// creating it on first write.
func (e *Engine) UpsertStageContent(ctx context.Context, ventureID string, stage domain.Stage, opts StageContentOptions) (domain.StageContent, error) {
	if !stage.Valid() {
		return domain.StageContent{}, validationf("invalid stage %q", stage)
	}
	if _, err := e.Store.GetVenture(ctx, ventureID); err != nil {
		return domain.StageContent{}, err
	}
	unlock := e.locks.lock(ventureID, stage)
	defer unlock()
	sc, err := e.Store.UpsertStageContent(ctx, store.StageContentUpsert{
		VentureID:   ventureID,
		Stage:       stage,
		NewID:       uuid.NewString(),
		Content:     opts.Content,
		AIAnalysis:  opts.AIAnalysis,
		IsCompleted: opts.IsCompleted,
		UpdatedAt:   e.timestamp(),
	})
	if err != nil {
		return domain.StageContent{}, fmt.Errorf("upsert stage content: %w", err)
	}
	_ = e.Events.Append(ctx, events.TypeStageSaved, ventureID, stage, opts.ActorID, events.Payload{"completed": sc.IsCompleted})
	return sc, nil
}

// CompleteStage marks a stage complete, creating its content row if none
// exists yet. This is the only operation that sets the completion flag.
func (e *Engine) CompleteStage(ctx context.Context, ventureID string, stage domain.Stage, content, aiAnalysis json.RawMessage, actorID string) (domain.StageContent, error) {
	if !stage.Valid() {
		return domain.StageContent{}, validationf("invalid stage %q", stage)
	}
	if content == nil {
		content = json.RawMessage(`{"completed":true}`)
	}
	done := true
	sc, err := e.UpsertStageContent(ctx, ventureID, stage, StageContentOptions{
		Content:     content,
		AIAnalysis:  aiAnalysis,
		IsCompleted: &done,
		ActorID:     actorID,
	})
	if err != nil {
		return domain.StageContent{}, err
	}
	_ = e.Events.Append(ctx, events.TypeStageCompleted, ventureID, stage, actorID, nil)
	return sc, nil
}

func (e *Engine) GetStageContent(ctx context.Context, ventureID string, stage domain.Stage) (domain.StageContent, error) {
	if !stage.Valid() {
		return domain.StageContent{}, validationf("invalid stage %q", stage)
	}
	return e.Store.GetStageContent(ctx, ventureID, stage)
}

func (e *Engine) ListStageContents(ctx context.Context, ventureID string) ([]domain.StageContent, error) {
	if _, err := e.Store.GetVenture(ctx, ventureID); err != nil {
		return nil, err
	}
	return e.Store.ListStageContents(ctx, ventureID)
}

func (e *Engine) ListMessages(ctx context.Context, ventureID string, stage domain.Stage) ([]domain.ChatMessage, error) {
	if !stage.Valid() {
		return nil, validationf("invalid stage %q", stage)
	}
	if _, err := e.Store.GetVenture(ctx, ventureID); err != nil {
		return nil, err
	}
	return e.Store.ListChatMessages(ctx, ventureID, stage)
}

// TurnResult is the synchronous outcome of one chat turn.
type TurnResult struct {
	UserMessage      domain.ChatMessage
	AssistantMessage domain.ChatMessage
	AIAnalysis       json.RawMessage
}

// SubmitMessage handles one chat turn: the user message is durably
// appended first, then the stage routine runs against the prior history,
// then the assistant reply and any analysis are persisted. Collaborator
// failures degrade to a fallback reply; the turn always records both
// messages.
func (e *Engine) SubmitMessage(ctx context.Context, ventureID string, stage domain.Stage, content, actorID string) (TurnResult, error) {
	if !stage.Valid() {
		return TurnResult{}, validationf("invalid stage %q", stage)
	}
	if strings.TrimSpace(content) == "" {
		return TurnResult{}, validationf("message content is required")
	}
	if _, err := e.Store.GetVenture(ctx, ventureID); err != nil {
		return TurnResult{}, err
	}

	unlock := e.locks.lock(ventureID, stage)
	defer unlock()

	history, err := e.Store.ListChatMessages(ctx, ventureID, stage)
	if err != nil {
		return TurnResult{}, fmt.Errorf("load conversation: %w", err)
	}

	userMsg := domain.ChatMessage{
		ID:        uuid.NewString(),
		VentureID: ventureID,
		Stage:     stage,
		Role:      domain.RoleUser,
		Content:   content,
		Timestamp: e.timestamp(),
	}
	if err := e.Store.AppendChatMessage(ctx, userMsg); err != nil {
		return TurnResult{}, fmt.Errorf("append user message: %w", err)
	}

	reply := genericReply
	var analysisDoc json.RawMessage
	if analysis.HasRoutine(stage) {
		res, err := analysis.Run(ctx, e.AI, stage, content, history)
		if err != nil {
			reply = fallbackReply
			_ = e.Events.Append(ctx, events.TypeAnalysisFailed, ventureID, stage, actorID, events.Payload{"error": err.Error()})
		} else {
			reply = res.Response
			analysisDoc = res.Analysis
		}
	}

	assistantMsg := domain.ChatMessage{
		ID:        uuid.NewString(),
		VentureID: ventureID,
		Stage:     stage,
		Role:      domain.RoleAssistant,
		Content:   reply,
		Timestamp: e.timestamp(),
	}
	if err := e.Store.AppendChatMessage(ctx, assistantMsg); err != nil {
		return TurnResult{}, fmt.Errorf("append assistant message: %w", err)
	}

	if analysisDoc != nil {
		if _, err := e.Store.UpsertStageContent(ctx, store.StageContentUpsert{
			VentureID:  ventureID,
			Stage:      stage,
			NewID:      uuid.NewString(),
			AIAnalysis: analysisDoc,
			UpdatedAt:  e.timestamp(),
		}); err != nil {
			return TurnResult{}, fmt.Errorf("persist analysis: %w", err)
		}
	}

	_ = e.Events.Append(ctx, events.TypeMessageSent, ventureID, stage, actorID, events.Payload{"analysis": analysisDoc != nil})
	return TurnResult{UserMessage: userMsg, AssistantMessage: assistantMsg, AIAnalysis: analysisDoc}, nil
}

// MissingStages lists the required stages without a completed content row,
// in canonical order.
func (e *Engine) MissingStages(ctx context.Context, ventureID string) ([]domain.Stage, error) {
	contents, err := e.Store.ListStageContents(ctx, ventureID)
	if err != nil {
		return nil, err
	}
	completed := map[domain.Stage]bool{}
	for _, sc := range contents {
		if sc.IsCompleted {
			completed[sc.Stage] = true
		}
	}
	var missing []domain.Stage
	for _, s := range domain.RequiredForReport() {
		if !completed[s] {
			missing = append(missing, s)
		}
	}
	return missing, nil
}

// GenerateReport synthesizes and persists the venture's report. All six
// working stages must be complete; on success the venture is marked
// completed. Synthesis failure writes nothing.
func (e *Engine) GenerateReport(ctx context.Context, ventureID, actorID string) (domain.Report, error) {
	v, err := e.Store.GetVenture(ctx, ventureID)
	if err != nil {
		return domain.Report{}, err
	}
	missing, err := e.MissingStages(ctx, ventureID)
	if err != nil {
		return domain.Report{}, err
	}
	if len(missing) > 0 {
		return domain.Report{}, &IncompleteStagesError{Missing: missing}
	}

	contents, err := e.Store.ListStageContents(ctx, ventureID)
	if err != nil {
		return domain.Report{}, err
	}
	data, err := analysis.GenerateReport(ctx, e.AI, v, contents)
	if err != nil {
		return domain.Report{}, &SynthesisError{Err: err}
	}

	report := domain.Report{
		ID:            uuid.NewString(),
		VentureID:     ventureID,
		Title:         v.Title,
		FullReport:    data.FullReport,
		PitchDeck:     data.PitchDeck,
		ElevatorPitch: data.ElevatorPitch,
		FullPitch:     data.FullPitch,
		CreatedAt:     e.timestamp(),
	}
	if err := e.Store.UpsertReport(ctx, report); err != nil {
		return domain.Report{}, fmt.Errorf("save report: %w", err)
	}
	done := true
	if err := e.Store.UpdateVenture(ctx, ventureID, store.VentureUpdate{IsCompleted: &done, UpdatedAt: e.timestamp()}); err != nil {
		return domain.Report{}, fmt.Errorf("mark venture completed: %w", err)
	}
	_ = e.Events.Append(ctx, events.TypeReportGenerated, ventureID, "", actorID, events.Payload{"reportId": report.ID})
	_ = e.Events.Append(ctx, events.TypeVentureCompleted, ventureID, "", actorID, nil)
	return report, nil
}

func (e *Engine) GetReport(ctx context.Context, ventureID string) (domain.Report, error) {
	return e.Store.GetReport(ctx, ventureID)
}
