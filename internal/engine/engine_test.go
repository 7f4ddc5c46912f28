package engine_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"ventureline/internal/ai"
	"ventureline/internal/config"
	"ventureline/internal/domain"
	"ventureline/internal/engine"
	"ventureline/internal/store"
	"ventureline/internal/store/memory"
)

// fakeAI is a scriptable Collaborator.
type fakeAI struct {
	structuredErr error
	chatErr       error
	structured    string
	report        string
	reply         string
}

func (f *fakeAI) AnalyzeStructured(_ context.Context, systemPrompt, _ string) (json.RawMessage, error) {
	if f.structuredErr != nil {
		return nil, f.structuredErr
	}
	if strings.Contains(systemPrompt, "venture report") {
		out := f.report
		if out == "" {
			out = `{"fullReport":{"executiveSummary":"summary"},"pitchDeck":[{"title":"Problem","content":"big"}],"elevatorPitch":"pitch","fullPitch":"long pitch"}`
		}
		return json.RawMessage(out), nil
	}
	out := f.structured
	if out == "" {
		out = `{"keywords":["marketplace","pets"],"problemSolutionFit":80}`
	}
	return json.RawMessage(out), nil
}

func (f *fakeAI) ChatCompletion(_ context.Context, _ []ai.Message) (string, error) {
	if f.chatErr != nil {
		return "", f.chatErr
	}
	if f.reply == "" {
		return "Sounds promising! Tell me more.", nil
	}
	return f.reply, nil
}

type testEnv struct {
	Engine *engine.Engine
	AI     *fakeAI
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	fake := &fakeAI{}
	eng := engine.New(memory.New(), fake, config.Default())
	eng.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return testEnv{Engine: eng, AI: fake, Ctx: context.Background()}
}

func createVenture(t *testing.T, env testEnv) domain.Venture {
	t.Helper()
	v, err := env.Engine.CreateVenture(env.Ctx, "user-1", "Pet-sitting marketplace")
	if err != nil {
		t.Fatalf("create venture: %v", err)
	}
	return v
}

func TestCreateVentureSeedsWelcome(t *testing.T) {
	env := newTestEnv(t)
	v := createVenture(t, env)
	if v.CurrentStage != 1 || v.IsCompleted {
		t.Fatalf("unexpected venture state: stage=%d completed=%v", v.CurrentStage, v.IsCompleted)
	}
	msgs, err := env.Engine.ListMessages(env.Ctx, v.ID, domain.StageInitialIdea)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Role != domain.RoleAssistant {
		t.Fatalf("expected one seeded assistant message, got %d", len(msgs))
	}
	if msgs[0].Content != engine.WelcomeMessage {
		t.Fatalf("unexpected welcome text: %q", msgs[0].Content)
	}
}

func TestCreateVentureRequiresTitle(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.CreateVenture(env.Ctx, "user-1", "  ")
	var ve *engine.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmitMessageAppendsPair(t *testing.T) {
	env := newTestEnv(t)
	v := createVenture(t, env)
	turn, err := env.Engine.SubmitMessage(env.Ctx, v.ID, domain.StageInitialIdea, "I want to build a pet-sitting marketplace", "user-1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if turn.UserMessage.Role != domain.RoleUser || turn.AssistantMessage.Role != domain.RoleAssistant {
		t.Fatalf("bad roles: %s/%s", turn.UserMessage.Role, turn.AssistantMessage.Role)
	}
	if turn.AIAnalysis == nil {
		t.Fatalf("expected analysis on collaborator success")
	}
	var parsed domain.InitialIdeaAnalysis
	if err := json.Unmarshal(turn.AIAnalysis, &parsed); err != nil {
		t.Fatalf("decode analysis: %v", err)
	}
	if len(parsed.Keywords) == 0 {
		t.Fatalf("expected keywords in analysis")
	}
	msgs, err := env.Engine.ListMessages(env.Ctx, v.ID, domain.StageInitialIdea)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	// welcome + user + assistant
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[1].Role != domain.RoleUser || msgs[2].Role != domain.RoleAssistant {
		t.Fatalf("messages out of order: %s then %s", msgs[1].Role, msgs[2].Role)
	}
}

func TestSubmitMessageDegradesOnAnalysisFailure(t *testing.T) {
	env := newTestEnv(t)
	env.AI.structuredErr = errors.New("quota exceeded")
	v := createVenture(t, env)
	turn, err := env.Engine.SubmitMessage(env.Ctx, v.ID, domain.StageInitialIdea, "my idea", "user-1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if turn.AIAnalysis != nil {
		t.Fatalf("expected no analysis on failure")
	}
	if turn.AssistantMessage.Content == "" {
		t.Fatalf("expected non-empty fallback reply")
	}
	msgs, err := env.Engine.ListMessages(env.Ctx, v.ID, domain.StageInitialIdea)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 3 || msgs[1].Role != domain.RoleUser {
		t.Fatalf("user message must persist on failure")
	}
	// no stage content row was written
	_, err = env.Engine.GetStageContent(env.Ctx, v.ID, domain.StageInitialIdea)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected no stage content, got %v", err)
	}
}

func TestSubmitMessageGenericReplyForReportStage(t *testing.T) {
	env := newTestEnv(t)
	v := createVenture(t, env)
	turn, err := env.Engine.SubmitMessage(env.Ctx, v.ID, domain.StagePitchReport, "what now?", "user-1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if turn.AIAnalysis != nil {
		t.Fatalf("pitchReport must not produce analysis")
	}
	if !strings.Contains(turn.AssistantMessage.Content, "Thank you for your input") {
		t.Fatalf("expected generic reply, got %q", turn.AssistantMessage.Content)
	}
}

func TestSubmitMessageInvalidStage(t *testing.T) {
	env := newTestEnv(t)
	v := createVenture(t, env)
	_, err := env.Engine.SubmitMessage(env.Ctx, v.ID, domain.Stage("nonsense"), "hi", "user-1")
	var ve *engine.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStageContentUpsertKeepsSingleRow(t *testing.T) {
	env := newTestEnv(t)
	v := createVenture(t, env)
	first, err := env.Engine.UpsertStageContent(env.Ctx, v.ID, domain.StageInitialIdea, engine.StageContentOptions{
		Content: json.RawMessage(`{"draft":1}`),
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	done := true
	second, err := env.Engine.UpsertStageContent(env.Ctx, v.ID, domain.StageInitialIdea, engine.StageContentOptions{
		IsCompleted: &done,
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("upsert created a second row")
	}
	// omitted content must survive
	if string(second.Content) != `{"draft":1}` {
		t.Fatalf("content clobbered: %s", second.Content)
	}
	if !second.IsCompleted {
		t.Fatalf("completion flag not set")
	}
	all, err := env.Engine.ListStageContents(env.Ctx, v.ID)
	if err != nil || len(all) != 1 {
		t.Fatalf("expected exactly one row, got %d (%v)", len(all), err)
	}
}

func TestCompleteStageAndIsStageComplete(t *testing.T) {
	env := newTestEnv(t)
	v := createVenture(t, env)
	ok, err := env.Engine.IsStageComplete(env.Ctx, v.ID, domain.StageSmartRefinement)
	if err != nil || ok {
		t.Fatalf("expected incomplete before completion")
	}
	if _, err := env.Engine.CompleteStage(env.Ctx, v.ID, domain.StageSmartRefinement, nil, nil, "user-1"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	ok, err = env.Engine.IsStageComplete(env.Ctx, v.ID, domain.StageSmartRefinement)
	if err != nil || !ok {
		t.Fatalf("expected complete after completion")
	}
}

func TestAdvanceStageValidatesRank(t *testing.T) {
	env := newTestEnv(t)
	v := createVenture(t, env)
	updated, err := env.Engine.AdvanceStage(env.Ctx, v.ID, 2, "user-1")
	if err != nil || updated.CurrentStage != 2 {
		t.Fatalf("advance to 2: %v", err)
	}
	_, err = env.Engine.AdvanceStage(env.Ctx, v.ID, 9, "user-1")
	var ve *engine.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error for rank 9, got %v", err)
	}
}

func TestReachableStages(t *testing.T) {
	env := newTestEnv(t)
	v := createVenture(t, env)
	if got := env.Engine.ReachableStages(v); len(got) != 1 || got[0] != domain.StageInitialIdea {
		t.Fatalf("fresh venture should only reach initialIdea, got %v", got)
	}
	v, err := env.Engine.AdvanceStage(env.Ctx, v.ID, 3, "user-1")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if got := env.Engine.ReachableStages(v); len(got) != 3 {
		t.Fatalf("expected 3 reachable stages, got %v", got)
	}
}

func TestReportRefusedWithMissingStages(t *testing.T) {
	env := newTestEnv(t)
	v := createVenture(t, env)
	if _, err := env.Engine.CompleteStage(env.Ctx, v.ID, domain.StageInitialIdea, nil, nil, "user-1"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	_, err := env.Engine.GenerateReport(env.Ctx, v.ID, "user-1")
	var ie *engine.IncompleteStagesError
	if !errors.As(err, &ie) {
		t.Fatalf("expected incomplete-stages error, got %v", err)
	}
	want := "smartRefinement, opportunityAnalysis, ventureThesis, viabilityAssessment, gtmStrategy"
	if !strings.Contains(ie.Error(), want) {
		t.Fatalf("error must list missing stages in order: %q", ie.Error())
	}
	if _, err := env.Engine.GetReport(env.Ctx, v.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("no partial report may be written, got %v", err)
	}
}

func completeRequiredStages(t *testing.T, env testEnv, ventureID string) {
	t.Helper()
	for _, s := range domain.RequiredForReport() {
		if _, err := env.Engine.CompleteStage(env.Ctx, ventureID, s, nil, nil, "user-1"); err != nil {
			t.Fatalf("complete %s: %v", s, err)
		}
	}
}

func TestReportGenerationCompletesVenture(t *testing.T) {
	env := newTestEnv(t)
	v := createVenture(t, env)
	completeRequiredStages(t, env, v.ID)
	report, err := env.Engine.GenerateReport(env.Ctx, v.ID, "user-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(report.FullReport) == 0 || len(report.PitchDeck) == 0 || report.ElevatorPitch == "" || report.FullPitch == "" {
		t.Fatalf("incomplete report artifact: %+v", report)
	}
	got, err := env.Engine.GetReport(env.Ctx, v.ID)
	if err != nil || got.ID != report.ID {
		t.Fatalf("fetch after generate: %v", err)
	}
	v, err = env.Engine.GetVenture(env.Ctx, v.ID)
	if err != nil || !v.IsCompleted {
		t.Fatalf("venture must be completed after report")
	}
}

func TestReportSynthesisFailureWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	v := createVenture(t, env)
	completeRequiredStages(t, env, v.ID)
	env.AI.structuredErr = errors.New("model unavailable")
	_, err := env.Engine.GenerateReport(env.Ctx, v.ID, "user-1")
	var se *engine.SynthesisError
	if !errors.As(err, &se) {
		t.Fatalf("expected synthesis error, got %v", err)
	}
	if _, err := env.Engine.GetReport(env.Ctx, v.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("failed synthesis must not write a report")
	}
	got, err := env.Engine.GetVenture(env.Ctx, v.ID)
	if err != nil || got.IsCompleted {
		t.Fatalf("failed synthesis must not complete the venture")
	}
}

func TestDeleteVenture(t *testing.T) {
	env := newTestEnv(t)
	v := createVenture(t, env)
	if err := env.Engine.DeleteVenture(env.Ctx, v.ID, "user-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.Engine.GetVenture(env.Ctx, v.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found after delete")
	}
	if err := env.Engine.DeleteVenture(env.Ctx, v.ID, "user-1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for second delete, got %v", err)
	}
}

func TestAutopilotDrivesAllStages(t *testing.T) {
	env := newTestEnv(t)
	v := createVenture(t, env)
	var visited []domain.Stage
	report, err := env.Engine.Autopilot(env.Ctx, engine.AutopilotOptions{
		VentureID: v.ID,
		Seed:      "An app matching pet owners with sitters",
		ActorID:   "user-1",
		Progress:  func(s domain.Stage, _ engine.TurnResult) { visited = append(visited, s) },
	})
	if err != nil {
		t.Fatalf("autopilot: %v", err)
	}
	if len(visited) != 6 {
		t.Fatalf("expected 6 stages driven, got %v", visited)
	}
	if report.ElevatorPitch == "" {
		t.Fatalf("expected report from autopilot")
	}
	v, err = env.Engine.GetVenture(env.Ctx, v.ID)
	if err != nil || v.CurrentStage != 7 || !v.IsCompleted {
		t.Fatalf("autopilot must land on pitchReport completed, got stage=%d completed=%v", v.CurrentStage, v.IsCompleted)
	}
}
