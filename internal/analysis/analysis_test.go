package analysis_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"ventureline/internal/ai"
	"ventureline/internal/analysis"
	"ventureline/internal/domain"
)

type fakeAI struct {
	structuredCalls atomic.Int32
	chatCalls       atomic.Int32
	structuredErr   error
	chatErr         error

	lastSystem string
	lastUser   string
	lastChat   []ai.Message
}

func (f *fakeAI) AnalyzeStructured(_ context.Context, systemPrompt, userPrompt string) (json.RawMessage, error) {
	f.structuredCalls.Add(1)
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	if f.structuredErr != nil {
		return nil, f.structuredErr
	}
	return json.RawMessage(`{"overallScore":80}`), nil
}

func (f *fakeAI) ChatCompletion(_ context.Context, messages []ai.Message) (string, error) {
	f.chatCalls.Add(1)
	f.lastChat = messages
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return "Good progress.", nil
}

func TestHasRoutine(t *testing.T) {
	for _, s := range domain.RequiredForReport() {
		if !analysis.HasRoutine(s) {
			t.Fatalf("stage %s should have a routine", s)
		}
	}
	if analysis.HasRoutine(domain.StagePitchReport) {
		t.Fatalf("pitchReport must not have a routine")
	}
}

func TestRunIssuesBothCalls(t *testing.T) {
	fake := &fakeAI{}
	res, err := analysis.Run(context.Background(), fake, domain.StageSmartRefinement, "my idea", nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if fake.structuredCalls.Load() != 1 || fake.chatCalls.Load() != 1 {
		t.Fatalf("expected one call of each kind")
	}
	if res.Response != "Good progress." || string(res.Analysis) != `{"overallScore":80}` {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestRunFailsIfEitherCallFails(t *testing.T) {
	fake := &fakeAI{structuredErr: errors.New("boom")}
	if _, err := analysis.Run(context.Background(), fake, domain.StageInitialIdea, "idea", nil); err == nil {
		t.Fatalf("expected failure when structured call fails")
	}
	fake = &fakeAI{chatErr: errors.New("boom")}
	if _, err := analysis.Run(context.Background(), fake, domain.StageInitialIdea, "idea", nil); err == nil {
		t.Fatalf("expected failure when chat call fails")
	}
}

func TestRunRejectsRoutinelessStage(t *testing.T) {
	if _, err := analysis.Run(context.Background(), &fakeAI{}, domain.StagePitchReport, "x", nil); err == nil {
		t.Fatalf("expected error for pitchReport")
	}
}

func TestInitialIdeaContextUsesOnlyUserMessages(t *testing.T) {
	fake := &fakeAI{}
	history := []domain.ChatMessage{
		{Role: domain.RoleAssistant, Content: "Welcome!"},
		{Role: domain.RoleUser, Content: "first thought"},
	}
	if _, err := analysis.Run(context.Background(), fake, domain.StageInitialIdea, "second thought", history); err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.Contains(fake.lastUser, "Welcome!") {
		t.Fatalf("assistant text leaked into initialIdea analysis context")
	}
	if !strings.Contains(fake.lastUser, "first thought") || !strings.Contains(fake.lastUser, "second thought") {
		t.Fatalf("user messages missing from context: %q", fake.lastUser)
	}
}

func TestLaterStageContextIsRoleTagged(t *testing.T) {
	fake := &fakeAI{}
	history := []domain.ChatMessage{
		{Role: domain.RoleAssistant, Content: "feedback"},
		{Role: domain.RoleUser, Content: "answer"},
	}
	if _, err := analysis.Run(context.Background(), fake, domain.StageOpportunityAnalysis, "more detail", history); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"assistant: feedback", "user: answer", "user: more detail"} {
		if !strings.Contains(fake.lastUser, want) {
			t.Fatalf("context missing %q: %q", want, fake.lastUser)
		}
	}
}

func TestChatContextIncludesHistoryAndSystemPrompt(t *testing.T) {
	fake := &fakeAI{}
	history := []domain.ChatMessage{
		{Role: domain.RoleAssistant, Content: "Welcome!"},
	}
	if _, err := analysis.Run(context.Background(), fake, domain.StageInitialIdea, "my idea", history); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(fake.lastChat) != 3 {
		t.Fatalf("expected system + history + new message, got %d", len(fake.lastChat))
	}
	if fake.lastChat[0].Role != "system" || fake.lastChat[1].Role != "assistant" || fake.lastChat[2].Role != "user" {
		t.Fatalf("unexpected roles: %+v", fake.lastChat)
	}
	if fake.lastChat[2].Content != "my idea" {
		t.Fatalf("new message must be last")
	}
}

func TestGenerateReport(t *testing.T) {
	fake := &fakeAI{}
	venture := domain.Venture{ID: "v1", Title: "X"}
	contents := []domain.StageContent{
		{Stage: domain.StageInitialIdea, Content: json.RawMessage(`{"a":1}`), AIAnalysis: json.RawMessage(`{"keywords":["k"]}`)},
	}
	fakeWithReport := &reportAI{fakeAI: fake}
	data, err := analysis.GenerateReport(context.Background(), fakeWithReport, venture, contents)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(data.PitchDeck) != 1 || data.ElevatorPitch == "" || data.FullPitch == "" {
		t.Fatalf("unexpected report data: %+v", data)
	}
	if !strings.Contains(fake.lastUser, `"initialIdea"`) {
		t.Fatalf("stage content missing from report context: %q", fake.lastUser)
	}
}

func TestGenerateReportRejectsMalformedOutput(t *testing.T) {
	fake := &fakeAI{}
	if _, err := analysis.GenerateReport(context.Background(), fake, domain.Venture{ID: "v"}, nil); err == nil {
		t.Fatalf("expected error for report without fullReport")
	}
}

// reportAI returns a valid report document from the structured call.
type reportAI struct {
	*fakeAI
}

func (r *reportAI) AnalyzeStructured(ctx context.Context, systemPrompt, userPrompt string) (json.RawMessage, error) {
	if _, err := r.fakeAI.AnalyzeStructured(ctx, systemPrompt, userPrompt); err != nil {
		return nil, err
	}
	return json.RawMessage(`{"fullReport":{"summary":"s"},"pitchDeck":[{"title":"T","content":"c"}],"elevatorPitch":"e","fullPitch":"f"}`), nil
}
