package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	"ventureline/internal/ai"
	"ventureline/internal/domain"
)

// ReportData is the synthesized output of the report routine.
type ReportData struct {
	FullReport    json.RawMessage `json:"fullReport"`
	PitchDeck     []domain.Slide  `json:"pitchDeck"`
	ElevatorPitch string          `json:"elevatorPitch"`
	FullPitch     string          `json:"fullPitch"`
}

type reportStage struct {
	Content  json.RawMessage `json:"content"`
	Analysis json.RawMessage `json:"analysis,omitempty"`
}

// GenerateReport synthesizes the final report from the venture and its
// accumulated stage contents in a single structured call.
func GenerateReport(ctx context.Context, c ai.Collaborator, venture domain.Venture, contents []domain.StageContent) (ReportData, error) {
	stages := make(map[domain.Stage]reportStage, len(contents))
	for _, sc := range contents {
		stages[sc.Stage] = reportStage{Content: sc.Content, Analysis: sc.AIAnalysis}
	}
	contextData, err := json.Marshal(struct {
		Venture domain.Venture               `json:"venture"`
		Stages  map[domain.Stage]reportStage `json:"stages"`
	}{venture, stages})
	if err != nil {
		return ReportData{}, fmt.Errorf("analysis: encode report context: %w", err)
	}

	raw, err := c.AnalyzeStructured(ctx, reportPrompt, string(contextData))
	if err != nil {
		return ReportData{}, fmt.Errorf("analysis: report call: %w", err)
	}
	var data ReportData
	if err := json.Unmarshal(raw, &data); err != nil {
		return ReportData{}, fmt.Errorf("analysis: decode report: %w", err)
	}
	if len(data.FullReport) == 0 {
		return ReportData{}, fmt.Errorf("analysis: report missing fullReport")
	}
	return data, nil
}
