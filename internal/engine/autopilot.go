package engine

import (
	"context"
	"fmt"

	"ventureline/internal/domain"
)

// autopilotPrompts drive each working stage with a synthetic user turn when
// no seed text is given for it.
var autopilotPrompts = map[domain.Stage]string{
	domain.StageInitialIdea:         "Please analyze my initial idea based on what I've described so far and summarize the problem, solution, and customers.",
	domain.StageSmartRefinement:     "Please evaluate the idea against the SMART criteria and suggest how to make it more specific, measurable, achievable, relevant, and time-bound.",
	domain.StageOpportunityAnalysis: "Please assess the market opportunity: market size, growth potential, and the competitive landscape.",
	domain.StageVentureThesis:       "Please formulate a complete venture thesis: vision, mission, solution, target customers, business model, and roadmap.",
	domain.StageViabilityAssessment: "Please assess commercial viability: demand, financial projections, break-even, and key risks with mitigations.",
	domain.StageGTMStrategy:         "Please build a go-to-market strategy: target segments, channels, pricing, sales motion, and a launch plan.",
}

// AutopilotOptions configures a batch run.
type AutopilotOptions struct {
	VentureID string
	// Seed replaces the synthetic initialIdea prompt; later stages always
	// use their built-in prompts.
	Seed    string
	ActorID string
	// Progress, when set, is called after each stage finishes.
	Progress func(stage domain.Stage, turn TurnResult)
}

// Autopilot drives a venture through every working stage sequentially:
// one chat turn, stage completion, and pointer advancement per stage, then
// report generation. It is an ordinary client of the same operations the
// HTTP surface exposes.
func (e *Engine) Autopilot(ctx context.Context, opts AutopilotOptions) (domain.Report, error) {
	if _, err := e.Store.GetVenture(ctx, opts.VentureID); err != nil {
		return domain.Report{}, err
	}
	for _, stage := range domain.RequiredForReport() {
		if err := ctx.Err(); err != nil {
			return domain.Report{}, err
		}
		prompt := autopilotPrompts[stage]
		if stage == domain.StageInitialIdea && opts.Seed != "" {
			prompt = opts.Seed
		}
		turn, err := e.SubmitMessage(ctx, opts.VentureID, stage, prompt, opts.ActorID)
		if err != nil {
			return domain.Report{}, fmt.Errorf("autopilot: stage %s turn: %w", stage, err)
		}
		if _, err := e.CompleteStage(ctx, opts.VentureID, stage, nil, turn.AIAnalysis, opts.ActorID); err != nil {
			return domain.Report{}, fmt.Errorf("autopilot: complete %s: %w", stage, err)
		}
		next := stage.Order() + 1
		if _, err := e.AdvanceStage(ctx, opts.VentureID, next, opts.ActorID); err != nil {
			return domain.Report{}, fmt.Errorf("autopilot: advance past %s: %w", stage, err)
		}
		if opts.Progress != nil {
			opts.Progress(stage, turn)
		}
	}
	report, err := e.GenerateReport(ctx, opts.VentureID, opts.ActorID)
	if err != nil {
		return domain.Report{}, fmt.Errorf("autopilot: %w", err)
	}
	return report, nil
}
