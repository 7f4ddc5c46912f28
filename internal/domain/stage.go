package domain

import "fmt"

// Stage identifies one step of the venture development pipeline.
type Stage string

const (
	StageInitialIdea         Stage = "initialIdea"
	StageSmartRefinement     Stage = "smartRefinement"
	StageOpportunityAnalysis Stage = "opportunityAnalysis"
	StageVentureThesis       Stage = "ventureThesis"
	StageViabilityAssessment Stage = "viabilityAssessment"
	StageGTMStrategy         Stage = "gtmStrategy"
	StagePitchReport         Stage = "pitchReport"
)

// stageOrder is the canonical 1-based rank of each stage. The order is
// load-bearing: it drives navigation gating and the report precondition.
var stageOrder = map[Stage]int{
	StageInitialIdea:         1,
	StageSmartRefinement:     2,
	StageOpportunityAnalysis: 3,
	StageVentureThesis:       4,
	StageViabilityAssessment: 5,
	StageGTMStrategy:         6,
	StagePitchReport:         7,
}

var stageLabels = map[Stage]string{
	StageInitialIdea:         "Initial Idea",
	StageSmartRefinement:     "SMART Refinement",
	StageOpportunityAnalysis: "Opportunity Analysis",
	StageVentureThesis:       "Venture Thesis",
	StageViabilityAssessment: "Viability Assessment",
	StageGTMStrategy:         "GTM Strategy",
	StagePitchReport:         "Pitch & Report",
}

// Stages lists all stages in canonical order.
func Stages() []Stage {
	return []Stage{
		StageInitialIdea,
		StageSmartRefinement,
		StageOpportunityAnalysis,
		StageVentureThesis,
		StageViabilityAssessment,
		StageGTMStrategy,
		StagePitchReport,
	}
}

// RequiredForReport lists the stages that must be completed before a report
// can be generated. pitchReport itself is the terminal stage and is not a
// prerequisite.
func RequiredForReport() []Stage {
	return Stages()[:6]
}

// ParseStage validates a raw stage name against the closed enum.
func ParseStage(s string) (Stage, error) {
	stage := Stage(s)
	if _, ok := stageOrder[stage]; !ok {
		return "", fmt.Errorf("invalid stage %q", s)
	}
	return stage, nil
}

// Order returns the 1-based canonical rank of the stage, or 0 if unknown.
func (s Stage) Order() int {
	return stageOrder[s]
}

// Label returns the display label of the stage.
func (s Stage) Label() string {
	return stageLabels[s]
}

// Valid reports whether the stage is one of the seven canonical values.
func (s Stage) Valid() bool {
	_, ok := stageOrder[s]
	return ok
}

// StageForRank returns the stage with the given 1-based rank.
func StageForRank(rank int) (Stage, error) {
	for stage, order := range stageOrder {
		if order == rank {
			return stage, nil
		}
	}
	return "", fmt.Errorf("invalid stage rank %d", rank)
}
