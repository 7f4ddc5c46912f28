package domain

import (
	"encoding/json"
	"fmt"
)

// Each working stage produces an analysis with its own schema. The payloads
// are stored as JSON on StageContent.AIAnalysis; DecodeAnalysis recovers the
// typed variant for a given stage. All fields are optional from the
// consumer's perspective, so everything carries omitempty.

type InitialIdeaAnalysis struct {
	Keywords           []string     `json:"keywords,omitempty"`
	ProblemSolutionFit int          `json:"problemSolutionFit,omitempty"`
	SuggestedAspects   []string     `json:"suggestedAspects,omitempty"`
	Entities           IdeaEntities `json:"entities"`
}

type IdeaEntities struct {
	Problems  []string `json:"problems,omitempty"`
	Solutions []string `json:"solutions,omitempty"`
	Customers []string `json:"customers,omitempty"`
	Market    []string `json:"market,omitempty"`
}

type SMARTCriterion struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback,omitempty"`
}

type SMARTAnalysis struct {
	Specific     SMARTCriterion `json:"specific"`
	Measurable   SMARTCriterion `json:"measurable"`
	Achievable   SMARTCriterion `json:"achievable"`
	Relevant     SMARTCriterion `json:"relevant"`
	TimeBound    SMARTCriterion `json:"timeBound"`
	OverallScore int            `json:"overallScore,omitempty"`
	NextSteps    []string       `json:"nextSteps,omitempty"`
}

type MarketAnalysis struct {
	MarketSize           MarketSize           `json:"marketSize"`
	GrowthPotential      GrowthPotential      `json:"growthPotential"`
	CompetitiveLandscape CompetitiveLandscape `json:"competitiveLandscape"`
	OpportunityScore     int                  `json:"opportunityScore,omitempty"`
	MarketInsights       []string             `json:"marketInsights,omitempty"`
}

type MarketSize struct {
	TAM         string `json:"tam,omitempty"`
	SAM         string `json:"sam,omitempty"`
	SOM         string `json:"som,omitempty"`
	Description string `json:"description,omitempty"`
}

type GrowthPotential struct {
	Rate    string   `json:"rate,omitempty"`
	Factors []string `json:"factors,omitempty"`
}

type CompetitiveLandscape struct {
	DirectCompetitors   []string `json:"directCompetitors,omitempty"`
	IndirectCompetitors []string `json:"indirectCompetitors,omitempty"`
	Advantages          []string `json:"advantages,omitempty"`
	Threats             []string `json:"threats,omitempty"`
}

type ThesisAnalysis struct {
	Vision                string          `json:"vision,omitempty"`
	Mission               string          `json:"mission,omitempty"`
	ProblemStatement      string          `json:"problemStatement,omitempty"`
	Solution              ThesisSolution  `json:"solution"`
	TargetCustomers       TargetCustomers `json:"targetCustomers"`
	BusinessModel         BusinessModel   `json:"businessModel"`
	CompetitiveAdvantages []string        `json:"competitiveAdvantages,omitempty"`
	Roadmap               Roadmap         `json:"roadmap"`
	OverallScore          int             `json:"overallScore,omitempty"`
}

type ThesisSolution struct {
	Description string   `json:"description,omitempty"`
	KeyFeatures []string `json:"keyFeatures,omitempty"`
	UniqueValue string   `json:"uniqueValue,omitempty"`
}

type TargetCustomers struct {
	Segments []string          `json:"segments,omitempty"`
	Personas []CustomerPersona `json:"personas,omitempty"`
}

type CustomerPersona struct {
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	PainPoints  []string `json:"painPoints,omitempty"`
}

type BusinessModel struct {
	RevenueStreams      []string `json:"revenueStreams,omitempty"`
	PricingStrategy     string   `json:"pricingStrategy,omitempty"`
	CustomerAcquisition string   `json:"customerAcquisition,omitempty"`
	KeyPartners         []string `json:"keyPartners,omitempty"`
}

type Roadmap struct {
	ShortTerm  []string `json:"shortTerm,omitempty"`
	MediumTerm []string `json:"mediumTerm,omitempty"`
	LongTerm   []string `json:"longTerm,omitempty"`
}

type ViabilityAnalysis struct {
	MarketAssessment     MarketAssessment     `json:"marketAssessment"`
	FinancialProjections FinancialProjections `json:"financialProjections"`
	RiskAssessment       RiskAssessment       `json:"riskAssessment"`
	ViabilityScore       int                  `json:"viabilityScore,omitempty"`
	RecommendedActions   []string             `json:"recommendedActions,omitempty"`
}

type MarketAssessment struct {
	DemandLevel         string   `json:"demandLevel,omitempty" enum:"high,medium,low"`
	DemandReasons       []string `json:"demandReasons,omitempty"`
	BarrierToEntry      string   `json:"barrierToEntry,omitempty"`
	CompetitivePressure string   `json:"competitivePressure,omitempty" enum:"high,medium,low"`
}

type FinancialProjections struct {
	Projections     []YearProjection `json:"projections,omitempty"`
	BreakEvenPoint  BreakEvenPoint   `json:"breakEvenPoint"`
	KeyAssumptions  []string         `json:"keyAssumptions,omitempty"`
	CapitalRequired string           `json:"capitalRequired,omitempty"`
}

type YearProjection struct {
	Year     int     `json:"year"`
	Revenue  float64 `json:"revenue"`
	Expenses float64 `json:"expenses"`
	Profit   float64 `json:"profit"`
}

type BreakEvenPoint struct {
	Time    string  `json:"time,omitempty"`
	Units   int     `json:"units,omitempty"`
	Revenue float64 `json:"revenue,omitempty"`
}

type RiskAssessment struct {
	KeyRisks           []Risk `json:"keyRisks,omitempty"`
	SuccessProbability int    `json:"successProbability,omitempty"`
}

type Risk struct {
	Risk       string `json:"risk"`
	Impact     string `json:"impact,omitempty" enum:"high,medium,low"`
	Mitigation string `json:"mitigation,omitempty"`
}

type GTMAnalysis struct {
	TargetMarketStrategy TargetMarketStrategy `json:"targetMarketStrategy"`
	MarketingStrategy    MarketingStrategy    `json:"marketingStrategy"`
	SalesStrategy        SalesStrategy        `json:"salesStrategy"`
	PricingStrategy      PricingStrategy      `json:"pricingStrategy"`
	CustomerAcquisition  AcquisitionModel     `json:"customerAcquisition"`
	LaunchPlan           LaunchPlan           `json:"launchPlan"`
	OverallScore         int                  `json:"overallScore,omitempty"`
}

type TargetMarketStrategy struct {
	PrimarySegments       []string          `json:"primarySegments,omitempty"`
	SegmentPrioritization []SegmentPriority `json:"segmentPrioritization,omitempty"`
	EarlyAdopters         string            `json:"earlyAdopters,omitempty"`
}

type SegmentPriority struct {
	Segment   string `json:"segment"`
	Priority  int    `json:"priority"`
	Reasoning string `json:"reasoning,omitempty"`
}

type MarketingStrategy struct {
	ValueProposition string    `json:"valueProposition,omitempty"`
	KeyMessages      []string  `json:"keyMessages,omitempty"`
	Channels         []Channel `json:"channels,omitempty"`
	ContentStrategy  []string  `json:"contentStrategy,omitempty"`
}

type Channel struct {
	Name           string `json:"name"`
	Effectiveness  int    `json:"effectiveness,omitempty"`
	CostEfficiency int    `json:"costEfficiency,omitempty"`
	TimeToResults  int    `json:"timeToResults,omitempty"`
}

type SalesStrategy struct {
	SalesProcess             []string `json:"salesProcess,omitempty"`
	ConversionTactics        []string `json:"conversionTactics,omitempty"`
	PartnershipOpportunities []string `json:"partnershipOpportunities,omitempty"`
}

type PricingStrategy struct {
	Strategy           string        `json:"strategy,omitempty"`
	PricingTiers       []PricingTier `json:"pricingTiers,omitempty"`
	CompetitivePricing string        `json:"competitivePricing,omitempty"`
}

type PricingTier struct {
	Name     string   `json:"name"`
	Price    string   `json:"price,omitempty"`
	Benefits []string `json:"benefits,omitempty"`
	Target   string   `json:"target,omitempty"`
}

type AcquisitionModel struct {
	CAC               string            `json:"cac,omitempty"`
	LTV               string            `json:"ltv,omitempty"`
	GrowthProjections []MonthProjection `json:"growthProjections,omitempty"`
}

type MonthProjection struct {
	Month     int `json:"month"`
	Customers int `json:"customers"`
}

type LaunchPlan struct {
	Phases     []LaunchPhase `json:"phases,omitempty"`
	KeyMetrics []string      `json:"keyMetrics,omitempty"`
}

type LaunchPhase struct {
	Name       string   `json:"name"`
	Timeline   string   `json:"timeline,omitempty"`
	Activities []string `json:"activities,omitempty"`
	Goals      []string `json:"goals,omitempty"`
}

// DecodeAnalysis unmarshals a stored analysis payload into the typed variant
// for the given stage. pitchReport has no analysis schema of its own.
func DecodeAnalysis(stage Stage, raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v any
	switch stage {
	case StageInitialIdea:
		v = &InitialIdeaAnalysis{}
	case StageSmartRefinement:
		v = &SMARTAnalysis{}
	case StageOpportunityAnalysis:
		v = &MarketAnalysis{}
	case StageVentureThesis:
		v = &ThesisAnalysis{}
	case StageViabilityAssessment:
		v = &ViabilityAnalysis{}
	case StageGTMStrategy:
		v = &GTMAnalysis{}
	default:
		return nil, fmt.Errorf("stage %s has no analysis schema", stage)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("decode %s analysis: %w", stage, err)
	}
	return v, nil
}
