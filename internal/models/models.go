package models

import "time"

// QueryType classifies the intent of an urban-planning query.
type QueryType string

const (
	QueryAnalytical       QueryType = "analytical"
	QueryComparative      QueryType = "comparative"
	QueryScenarioPlanning QueryType = "scenario_planning"
	QuerySolutionSeeking  QueryType = "solution_seeking"
)

// Domain is the primary planning domain a query touches.
type Domain string

const (
	DomainTransportation Domain = "transportation"
	DomainHousing        Domain = "housing"
	DomainClimate        Domain = "climate"
	DomainEconomic       Domain = "economic"
	DomainEnvironmental  Domain = "environmental"
	DomainGeneral        Domain = "general"
)

// Parameters holds quantities extracted from the query text. Nil means
// the query did not mention the quantity.
type Parameters struct {
	Percentage       *float64 `json:"percentage,omitempty"`
	Units            *int     `json:"units,omitempty"`
	TimeframeYears   *int     `json:"timeframe_years,omitempty"`
	TemperatureDelta *float64 `json:"temperature_delta,omitempty"`
}

// QueryClassification is the output of the classifier stage.
type QueryClassification struct {
	QueryType     QueryType  `json:"query_type"`
	PrimaryDomain Domain     `json:"primary_domain"`
	Neighborhoods []string   `json:"neighborhoods"`
	Elements      []string   `json:"elements"`
	Parameters    Parameters `json:"parameters"`
	// Comparative holds iff at least two neighborhoods resolved.
	Comparative bool    `json:"comparative"`
	Confidence  float64 `json:"confidence"`
}

// PlanArchetype names a development strategy used to seed variants.
type PlanArchetype string

const (
	ArchetypeConservative PlanArchetype = "conservative"
	ArchetypeModerate     PlanArchetype = "moderate"
	ArchetypeAggressive   PlanArchetype = "aggressive"
	ArchetypeInnovative   PlanArchetype = "innovative"
)

// Feasibility grades a variant against zoning constraints.
type Feasibility string

const (
	FullyCompliant    Feasibility = "fully_compliant"
	RequiresVariances Feasibility = "requires_variances"
	NeedsRezoning     Feasibility = "needs_rezoning"
	NotFeasible       Feasibility = "not_feasible"
)

// ConstraintViolation describes one zoning rule a proposal breaks.
type ConstraintViolation struct {
	Rule       string  `json:"rule"`
	Current    float64 `json:"current_value"`
	MaxAllowed float64 `json:"max_allowed"`
	Severity   string  `json:"severity"`
	Suggestion string  `json:"suggestion"`
}

// ScenarioVariant is one generated development alternative for a
// neighborhood.
type ScenarioVariant struct {
	Neighborhood    string                `json:"neighborhood"`
	Archetype       PlanArchetype         `json:"type"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	Units           int                   `json:"units"`
	AffordablePct   float64               `json:"affordable_percentage"`
	HeightFt        float64               `json:"height_ft"`
	FAR             float64               `json:"far"`
	Amenities       []string              `json:"amenities"`
	Feasibility     Feasibility           `json:"feasibility"`
	ComplianceScore float64               `json:"compliance_score"`
	Score           float64               `json:"score"`
	Violations      []ConstraintViolation `json:"violations,omitempty"`
}

// ImpactMetric compares a baseline value with a projected one.
type ImpactMetric struct {
	Before     float64 `json:"before"`
	After      float64 `json:"after"`
	Unit       string  `json:"unit"`
	Confidence float64 `json:"confidence"`
}

// CategoryImpact groups the metrics and narrative for one impact
// category. A category that could not produce a single insight is
// marked low-confidence instead of being dropped.
type CategoryImpact struct {
	Metrics       map[string]ImpactMetric `json:"metrics"`
	Benefits      []string                `json:"benefits"`
	Concerns      []string                `json:"concerns"`
	Mitigation    []string                `json:"mitigation_strategies"`
	Insights      []string                `json:"insights"`
	LowConfidence bool                    `json:"low_confidence,omitempty"`
}

// ComprehensiveImpact always carries the same five categories.
type ComprehensiveImpact struct {
	Housing           CategoryImpact `json:"housing"`
	Accessibility     CategoryImpact `json:"accessibility"`
	Equity            CategoryImpact `json:"equity"`
	Economic          CategoryImpact `json:"economic"`
	Environmental     CategoryImpact `json:"environmental"`
	OverallScore      float64        `json:"overall_score"`
	OverallAssessment string         `json:"overall_assessment"`
}

// ComparativeInsight contrasts two neighborhoods on one category.
type ComparativeInsight struct {
	Category     string  `json:"category"`
	Neighborhood string  `json:"neighborhood"`
	Other        string  `json:"other"`
	Delta        float64 `json:"delta"`
	Narrative    string  `json:"narrative"`
}

// ScenarioBranch is one possible future in a what-if exploration.
// Branches are ordered by horizon; probability labels weaken as the
// horizon grows.
type ScenarioBranch struct {
	Name         string   `json:"scenario_name"`
	Description  string   `json:"description"`
	Probability  string   `json:"probability"`
	HorizonYears int      `json:"horizon_years"`
	Consequences []string `json:"consequences"`
	Factors      []string `json:"related_factors,omitempty"`
}

// TraceEntry records one step of the pipeline's reasoning.
type TraceEntry struct {
	Stage     string    `json:"stage"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// AnalysisRequest is the body of POST /api/v1/analyze.
type AnalysisRequest struct {
	Query        string `json:"query"`
	Neighborhood string `json:"neighborhood,omitempty"`
}

// AnalysisResult is the full response for an analysis run.
type AnalysisResult struct {
	RequestID      string               `json:"request_id"`
	Query          string               `json:"query"`
	Status         string               `json:"status"`
	Classification QueryClassification  `json:"classification"`
	Template       string               `json:"template"`
	Alternatives   []ScenarioVariant    `json:"alternatives"`
	Recommended    string               `json:"recommended"`
	Rationale      string               `json:"rationale"`
	Impact         *ComprehensiveImpact `json:"impact,omitempty"`
	Comparative    []ComparativeInsight `json:"comparative_insights,omitempty"`
	Branches       []ScenarioBranch     `json:"scenario_branches,omitempty"`
	Suggestions    []string             `json:"exploration_suggestions,omitempty"`
	Confidence     float64              `json:"confidence"`
	Warnings       []string             `json:"warnings,omitempty"`
	Trace          []TraceEntry         `json:"reasoning_trace,omitempty"`
}

// Analysis run statuses.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// ValidateRequest is the body of POST /neighborhoods/{id}/validate.
type ValidateRequest struct {
	Units                 int     `json:"units"`
	FAR                   float64 `json:"far"`
	HeightFt              float64 `json:"height_ft"`
	RearYardPct           float64 `json:"rear_yard_pct,omitempty"`
	Parking               *int    `json:"parking_spaces,omitempty"`
	AffordablePct         float64 `json:"affordable_percentage,omitempty"`
	GroundFloorCommercial bool    `json:"ground_floor_commercial,omitempty"`
}

// UpzoneRequest is the body of POST /neighborhoods/{id}/suggest-upzoning.
type UpzoneRequest struct {
	TargetUnits int     `json:"target_units"`
	LotAreaSqft float64 `json:"lot_area_sqft,omitempty"`
}

// UpzoneResponse names the least-dense zone that reaches a unit target
// on the lot, or explains why none does.
type UpzoneResponse struct {
	Neighborhood   string `json:"neighborhood"`
	CurrentZone    string `json:"current_zone"`
	SuggestedZone  string `json:"suggested_zone,omitempty"`
	TargetUnits    int    `json:"target_units"`
	Achievable     bool   `json:"achievable"`
	EstimatedUnits int    `json:"estimated_units"`
	Message        string `json:"message,omitempty"`
}

// ValidateResponse reports zoning feasibility for a proposal.
type ValidateResponse struct {
	Neighborhood string                `json:"neighborhood"`
	Zone         string                `json:"zone"`
	Feasible     bool                  `json:"feasible"`
	Feasibility  Feasibility           `json:"feasibility"`
	Violations   []ConstraintViolation `json:"violations"`
	MaxUnits     int                   `json:"max_units"`
}
