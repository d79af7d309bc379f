// Package templates maps (domain, query type) pairs onto analysis
// templates. Selection is total: every pair resolves, unknown pairs get
// the generic template, and callers see the downgrade through the
// template's confidence factor.
package templates

import "github.com/citylens/citylens/internal/models"

// Template describes how scenarios for a query should be generated and
// weighed. CategoryWeights must cover the five impact categories.
type Template struct {
	Name                 string                 `json:"name"`
	Description          string                 `json:"description"`
	FocusAreas           []string               `json:"focus_areas"`
	CategoryWeights      map[string]float64     `json:"category_weights"`
	Archetypes           []models.PlanArchetype `json:"archetypes"`
	DensityRange         [2]float64             `json:"density_range"` // fraction of max FAR
	DefaultAffordablePct float64                `json:"default_affordable_pct"`
	DataNeeds            []string               `json:"data_needs"`
	ConfidenceFactor     float64                `json:"confidence_factor"`
	Fallback             bool                   `json:"fallback"`
}

type key struct {
	domain    models.Domain
	queryType models.QueryType
}

var defaultWeights = map[string]float64{
	"housing":       0.30,
	"equity":        0.25,
	"accessibility": 0.20,
	"economic":      0.15,
	"environmental": 0.10,
}

var allArchetypes = []models.PlanArchetype{
	models.ArchetypeConservative,
	models.ArchetypeModerate,
	models.ArchetypeAggressive,
	models.ArchetypeInnovative,
}

// Generic is the designated fallback template. Its confidence factor
// is below 1 so a fallback selection always lowers the final score.
var Generic = Template{
	Name:                 "general_planning",
	Description:          "Balanced assessment across all planning dimensions",
	FocusAreas:           []string{"land use", "community impact"},
	CategoryWeights:      defaultWeights,
	Archetypes:           allArchetypes[:3],
	DensityRange:         [2]float64{0.6, 0.9},
	DefaultAffordablePct: 20,
	DataNeeds:            []string{"zoning", "baselines"},
	ConfidenceFactor:     0.85,
	Fallback:             true,
}

var matrix = map[key]Template{
	{models.DomainTransportation, models.QueryAnalytical}: {
		Name:            "mobility_analysis",
		Description:     "Transit, bike, and street network effects of new development",
		FocusAreas:      []string{"bike infrastructure", "transit capacity", "street safety"},
		CategoryWeights: weights("accessibility", 0.35),
		Archetypes:      allArchetypes[:3],
		DensityRange:    [2]float64{0.6, 0.9}, DefaultAffordablePct: 20,
		DataNeeds:        []string{"transit_score", "walk_score"},
		ConfidenceFactor: 1,
	},
	{models.DomainTransportation, models.QueryComparative}: {
		Name:            "mobility_comparison",
		Description:     "Side-by-side mobility outcomes across neighborhoods",
		FocusAreas:      []string{"bike infrastructure", "transit access", "parking pressure"},
		CategoryWeights: weights("accessibility", 0.35),
		Archetypes:      allArchetypes[:3],
		DensityRange:    [2]float64{0.6, 0.9}, DefaultAffordablePct: 20,
		DataNeeds:        []string{"transit_score", "walk_score"},
		ConfidenceFactor: 1,
	},
	{models.DomainTransportation, models.QuerySolutionSeeking}: {
		Name:            "mobility_improvement",
		Description:     "Interventions that raise walkability and transit usefulness",
		FocusAreas:      []string{"bike lanes", "transit frequency", "pedestrian safety"},
		CategoryWeights: weights("accessibility", 0.40),
		Archetypes:      allArchetypes,
		DensityRange:    [2]float64{0.6, 1.0}, DefaultAffordablePct: 20,
		DataNeeds:        []string{"transit_score"},
		ConfidenceFactor: 1,
	},
	{models.DomainTransportation, models.QueryScenarioPlanning}: {
		Name:            "mobility_scenario",
		Description:     "What-if exploration of transport network changes",
		FocusAreas:      []string{"mode shift", "congestion", "street reallocation"},
		CategoryWeights: weights("accessibility", 0.35),
		Archetypes:      allArchetypes,
		DensityRange:    [2]float64{0.6, 1.0}, DefaultAffordablePct: 20,
		DataNeeds:        []string{"transit_score", "walk_score"},
		ConfidenceFactor: 1,
	},
	{models.DomainHousing, models.QueryAnalytical}: {
		Name:            "housing_analysis",
		Description:     "Unit yield, affordability, and displacement effects",
		FocusAreas:      []string{"unit count", "affordability", "displacement"},
		CategoryWeights: weights("housing", 0.40),
		Archetypes:      allArchetypes[:3],
		DensityRange:    [2]float64{0.7, 1.0}, DefaultAffordablePct: 25,
		DataNeeds:        []string{"zoning", "displacement_risk"},
		ConfidenceFactor: 1,
	},
	{models.DomainHousing, models.QueryComparative}: {
		Name:            "housing_comparison",
		Description:     "Housing capacity compared across neighborhoods",
		FocusAreas:      []string{"zoned capacity", "affordability requirements"},
		CategoryWeights: weights("housing", 0.40),
		Archetypes:      allArchetypes[:3],
		DensityRange:    [2]float64{0.7, 1.0}, DefaultAffordablePct: 25,
		DataNeeds:        []string{"zoning", "displacement_risk"},
		ConfidenceFactor: 1,
	},
	{models.DomainHousing, models.QuerySolutionSeeking}: {
		Name:            "housing_strategy",
		Description:     "Strategies to add units while limiting displacement",
		FocusAreas:      []string{"upzoning", "inclusionary housing", "community benefits"},
		CategoryWeights: weights("housing", 0.35),
		Archetypes:      allArchetypes,
		DensityRange:    [2]float64{0.7, 1.0}, DefaultAffordablePct: 30,
		DataNeeds:        []string{"zoning", "displacement_risk"},
		ConfidenceFactor: 1,
	},
	{models.DomainHousing, models.QueryScenarioPlanning}: {
		Name:            "housing_scenario",
		Description:     "What-if exploration of density and height changes",
		FocusAreas:      []string{"density", "height", "unit mix"},
		CategoryWeights: weights("housing", 0.40),
		Archetypes:      allArchetypes,
		DensityRange:    [2]float64{0.7, 1.0}, DefaultAffordablePct: 25,
		DataNeeds:        []string{"zoning"},
		ConfidenceFactor: 1,
	},
	{models.DomainClimate, models.QueryAnalytical}: {
		Name:            "climate_analysis",
		Description:     "Flood, heat, and resilience exposure of development",
		FocusAreas:      []string{"flood risk", "heat resilience", "energy demand"},
		CategoryWeights: weights("environmental", 0.35),
		Archetypes:      allArchetypes[:3],
		DensityRange:    [2]float64{0.6, 0.9}, DefaultAffordablePct: 20,
		DataNeeds:        []string{"flood_risk"},
		ConfidenceFactor: 1,
	},
	{models.DomainClimate, models.QueryScenarioPlanning}: {
		Name:            "climate_resilience",
		Description:     "What-if exploration of climate shocks and adaptation",
		FocusAreas:      []string{"temperature shift", "flooding", "energy demand"},
		CategoryWeights: weights("environmental", 0.40),
		Archetypes:      allArchetypes,
		DensityRange:    [2]float64{0.6, 0.9}, DefaultAffordablePct: 20,
		DataNeeds:        []string{"flood_risk"},
		ConfidenceFactor: 1,
	},
	{models.DomainEconomic, models.QueryAnalytical}: {
		Name:            "business_impact",
		Description:     "Effects of development on the local business ecosystem",
		FocusAreas:      []string{"foot traffic", "commercial rent", "ground-floor retail"},
		CategoryWeights: weights("economic", 0.35),
		Archetypes:      allArchetypes[:3],
		DensityRange:    [2]float64{0.6, 0.9}, DefaultAffordablePct: 20,
		DataNeeds:        []string{"cultural_assets"},
		ConfidenceFactor: 1,
	},
	{models.DomainEconomic, models.QueryComparative}: {
		Name:            "business_comparison",
		Description:     "Business climate compared across neighborhoods",
		FocusAreas:      []string{"foot traffic", "retail mix"},
		CategoryWeights: weights("economic", 0.35),
		Archetypes:      allArchetypes[:3],
		DensityRange:    [2]float64{0.6, 0.9}, DefaultAffordablePct: 20,
		DataNeeds:        []string{"cultural_assets"},
		ConfidenceFactor: 1,
	},
	{models.DomainEnvironmental, models.QueryAnalytical}: {
		Name:            "environmental_assessment",
		Description:     "Open space, emissions, and environmental quality effects",
		FocusAreas:      []string{"green space", "carbon footprint", "air quality"},
		CategoryWeights: weights("environmental", 0.35),
		Archetypes:      allArchetypes[:3],
		DensityRange:    [2]float64{0.6, 0.9}, DefaultAffordablePct: 20,
		DataNeeds:        []string{"flood_risk"},
		ConfidenceFactor: 1,
	},
}

// Select resolves a template for the pair. It never fails: pairs
// outside the matrix get the generic fallback.
func Select(domain models.Domain, queryType models.QueryType) Template {
	if t, ok := matrix[key{domain, queryType}]; ok {
		return t
	}
	return Generic
}

// weights returns the default weight table with one category raised to
// the given emphasis; the remainder is spread evenly.
func weights(emphasis string, value float64) map[string]float64 {
	out := make(map[string]float64, len(defaultWeights))
	rest := (1 - value) / float64(len(defaultWeights)-1)
	for cat := range defaultWeights {
		if cat == emphasis {
			out[cat] = value
		} else {
			out[cat] = rest
		}
	}
	return out
}
