// Package evaluator turns ranked scenario variants into a five-category
// impact assessment. All formulas are fixed and calibrated against the
// neighborhood baselines, so evaluation is deterministic.
package evaluator

import (
	"fmt"
	"math"
	"sort"

	"github.com/citylens/citylens/internal/models"
	"github.com/citylens/citylens/internal/neighborhoods"
	"github.com/citylens/citylens/internal/templates"
)

// Baseline stock the delta formulas start from.
const (
	baselineUnits      = 1200.0
	baselineAffordable = 300.0
	carbonPerUnit      = 0.8  // tons/year
	valuePerUnit       = 1200 // property value lift per added unit
	energyPctPerDegree = 8.0
)

// Evaluation is the full output of the evaluation stage.
type Evaluation struct {
	Impact      *models.ComprehensiveImpact
	Comparative []models.ComparativeInsight
	Branches    []models.ScenarioBranch
	Suggestions []string
	Recommended string
	Rationale   string
	Confidence  float64
}

// Evaluate builds the comprehensive impact for the best-ranked variant,
// plus comparative insights for multi-neighborhood queries and scenario
// branches for what-if queries.
func Evaluate(cls models.QueryClassification, tmpl templates.Template, variants []models.ScenarioVariant, profiles map[string]*neighborhoods.Profile) Evaluation {
	var ev Evaluation
	if len(variants) == 0 {
		ev.Confidence = 0.1
		ev.Rationale = "No scenario variants were available to evaluate"
		return ev
	}

	best := bestVariant(variants)
	profile := profiles[best.Neighborhood]
	if profile == nil {
		profile = &neighborhoods.Profile{ID: best.Neighborhood, Name: best.Neighborhood, WalkScore: 78, TransitScore: 0.6, DisplacementRisk: 0.5, FloodRisk: 0.3, CulturalAssets: 0.5, MedianPropertyValue: 850000}
	}

	impact := buildImpact(profile, best, cls.Parameters)
	impact.OverallScore = overallScore(impact, tmpl, best, profile)
	impact.OverallAssessment = assess(impact.OverallScore, profile.Name)

	ev.Impact = impact
	ev.Recommended = best.Title
	ev.Rationale = rationale(best, profile)

	if cls.Comparative {
		ev.Comparative = compareNeighborhoods(variants, profiles, cls.Parameters)
	}
	if cls.QueryType == models.QueryScenarioPlanning {
		ev.Branches = scenarioBranches(cls, best, profile)
	}
	ev.Suggestions = followUps(cls.PrimaryDomain)
	ev.Confidence = stageConfidence(tmpl, variants, impact)
	return ev
}

func bestVariant(variants []models.ScenarioVariant) models.ScenarioVariant {
	best := variants[0]
	for _, v := range variants[1:] {
		if v.Score > best.Score {
			best = v
		}
	}
	return best
}

// buildImpact computes the before/after metric pairs for every category
// and derives benefits, concerns, and mitigations from thresholds. Each
// list has a guaranteed non-empty fallback.
func buildImpact(p *neighborhoods.Profile, v models.ScenarioVariant, params models.Parameters) *models.ComprehensiveImpact {
	units := float64(v.Units)
	aff := v.AffordablePct

	impact := &models.ComprehensiveImpact{}

	// Housing
	housing := models.CategoryImpact{
		Metrics: map[string]models.ImpactMetric{
			"total_units":      {Before: baselineUnits, After: baselineUnits + units, Unit: "units", Confidence: 0.9},
			"affordable_units": {Before: baselineAffordable, After: baselineAffordable + units*aff/100, Unit: "units", Confidence: 0.85},
		},
	}
	if v.Units > 50 {
		housing.Benefits = append(housing.Benefits, fmt.Sprintf("Adds %d homes to the neighborhood housing stock", v.Units))
	}
	if aff >= 20 {
		housing.Benefits = append(housing.Benefits, fmt.Sprintf("Strong affordable component at %.0f%%", aff))
	}
	if len(housing.Benefits) == 0 {
		housing.Benefits = append(housing.Benefits, "Modest housing gain consistent with neighborhood scale")
	}
	if v.Archetype == models.ArchetypeAggressive {
		housing.Concerns = append(housing.Concerns, "Multi-year construction disruption at maximum build-out")
		housing.Mitigation = append(housing.Mitigation, "Phase construction and publish a neighborhood logistics plan")
	}
	if v.Feasibility == models.NeedsRezoning || v.Feasibility == models.NotFeasible {
		housing.Concerns = append(housing.Concerns, "Proposal exceeds current zoning and needs entitlement changes")
		housing.Mitigation = append(housing.Mitigation, "Pursue rezoning or reduce density to the current envelope")
	}
	if len(housing.Concerns) == 0 {
		housing.Concerns = append(housing.Concerns, "Permitting timelines may delay delivery")
		housing.Mitigation = append(housing.Mitigation, "Use ministerial approval pathways where available")
	}
	impact.Housing = finishCategory(housing)

	// Accessibility
	walkAfter := math.Min(100, p.WalkScore+units*0.02)
	transitAfter := math.Min(1, p.TransitScore+units*0.0004)
	accessibility := models.CategoryImpact{
		Metrics: map[string]models.ImpactMetric{
			"walk_score":    {Before: p.WalkScore, After: walkAfter, Unit: "score", Confidence: 0.8},
			"transit_score": {Before: p.TransitScore, After: transitAfter, Unit: "index", Confidence: 0.75},
		},
	}
	if walkAfter > p.WalkScore+0.5 {
		accessibility.Benefits = append(accessibility.Benefits, "New residents support more frequent local services within walking distance")
	}
	if len(accessibility.Benefits) == 0 {
		accessibility.Benefits = append(accessibility.Benefits, "Walkability holds steady at current levels")
	}
	if p.TransitScore < 0.5 {
		accessibility.Concerns = append(accessibility.Concerns, "Limited transit capacity for added travel demand")
		accessibility.Mitigation = append(accessibility.Mitigation, "Bundle transit passes and shuttle service with new units")
	} else {
		accessibility.Concerns = append(accessibility.Concerns, "Peak-hour crowding on existing transit lines")
		accessibility.Mitigation = append(accessibility.Mitigation, "Coordinate with transit agency on frequency increases")
	}
	impact.Accessibility = finishCategory(accessibility)

	// Equity
	displacementAfter := math.Max(0.1, p.DisplacementRisk-aff*0.005)
	culturalAfter := math.Max(0.1, p.CulturalAssets-units*0.0003)
	equity := models.CategoryImpact{
		Metrics: map[string]models.ImpactMetric{
			"displacement_risk":     {Before: p.DisplacementRisk, After: displacementAfter, Unit: "index", Confidence: 0.7},
			"cultural_preservation": {Before: p.CulturalAssets, After: culturalAfter, Unit: "index", Confidence: 0.6},
		},
	}
	if displacementAfter < p.DisplacementRisk-0.01 {
		equity.Benefits = append(equity.Benefits, "Affordable units reduce displacement pressure on existing residents")
	}
	if len(equity.Benefits) == 0 {
		equity.Benefits = append(equity.Benefits, "Inclusionary requirements keep some units permanently affordable")
	}
	if p.DisplacementRisk > 0.6 {
		equity.Concerns = append(equity.Concerns, "High existing displacement pressure could accelerate with new investment")
		equity.Mitigation = append(equity.Mitigation, "Adopt community preference and right-to-return policies")
	}
	if p.CulturalAssets > 0.7 {
		equity.Concerns = append(equity.Concerns, "Cultural institutions face rent pressure as the area redevelops")
		equity.Mitigation = append(equity.Mitigation, "Create a cultural district with commercial rent stabilization")
	}
	if len(equity.Concerns) == 0 {
		equity.Concerns = append(equity.Concerns, "Benefits may not reach lowest-income households without targeting")
		equity.Mitigation = append(equity.Mitigation, "Target a share of affordable units below 50% of area median income")
	}
	impact.Equity = finishCategory(equity)

	// Economic
	valueAfter := p.MedianPropertyValue + units*valuePerUnit
	footTrafficAfter := 1 + units*0.001
	economic := models.CategoryImpact{
		Metrics: map[string]models.ImpactMetric{
			"property_values": {Before: p.MedianPropertyValue, After: valueAfter, Unit: "USD", Confidence: 0.75},
			"foot_traffic":    {Before: 1, After: footTrafficAfter, Unit: "index", Confidence: 0.65},
		},
	}
	if units > 30 {
		economic.Benefits = append(economic.Benefits, "New households increase customer base for local businesses")
	}
	if len(economic.Benefits) == 0 {
		economic.Benefits = append(economic.Benefits, "Stable demand for existing neighborhood businesses")
	}
	economic.Concerns = append(economic.Concerns, "Rising commercial rents may displace legacy businesses")
	economic.Mitigation = append(economic.Mitigation, "Offer legacy business grants and long-term lease programs")
	impact.Economic = finishCategory(economic)

	// Environmental
	carbonAfter := (baselineUnits + units) * carbonPerUnit
	environmental := models.CategoryImpact{
		Metrics: map[string]models.ImpactMetric{
			"annual_carbon_tons": {Before: baselineUnits * carbonPerUnit, After: carbonAfter, Unit: "tCO2/yr", Confidence: 0.7},
			"flood_exposure":     {Before: p.FloodRisk, After: p.FloodRisk, Unit: "index", Confidence: 0.8},
		},
	}
	if params.TemperatureDelta != nil {
		delta := *params.TemperatureDelta
		environmental.Metrics["energy_demand"] = models.ImpactMetric{
			Before:     100,
			After:      100 + math.Abs(delta)*energyPctPerDegree,
			Unit:       "% of current",
			Confidence: 0.65,
		}
		if delta < 0 {
			environmental.Concerns = append(environmental.Concerns, fmt.Sprintf("A %.0f°F drop raises heating demand roughly %.0f%%", math.Abs(delta), math.Abs(delta)*energyPctPerDegree))
			environmental.Mitigation = append(environmental.Mitigation, "Retrofit building envelopes and electrify heating before the shift")
		} else {
			environmental.Concerns = append(environmental.Concerns, fmt.Sprintf("A %.0f°F rise raises cooling demand roughly %.0f%%", delta, delta*energyPctPerDegree))
			environmental.Mitigation = append(environmental.Mitigation, "Expand shade tree canopy and require passive cooling design")
		}
	}
	if containsAmenity(v.Amenities, "rooftop solar") || containsAmenity(v.Amenities, "car-free design") {
		environmental.Benefits = append(environmental.Benefits, "Low-carbon design offsets part of the added building emissions")
	}
	if len(environmental.Benefits) == 0 {
		environmental.Benefits = append(environmental.Benefits, "Infill density lowers per-household emissions versus sprawl")
	}
	if p.FloodRisk > 0.5 {
		environmental.Concerns = append(environmental.Concerns, "Site sits in a high flood-risk zone")
		environmental.Mitigation = append(environmental.Mitigation, "Raise ground floors and add on-site stormwater detention")
	}
	if len(environmental.Concerns) == 0 {
		environmental.Concerns = append(environmental.Concerns, "Construction-phase emissions and waste")
		environmental.Mitigation = append(environmental.Mitigation, "Require construction waste diversion and low-carbon concrete")
	}
	impact.Environmental = finishCategory(environmental)

	return impact
}

// finishCategory derives insights from significant metric deltas. A
// category with no significant movement is flagged low-confidence
// rather than given invented findings.
func finishCategory(c models.CategoryImpact) models.CategoryImpact {
	names := make([]string, 0, len(c.Metrics))
	for name := range c.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		m := c.Metrics[name]
		if m.Before == 0 {
			if m.After != 0 {
				c.Insights = append(c.Insights, fmt.Sprintf("%s changes from 0 to %.1f %s", name, m.After, m.Unit))
			}
			continue
		}
		change := (m.After - m.Before) / m.Before
		if math.Abs(change) >= 0.01 {
			direction := "rises"
			if change < 0 {
				direction = "falls"
			}
			c.Insights = append(c.Insights, fmt.Sprintf("%s %s %.1f%% (%.1f to %.1f %s)", name, direction, math.Abs(change)*100, m.Before, m.After, m.Unit))
		}
	}
	if len(c.Insights) == 0 {
		c.LowConfidence = true
	}
	return c
}

// Category scores normalize each dimension into [0,1] before weighting.
func overallScore(impact *models.ComprehensiveImpact, tmpl templates.Template, v models.ScenarioVariant, p *neighborhoods.Profile) float64 {
	scores := map[string]float64{
		"housing":       0.5*capped(float64(v.Units)/100) + 0.5*capped(v.AffordablePct/30),
		"accessibility": 0.5*capped((impact.Accessibility.Metrics["walk_score"].After-p.WalkScore)/5) + 0.5*p.TransitScore,
		"equity":        1 - impact.Equity.Metrics["displacement_risk"].After,
		"economic":      capped(float64(v.Units) / 80),
		"environmental": capped(1 - p.FloodRisk*0.5 - float64(v.Units)*0.001),
	}

	cats := make([]string, 0, len(tmpl.CategoryWeights))
	for cat := range tmpl.CategoryWeights {
		cats = append(cats, cat)
	}
	sort.Strings(cats)

	total := 0.0
	for _, cat := range cats {
		total += tmpl.CategoryWeights[cat] * scores[cat]
	}
	return capped(total)
}

func assess(score float64, name string) string {
	switch {
	case score > 0.7:
		return fmt.Sprintf("Strongly positive outcome for %s across most dimensions", name)
	case score > 0.5:
		return fmt.Sprintf("Positive outcome for %s with manageable tradeoffs", name)
	case score > 0.3:
		return fmt.Sprintf("Mixed outcome for %s; benefits and concerns are balanced", name)
	default:
		return fmt.Sprintf("Challenging outcome for %s; concerns outweigh measured benefits", name)
	}
}

func rationale(v models.ScenarioVariant, p *neighborhoods.Profile) string {
	return fmt.Sprintf("%s scores highest for %s: %d units (%.0f%% affordable) with %s standing under current zoning",
		v.Title, p.Name, v.Units, v.AffordablePct, v.Feasibility)
}

// stageConfidence combines scenario feasibility with dimension
// completeness. A fallback template caps the stage at the generic
// evaluator's confidence.
func stageConfidence(tmpl templates.Template, variants []models.ScenarioVariant, impact *models.ComprehensiveImpact) float64 {
	feasible := 0
	for _, v := range variants {
		if v.Feasibility == models.FullyCompliant || v.Feasibility == models.RequiresVariances {
			feasible++
		}
	}
	feasibilityRatio := float64(feasible) / float64(len(variants))

	complete := 0
	for _, c := range categories(impact) {
		if !c.LowConfidence {
			complete++
		}
	}
	completeness := float64(complete) / 5

	conf := 0.6 + 0.2*feasibilityRatio + 0.15*completeness
	if tmpl.Fallback && conf > 0.6 {
		conf = 0.6
	}
	if conf > 0.95 {
		conf = 0.95
	}
	return conf
}

func categories(impact *models.ComprehensiveImpact) []models.CategoryImpact {
	return []models.CategoryImpact{
		impact.Housing, impact.Accessibility, impact.Equity, impact.Economic, impact.Environmental,
	}
}

func containsAmenity(amenities []string, want string) bool {
	for _, a := range amenities {
		if a == want {
			return true
		}
	}
	return false
}

func capped(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
