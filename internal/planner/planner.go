// Package planner generates zoning-checked development variants for
// each neighborhood a query resolved. Variants come from fixed
// archetypes scaled against the zone's capacity, so generation is
// deterministic for a given snapshot.
package planner

import (
	"fmt"
	"sort"

	"github.com/citylens/citylens/internal/models"
	"github.com/citylens/citylens/internal/neighborhoods"
	"github.com/citylens/citylens/internal/templates"
	"github.com/citylens/citylens/internal/zoning"
)

// Archetype tuning. FAR fractions and unit sizes follow the calibrated
// development strategies: conservative underbuilds, aggressive maxes
// out capacity with compact units.
var farFraction = map[models.PlanArchetype]float64{
	models.ArchetypeConservative: 0.70,
	models.ArchetypeModerate:     0.90,
	models.ArchetypeAggressive:   1.00,
	models.ArchetypeInnovative:   0.85,
}

var unitSizeSqft = map[models.PlanArchetype]float64{
	models.ArchetypeConservative: 800,
	models.ArchetypeModerate:     700,
	models.ArchetypeAggressive:   550,
	models.ArchetypeInnovative:   700,
}

var innovationScore = map[models.PlanArchetype]float64{
	models.ArchetypeConservative: 0.3,
	models.ArchetypeModerate:     0.5,
	models.ArchetypeAggressive:   0.7,
	models.ArchetypeInnovative:   0.9,
}

var archetypeTitles = map[models.PlanArchetype]string{
	models.ArchetypeConservative: "Conservative Infill",
	models.ArchetypeModerate:     "Moderate Mixed-Use",
	models.ArchetypeAggressive:   "Maximum Capacity Build-Out",
	models.ArchetypeInnovative:   "Innovative Car-Free Development",
}

var archetypeAmenities = map[models.PlanArchetype][]string{
	models.ArchetypeConservative: {"street trees", "ground-floor retail"},
	models.ArchetypeModerate:     {"bike parking", "community room", "ground-floor retail"},
	models.ArchetypeAggressive:   {"transit pass program", "childcare center", "ground-floor retail"},
	models.ArchetypeInnovative:   {"car-free design", "rooftop solar", "modular construction"},
}

const buildingEfficiency = 0.85

// Result is one generation run: ranked variants plus the stage's own
// confidence.
type Result struct {
	Variants   []models.ScenarioVariant
	Confidence float64
	// Errors counts neighborhoods whose generation degraded.
	Errors int
}

// Generator builds and ranks scenario variants using the zoning
// validator as a filter.
type Generator struct {
	validator *zoning.Validator
}

// New creates a generator with its own zoning validator.
func New() *Generator {
	return &Generator{validator: zoning.NewValidator()}
}

// Generate produces 3-5 ranked variants per neighborhood. The result is
// never empty for a neighborhood: when every candidate fails
// validation, the least-infeasible one is returned flagged instead.
func (g *Generator) Generate(tmpl templates.Template, profiles []*neighborhoods.Profile, params models.Parameters) Result {
	var res Result
	var complianceSum float64
	var complianceCount int
	archetypesSeen := make(map[models.PlanArchetype]bool)

	for _, profile := range profiles {
		variants := g.generateFor(tmpl, profile, params)
		if len(variants) == 0 {
			// Should not happen; counted as a degraded neighborhood.
			res.Errors++
			continue
		}
		for _, v := range variants {
			complianceSum += v.ComplianceScore
			complianceCount++
			archetypesSeen[v.Archetype] = true
		}
		res.Variants = append(res.Variants, variants...)
	}

	res.Confidence = generationConfidence(complianceSum, complianceCount, len(archetypesSeen), res.Errors)
	return res
}

func (g *Generator) generateFor(tmpl templates.Template, profile *neighborhoods.Profile, params models.Parameters) []models.ScenarioVariant {
	zone := zoning.Zone(profile.Zone)
	rules, ok := zoning.RulesFor(zone)
	if !ok {
		zone = zoning.ForNeighborhood(profile.ID)
		rules, _ = zoning.RulesFor(zone)
	}

	lot := profile.AvgLotSqft
	if lot <= 0 {
		lot = 10000
	}

	var candidates []models.ScenarioVariant
	for _, archetype := range tmpl.Archetypes {
		v := g.buildVariant(tmpl, profile, rules, archetype, lot, params)
		candidates = append(candidates, v)
	}

	// Rank feasible candidates; keep the least-infeasible one only when
	// nothing survives validation.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	feasible := candidates[:0:0]
	for _, v := range candidates {
		if v.Feasibility != models.NotFeasible {
			feasible = append(feasible, v)
		}
	}
	if len(feasible) == 0 {
		return candidates[:1]
	}
	return feasible
}

func (g *Generator) buildVariant(tmpl templates.Template, profile *neighborhoods.Profile, rules zoning.Rules, archetype models.PlanArchetype, lot float64, params models.Parameters) models.ScenarioVariant {
	far := rules.MaxFAR * farFraction[archetype]
	size := unitSizeSqft[archetype]
	units := int(lot * far * buildingEfficiency / size)

	// A requested unit count overrides capacity: scale density up to
	// meet it, letting the validator grade the overreach.
	targetUnits := 0
	if params.Units != nil && *params.Units > 0 {
		targetUnits = *params.Units
		if targetUnits > units {
			far = float64(targetUnits) * size / (lot * buildingEfficiency)
			units = targetUnits
		}
	}

	affordable := tmpl.DefaultAffordablePct
	if params.Percentage != nil && *params.Percentage > 0 && *params.Percentage <= 100 {
		affordable = *params.Percentage
	}
	if min := rules.InclusionaryPct * 100; affordable < min {
		affordable = min
	}

	height := rules.MaxHeightFt * farFraction[archetype]
	if far > rules.MaxFAR {
		height = rules.MaxHeightFt * far / rules.MaxFAR
	}

	feasiblePass, violations := g.validator.Validate(rules.Zone, zoning.Proposal{
		FAR:                   far,
		HeightFt:              height,
		LotAreaSqft:           lot,
		Units:                 units,
		AffordablePct:         affordable,
		GroundFloorCommercial: rules.GroundFloorCommercial,
	})
	feasibility, compliance := zoning.Grade(violations)
	if feasiblePass && feasibility == models.FullyCompliant {
		violations = nil
	}

	v := models.ScenarioVariant{
		Neighborhood:    profile.ID,
		Archetype:       archetype,
		Title:           archetypeTitles[archetype],
		Description:     fmt.Sprintf("%s: %d units at FAR %.1f in %s", archetypeTitles[archetype], units, far, profile.Name),
		Units:           units,
		AffordablePct:   affordable,
		HeightFt:        height,
		FAR:             far,
		Amenities:       archetypeAmenities[archetype],
		Feasibility:     feasibility,
		ComplianceScore: compliance,
		Violations:      violations,
	}
	v.Score = score(v, profile, targetUnits)
	return v
}

// score ranks a variant: compliance 40%, target fit 30%, policy
// alignment 20%, innovation 10%.
func score(v models.ScenarioVariant, profile *neighborhoods.Profile, targetUnits int) float64 {
	target := 0.7
	if targetUnits > 0 {
		miss := float64(v.Units-targetUnits) / float64(targetUnits)
		if miss < 0 {
			miss = -miss
		}
		target = 1 - miss
		if target < 0 {
			target = 0
		}
	}

	policy := 0.6*capped(v.AffordablePct/30) + 0.4*profile.TransitScore

	return v.ComplianceScore*0.4 + target*0.3 + policy*0.2 + innovationScore[v.Archetype]*0.1
}

func generationConfidence(complianceSum float64, count, archetypes, errors int) float64 {
	if count == 0 {
		return 0.1
	}
	avg := complianceSum / float64(count)
	conf := 0.8 + (avg-0.5)*0.2 - 0.1*float64(errors)
	if archetypes >= 3 {
		conf += 0.1
	}
	if conf > 1 {
		conf = 1
	}
	if conf < 0.1 {
		conf = 0.1
	}
	return conf
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
