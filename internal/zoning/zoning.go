package zoning

import (
	"fmt"
	"strings"

	"github.com/citylens/citylens/internal/models"
)

// Zone is an SF Planning Code zoning district.
type Zone string

const (
	ZoneRH1  Zone = "RH-1"  // Residential House, One-Family
	ZoneRH2  Zone = "RH-2"  // Residential House, Two-Family
	ZoneRM1  Zone = "RM-1"  // Residential Mixed, Low Density
	ZoneRM2  Zone = "RM-2"  // Residential Mixed, Moderate Density
	ZoneRM3  Zone = "RM-3"  // Residential Mixed, High Density
	ZoneNCT2 Zone = "NCT-2" // Neighborhood Commercial Transit, Small Scale
	ZoneNCT3 Zone = "NCT-3" // Neighborhood Commercial Transit, Moderate Scale
	ZoneNCT4 Zone = "NCT-4" // Neighborhood Commercial Transit, Large Scale
	ZonePDR1 Zone = "PDR-1" // Production, Distribution, Repair
	ZoneUMU  Zone = "UMU"   // Urban Mixed Use
)

// Rules holds the zoning constraints for one district.
type Rules struct {
	Zone                  Zone    `json:"zone"`
	MaxFAR                float64 `json:"max_far"`
	MaxHeightFt           float64 `json:"max_height_ft"`
	MinRearYardFt         float64 `json:"min_rear_yard_ft"`
	MinSideYardFt         float64 `json:"min_side_yard_ft"`
	ParkingRequired       bool    `json:"parking_required"`
	GroundFloorCommercial bool    `json:"ground_floor_commercial"`
	InclusionaryPct       float64 `json:"affordable_housing_req"`
	AvgUnitSqft           float64 `json:"avg_unit_sqft"`
}

// Simplified but accurate SF Planning Code limits.
var sfRules = map[Zone]Rules{
	ZoneRH1:  {Zone: ZoneRH1, MaxFAR: 0.8, MaxHeightFt: 40, MinRearYardFt: 15, MinSideYardFt: 4, ParkingRequired: true, InclusionaryPct: 0.12, AvgUnitSqft: 2000},
	ZoneRH2:  {Zone: ZoneRH2, MaxFAR: 1.2, MaxHeightFt: 40, MinRearYardFt: 15, MinSideYardFt: 4, ParkingRequired: true, InclusionaryPct: 0.12, AvgUnitSqft: 1400},
	ZoneRM1:  {Zone: ZoneRM1, MaxFAR: 1.8, MaxHeightFt: 50, MinRearYardFt: 15, ParkingRequired: true, InclusionaryPct: 0.15, AvgUnitSqft: 1100},
	ZoneRM2:  {Zone: ZoneRM2, MaxFAR: 2.5, MaxHeightFt: 65, MinRearYardFt: 15, ParkingRequired: true, InclusionaryPct: 0.18, AvgUnitSqft: 1000},
	ZoneNCT2: {Zone: ZoneNCT2, MaxFAR: 2.2, MaxHeightFt: 45, MinRearYardFt: 15, GroundFloorCommercial: true, InclusionaryPct: 0.18, AvgUnitSqft: 850},
	ZoneNCT3: {Zone: ZoneNCT3, MaxFAR: 3.0, MaxHeightFt: 55, MinRearYardFt: 15, GroundFloorCommercial: true, InclusionaryPct: 0.20, AvgUnitSqft: 800},
	ZoneNCT4: {Zone: ZoneNCT4, MaxFAR: 4.0, MaxHeightFt: 85, MinRearYardFt: 15, GroundFloorCommercial: true, InclusionaryPct: 0.25, AvgUnitSqft: 700},
}

// upzone ladder from least to most dense
var zoneLadder = []Zone{ZoneRH1, ZoneRH2, ZoneRM1, ZoneRM2, ZoneNCT2, ZoneNCT3, ZoneNCT4}

// RulesFor returns the rules for a zone.
func RulesFor(z Zone) (Rules, bool) {
	r, ok := sfRules[z]
	return r, ok
}

// ForNeighborhood maps the target neighborhoods onto their typical zoning.
func ForNeighborhood(name string) Zone {
	switch strings.ToLower(name) {
	case "marina":
		return ZoneRH1
	case "hayes_valley":
		return ZoneNCT3
	case "mission":
		return ZoneNCT4
	default:
		return ZoneRM2
	}
}

// Proposal describes a development to validate against a zone's rules.
type Proposal struct {
	FAR                   float64
	HeightFt              float64
	LotAreaSqft           float64
	Units                 int
	AffordablePct         float64
	GroundFloorCommercial bool
}

// UnitEstimate is a realistic build-out for a lot under a zone.
type UnitEstimate struct {
	TotalUnits      int `json:"total_units"`
	AffordableUnits int `json:"affordable_units"`
	MarketRateUnits int `json:"market_rate_units"`
}

// Validator checks proposals against the SF zoning table.
type Validator struct {
	rules map[Zone]Rules
}

// NewValidator returns a validator backed by the SF rule table.
func NewValidator() *Validator {
	return &Validator{rules: sfRules}
}

// Validate checks a proposal and returns feasibility plus violations.
// Only error-severity violations make a proposal infeasible; warnings
// carry requirements the proposal must absorb.
func (v *Validator) Validate(zone Zone, p Proposal) (bool, []models.ConstraintViolation) {
	rules, ok := v.rules[zone]
	if !ok {
		return false, []models.ConstraintViolation{{
			Rule:       "Unknown Zone Type",
			Severity:   "error",
			Suggestion: fmt.Sprintf("Zone type %s not recognized in SF Planning Code", zone),
		}}
	}

	var violations []models.ConstraintViolation

	if p.FAR > rules.MaxFAR {
		violations = append(violations, models.ConstraintViolation{
			Rule:       "Floor Area Ratio",
			Current:    p.FAR,
			MaxAllowed: rules.MaxFAR,
			Severity:   "error",
			Suggestion: fmt.Sprintf("Reduce FAR to %.1f or request variance", rules.MaxFAR),
		})
	}

	if p.HeightFt > rules.MaxHeightFt {
		violations = append(violations, models.ConstraintViolation{
			Rule:       "Building Height",
			Current:    p.HeightFt,
			MaxAllowed: rules.MaxHeightFt,
			Severity:   "error",
			Suggestion: fmt.Sprintf("Reduce height to %.0fft or request variance", rules.MaxHeightFt),
		})
	}

	if p.Units >= 10 && p.AffordablePct < rules.InclusionaryPct*100 {
		required := float64(p.Units) * rules.InclusionaryPct
		violations = append(violations, models.ConstraintViolation{
			Rule:       "Inclusionary Housing",
			Current:    p.AffordablePct,
			MaxAllowed: rules.InclusionaryPct * 100,
			Severity:   "warning",
			Suggestion: fmt.Sprintf("Must include %.0f affordable units (%.0f%%)", required, rules.InclusionaryPct*100),
		})
	}

	if rules.GroundFloorCommercial && !p.GroundFloorCommercial {
		violations = append(violations, models.ConstraintViolation{
			Rule:       "Ground Floor Commercial",
			Current:    0,
			MaxAllowed: 1,
			Severity:   "warning",
			Suggestion: "Ground floor must be commercial/retail in NCT zones",
		})
	}

	feasible := true
	for _, violation := range violations {
		if violation.Severity == "error" {
			feasible = false
			break
		}
	}
	return feasible, violations
}

// EstimateUnits computes a realistic unit count for a lot under a zone.
func (v *Validator) EstimateUnits(zone Zone, lotAreaSqft, efficiency float64) UnitEstimate {
	rules, ok := v.rules[zone]
	if !ok {
		return UnitEstimate{}
	}
	if efficiency <= 0 {
		efficiency = 0.85
	}

	buildable := lotAreaSqft * rules.MaxFAR * efficiency
	total := int(buildable / rules.AvgUnitSqft)

	affordable := 0
	if total >= 10 {
		affordable = int(float64(total) * rules.InclusionaryPct)
	}

	return UnitEstimate{
		TotalUnits:      total,
		AffordableUnits: affordable,
		MarketRateUnits: total - affordable,
	}
}

// SuggestUpzone finds the least-dense zone that can hold targetUnits on
// the lot. The second return is false when no zone reaches the target.
func (v *Validator) SuggestUpzone(targetUnits int, lotAreaSqft float64) (Zone, bool) {
	for _, zone := range zoneLadder {
		est := v.EstimateUnits(zone, lotAreaSqft, 0.85)
		if est.TotalUnits >= targetUnits {
			return zone, true
		}
	}
	return "", false
}

// Grade maps violations to a feasibility level and compliance score.
func Grade(violations []models.ConstraintViolation) (models.Feasibility, float64) {
	n := len(violations)

	switch {
	case n == 0:
		return models.FullyCompliant, 1.0
	case n <= 2:
		score := 1.0 - float64(n)*0.1
		if score < 0.7 {
			score = 0.7
		}
		return models.RequiresVariances, score
	case n <= 4:
		score := 1.0 - float64(n)*0.15
		if score < 0.4 {
			score = 0.4
		}
		return models.NeedsRezoning, score
	default:
		return models.NotFeasible, 0.2
	}
}
