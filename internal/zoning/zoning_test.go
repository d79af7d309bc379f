package zoning

import (
	"testing"

	"github.com/citylens/citylens/internal/models"
)

func TestValidateCompliantProposal(t *testing.T) {
	v := NewValidator()

	feasible, violations := v.Validate(ZoneNCT3, Proposal{
		FAR:                   2.5,
		HeightFt:              50,
		LotAreaSqft:           10000,
		Units:                 25,
		AffordablePct:         20,
		GroundFloorCommercial: true,
	})
	if !feasible {
		t.Errorf("Expected feasible proposal, got violations: %v", violations)
	}
	if len(violations) != 0 {
		t.Errorf("Expected no violations, got %v", violations)
	}
}

func TestValidateFARViolation(t *testing.T) {
	v := NewValidator()

	feasible, violations := v.Validate(ZoneRH1, Proposal{
		FAR:      2.0,
		HeightFt: 35,
		Units:    5,
	})
	if feasible {
		t.Error("Expected FAR violation to be infeasible")
	}
	found := false
	for _, viol := range violations {
		if viol.Rule == "Floor Area Ratio" && viol.Severity == "error" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected FAR error violation, got %v", violations)
	}
}

func TestValidateInclusionaryWarning(t *testing.T) {
	v := NewValidator()

	// 20 units at 5% affordable in NCT-4 (requires 25%) is a warning, not an error.
	feasible, violations := v.Validate(ZoneNCT4, Proposal{
		FAR:                   3.0,
		HeightFt:              80,
		Units:                 20,
		AffordablePct:         5,
		GroundFloorCommercial: true,
	})
	if !feasible {
		t.Error("Warning-only violations should stay feasible")
	}
	if len(violations) != 1 || violations[0].Rule != "Inclusionary Housing" {
		t.Errorf("Expected one inclusionary warning, got %v", violations)
	}
}

func TestValidateGroundFloorCommercial(t *testing.T) {
	v := NewValidator()

	_, violations := v.Validate(ZoneNCT3, Proposal{FAR: 2.0, HeightFt: 40, Units: 5})
	found := false
	for _, viol := range violations {
		if viol.Rule == "Ground Floor Commercial" && viol.Severity == "warning" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected ground floor commercial warning, got %v", violations)
	}
}

func TestValidateUnknownZone(t *testing.T) {
	v := NewValidator()

	feasible, violations := v.Validate(Zone("C-3"), Proposal{FAR: 1.0})
	if feasible {
		t.Error("Unknown zone must be infeasible")
	}
	if len(violations) != 1 || violations[0].Rule != "Unknown Zone Type" {
		t.Errorf("Expected unknown zone violation, got %v", violations)
	}
}

func TestGrade(t *testing.T) {
	mk := func(n int) []models.ConstraintViolation {
		v := make([]models.ConstraintViolation, n)
		return v
	}

	tests := []struct {
		violations int
		want       models.Feasibility
		score      float64
	}{
		{0, models.FullyCompliant, 1.0},
		{1, models.RequiresVariances, 0.9},
		{2, models.RequiresVariances, 0.8},
		{3, models.NeedsRezoning, 0.55},
		{4, models.NeedsRezoning, 0.4},
		{5, models.NotFeasible, 0.2},
		{7, models.NotFeasible, 0.2},
	}
	for _, tt := range tests {
		feas, score := Grade(mk(tt.violations))
		if feas != tt.want {
			t.Errorf("Grade(%d violations) = %s, want %s", tt.violations, feas, tt.want)
		}
		if score != tt.score {
			t.Errorf("Grade(%d violations) score = %v, want %v", tt.violations, score, tt.score)
		}
	}
}

func TestEstimateUnits(t *testing.T) {
	v := NewValidator()

	// 10000 sqft * FAR 3.0 * 0.85 / 800 sqft = 31 units, 20% affordable.
	est := v.EstimateUnits(ZoneNCT3, 10000, 0.85)
	if est.TotalUnits != 31 {
		t.Errorf("Expected 31 units, got %d", est.TotalUnits)
	}
	if est.AffordableUnits != 6 {
		t.Errorf("Expected 6 affordable units, got %d", est.AffordableUnits)
	}
	if est.MarketRateUnits != 25 {
		t.Errorf("Expected 25 market-rate units, got %d", est.MarketRateUnits)
	}
}

func TestEstimateUnitsSmallProjectExemption(t *testing.T) {
	v := NewValidator()

	// A small RH-1 lot yields under 10 units, so no inclusionary requirement.
	est := v.EstimateUnits(ZoneRH1, 5000, 0.85)
	if est.TotalUnits >= 10 {
		t.Fatalf("Test lot too large: %d units", est.TotalUnits)
	}
	if est.AffordableUnits != 0 {
		t.Errorf("Expected no affordable requirement below 10 units, got %d", est.AffordableUnits)
	}
}

func TestSuggestUpzone(t *testing.T) {
	v := NewValidator()

	zone, ok := v.SuggestUpzone(30, 10000)
	if !ok {
		t.Fatal("Expected an upzone suggestion")
	}
	// NCT-3 is the least-dense zone holding 30 units on a 10000 sqft lot.
	if zone != ZoneNCT3 {
		t.Errorf("Expected NCT-3, got %s", zone)
	}

	if _, ok := v.SuggestUpzone(10000, 10000); ok {
		t.Error("Expected no zone to reach an impossible target")
	}
}

func TestForNeighborhood(t *testing.T) {
	tests := map[string]Zone{
		"marina":       ZoneRH1,
		"hayes_valley": ZoneNCT3,
		"mission":      ZoneNCT4,
		"somewhere":    ZoneRM2,
	}
	for name, want := range tests {
		if got := ForNeighborhood(name); got != want {
			t.Errorf("ForNeighborhood(%q) = %s, want %s", name, got, want)
		}
	}
}
