package evaluator

import (
	"fmt"
	"sort"

	"github.com/citylens/citylens/internal/models"
	"github.com/citylens/citylens/internal/neighborhoods"
)

// compareNeighborhoods produces pairwise insights from each
// neighborhood's best variant. Categories compare through one
// representative metric each so the deltas stay interpretable.
func compareNeighborhoods(variants []models.ScenarioVariant, profiles map[string]*neighborhoods.Profile, params models.Parameters) []models.ComparativeInsight {
	best := make(map[string]models.ScenarioVariant)
	var order []string
	for _, v := range variants {
		cur, ok := best[v.Neighborhood]
		if !ok {
			order = append(order, v.Neighborhood)
		}
		if !ok || v.Score > cur.Score {
			best[v.Neighborhood] = v
		}
	}
	if len(order) < 2 {
		return nil
	}
	sort.Strings(order[1:]) // keep the primary neighborhood first, rest stable

	var insights []models.ComparativeInsight
	for i := 0; i < len(order); i++ {
		for j := i + 1; j < len(order); j++ {
			insights = append(insights, pairInsights(order[i], order[j], best, profiles, params)...)
		}
	}
	return insights
}

func pairInsights(a, b string, best map[string]models.ScenarioVariant, profiles map[string]*neighborhoods.Profile, params models.Parameters) []models.ComparativeInsight {
	pa, pb := profiles[a], profiles[b]
	if pa == nil || pb == nil {
		return nil
	}
	va, vb := best[a], best[b]

	mk := func(category string, delta float64, narrative string) models.ComparativeInsight {
		return models.ComparativeInsight{
			Category:     category,
			Neighborhood: a,
			Other:        b,
			Delta:        delta,
			Narrative:    narrative,
		}
	}

	var out []models.ComparativeInsight

	unitDelta := float64(va.Units - vb.Units)
	out = append(out, mk("housing", unitDelta,
		fmt.Sprintf("%s supports %d units versus %d in %s under current zoning", pa.Name, va.Units, vb.Units, pb.Name)))

	walkDelta := pa.WalkScore - pb.WalkScore
	richer, poorer := pa, pb
	if walkDelta < 0 {
		richer, poorer = pb, pa
	}
	out = append(out, mk("accessibility", walkDelta,
		fmt.Sprintf("%s starts from stronger walkability (%.0f) than %s (%.0f), so the same investment stretches further in %s",
			richer.Name, richer.WalkScore, poorer.Name, poorer.WalkScore, poorer.Name)))

	dispDelta := pa.DisplacementRisk - pb.DisplacementRisk
	atRisk := pa
	if dispDelta < 0 {
		atRisk = pb
	}
	out = append(out, mk("equity", dispDelta,
		fmt.Sprintf("Displacement pressure is higher in %s; affordability requirements matter more there", atRisk.Name)))

	floodDelta := pa.FloodRisk - pb.FloodRisk
	exposed := pa
	if floodDelta < 0 {
		exposed = pb
	}
	out = append(out, mk("environmental", floodDelta,
		fmt.Sprintf("%s carries the higher flood exposure and needs resilience measures in any scenario", exposed.Name)))

	return out
}
