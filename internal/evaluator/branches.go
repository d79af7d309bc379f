package evaluator

import (
	"fmt"
	"math"

	"github.com/citylens/citylens/internal/models"
	"github.com/citylens/citylens/internal/neighborhoods"
)

// Branch horizons never decrease and probability labels weaken as the
// horizon grows.
var branchHorizons = []int{2, 5, 10}
var branchProbabilities = []string{"likely", "possible", "speculative"}

// scenarioBranches builds the ordered what-if futures for a scenario
// planning query.
func scenarioBranches(cls models.QueryClassification, v models.ScenarioVariant, p *neighborhoods.Profile) []models.ScenarioBranch {
	branches := make([]models.ScenarioBranch, 0, len(branchHorizons))

	for i, horizon := range branchHorizons {
		branch := models.ScenarioBranch{
			Probability:  branchProbabilities[i],
			HorizonYears: horizon,
		}

		switch {
		case cls.Parameters.TemperatureDelta != nil:
			delta := *cls.Parameters.TemperatureDelta
			adjective := "warmer"
			if delta < 0 {
				adjective = "colder"
			}
			branch.Name = fmt.Sprintf("%d-year adaptation to a %.0f°F %s climate", horizon, math.Abs(delta), adjective)
			branch.Factors = []string{"energy demand", "building stock", "public health"}
			switch i {
			case 0:
				branch.Description = fmt.Sprintf("Immediate response in %s focuses on building systems", p.Name)
				branch.Consequences = []string{
					fmt.Sprintf("Heating and cooling budgets shift roughly %.0f%%", math.Abs(delta)*energyPctPerDegree),
					"Retrofit incentives see early uptake in older buildings",
				}
			case 1:
				branch.Description = "Mid-term adaptation reshapes codes and utilities"
				branch.Consequences = []string{
					"Energy code updates mandate envelope performance",
					"Utility peak load planning absorbs the new demand curve",
				}
			default:
				branch.Description = "Long-term shift changes what gets built"
				branch.Consequences = []string{
					"New construction defaults to climate-adapted design",
					"Vulnerable households need sustained assistance programs",
				}
			}
		default:
			branch.Name = fmt.Sprintf("%d-year build-out of %s", horizon, v.Title)
			branch.Factors = []string{"housing delivery", "neighborhood change"}
			switch i {
			case 0:
				branch.Description = fmt.Sprintf("Entitlement and early construction in %s", p.Name)
				branch.Consequences = []string{
					"Permitting and community review dominate the timeline",
					"First phase delivers a fraction of planned units",
				}
			case 1:
				branch.Description = "Full delivery and absorption of new units"
				branch.Consequences = []string{
					fmt.Sprintf("Around %d units reach occupancy", v.Units),
					"Local services adjust to the larger population",
				}
			default:
				branch.Description = "Neighborhood equilibrium after absorption"
				branch.Consequences = []string{
					"Price effects of added supply become measurable",
					"Follow-on projects test the same development pattern",
				}
			}
		}

		branches = append(branches, branch)
	}
	return branches
}

// followUps suggests next questions by domain, mirroring the kinds of
// explorations the analysis can answer.
func followUps(domain models.Domain) []string {
	switch domain {
	case models.DomainHousing:
		return []string{
			"What specific community benefits should be included?",
			"How can displacement be prevented during construction?",
			"What financing mechanisms would support affordability?",
		}
	case models.DomainClimate:
		return []string{
			"How would extreme weather events affect implementation?",
			"What community preparedness measures are needed?",
			"How do we ensure equitable access to resilience measures?",
		}
	case models.DomainTransportation:
		return []string{
			"How would bike infrastructure change parking availability?",
			"What transit frequency would the added demand justify?",
		}
	case models.DomainEconomic:
		return []string{
			"Which legacy businesses are most exposed to rent increases?",
			"What share of new ground-floor space should be local-serving?",
		}
	default:
		return []string{
			"Which neighborhood should absorb the next increment of growth?",
			"What tradeoff matters most here: affordability, mobility, or resilience?",
		}
	}
}
