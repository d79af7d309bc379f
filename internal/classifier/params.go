package classifier

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/citylens/citylens/internal/models"
)

var (
	temperatureRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*degrees?\s*(colder|cooler|warmer|hotter)`)
	percentageRe  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:%|percent)`)
	unitsRe       = regexp.MustCompile(`(\d+)\s*(?:units|homes|apartments|dwellings)`)
	timeframeRe   = regexp.MustCompile(`(?:over|in|within|next)?\s*(\d+)\s*(?:years|year|yrs)`)
)

// extractParameters pulls quantities out of the lowercased query.
// Directional temperature deltas are signed: "10 degrees colder" is -10.
func extractParameters(query string) models.Parameters {
	var p models.Parameters

	if m := temperatureRe.FindStringSubmatch(query); m != nil {
		delta, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			if m[2] == "colder" || m[2] == "cooler" {
				delta = -delta
			}
			p.TemperatureDelta = &delta
		}
	}

	if m := percentageRe.FindStringSubmatch(query); m != nil {
		if pct, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.Percentage = &pct
		}
	}

	if m := unitsRe.FindStringSubmatch(query); m != nil {
		if units, err := strconv.Atoi(m[1]); err == nil {
			p.Units = &units
		}
	}

	if m := timeframeRe.FindStringSubmatch(query); m != nil {
		if years, err := strconv.Atoi(strings.TrimSpace(m[1])); err == nil {
			p.TimeframeYears = &years
		}
	}

	return p
}

// filledSlots counts how many of the expected parameter slots a query
// type actually filled. Only scenario planning expects parameters.
func filledSlots(qt models.QueryType, p models.Parameters) (filled, expected int) {
	if qt != models.QueryScenarioPlanning {
		return 0, 0
	}
	expected = 1
	if p.TemperatureDelta != nil || p.Percentage != nil || p.Units != nil || p.TimeframeYears != nil {
		filled = 1
	}
	return filled, expected
}
