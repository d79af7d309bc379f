package neighborhoods

// seedProfiles returns the built-in San Francisco profiles used when no
// neighborhood database is installed. Baseline indices mirror the city
// data the impact formulas were calibrated against.
func seedProfiles() []*Profile {
	return []*Profile{
		{
			ID:                  "hayes_valley",
			Name:                "Hayes Valley",
			AreaType:            "mixed_use_corridor",
			Zone:                "NCT-3",
			WalkScore:           85,
			TransitScore:        0.9,
			DisplacementRisk:    0.7,
			FloodRisk:           0.1,
			CulturalAssets:      0.6,
			MedianPropertyValue: 950000,
			AvgLotSqft:          10000,
			MainStreets:         []string{"Hayes Street", "Grove Street", "Fell Street", "Oak Street", "Octavia Street"},
			Landmarks:           []string{"Patricia's Green", "Hayes Valley Playground", "Proxy SF", "SF Jazz Center", "SF Jazz", "Hayes"},
			Transport:           []string{"Van Ness-UNM BART", "Hayes-Fillmore Muni"},
			Characteristics:     []string{"boutique retail", "transit-oriented", "freeway parcel infill"},
		},
		{
			ID:                  "marina",
			Name:                "Marina",
			AreaType:            "low_density_residential",
			Zone:                "RH-1",
			WalkScore:           70,
			TransitScore:        0.4,
			DisplacementRisk:    0.3,
			FloodRisk:           0.8,
			CulturalAssets:      0.3,
			MedianPropertyValue: 1200000,
			AvgLotSqft:          8000,
			MainStreets:         []string{"Chestnut Street", "Union Street", "Lombard Street", "Marina Boulevard"},
			Landmarks:           []string{"Marina Green", "Palace of Fine Arts", "Crissy Field", "Marina Harbor", "Cow Hollow"},
			Transport:           []string{"Golden Gate Transit", "Muni Lines 30, 43"},
			Characteristics:     []string{"single-family housing", "liquefaction zone", "waterfront"},
		},
		{
			ID:                  "mission",
			Name:                "Mission",
			AreaType:            "high_density_mixed_use",
			Zone:                "NCT-4",
			WalkScore:           88,
			TransitScore:        0.8,
			DisplacementRisk:    0.8,
			FloodRisk:           0.2,
			CulturalAssets:      0.9,
			MedianPropertyValue: 850000,
			AvgLotSqft:          10000,
			MainStreets:         []string{"Mission Street", "Valencia Street", "16th Street", "24th Street"},
			Landmarks:           []string{"Mission Dolores", "Valencia Corridor", "Mission Cultural Center", "Balmy Alley", "Valencia"},
			Transport:           []string{"16th St Mission BART", "24th St Mission BART"},
			Characteristics:     []string{"cultural district", "dense corridors", "displacement pressure"},
		},
	}
}
