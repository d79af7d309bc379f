package classifier

import "github.com/citylens/citylens/internal/models"

// domainPriority breaks lexicon ties deterministically: the first listed
// domain with the highest keyword count wins.
var domainPriority = []models.Domain{
	models.DomainTransportation,
	models.DomainHousing,
	models.DomainClimate,
	models.DomainEconomic,
	models.DomainEnvironmental,
}

var domainLexicon = map[models.Domain][]string{
	models.DomainTransportation: {
		"bike", "bicycle", "cycling", "bike lane", "transit", "bart", "muni",
		"bus", "transport", "traffic", "walkable", "pedestrian", "parking",
		"congestion", "mobility", "commute", "driving", "cars", "vehicles",
	},
	models.DomainHousing: {
		"housing", "apartment", "apartments", "units", "density",
		"residential", "affordable", "rent", "condo", "development",
		"zoning", "height", "upzone",
	},
	models.DomainClimate: {
		"climate", "temperature", "degrees", "colder", "cooler", "warmer",
		"hotter", "flood", "flooding", "sea level", "weather", "heat",
		"resilience", "warming",
	},
	models.DomainEconomic: {
		"business", "businesses", "economic", "economy", "revenue", "jobs",
		"retail", "commercial", "restaurant", "restaurants", "shop",
		"storefront", "foot traffic",
	},
	models.DomainEnvironmental: {
		"environment", "environmental", "green space", "park", "parks",
		"trees", "pollution", "air quality", "carbon", "sustainability",
		"energy", "solar", "open space",
	},
}

// urbanKeywords is the relevance guard vocabulary: a query with none of
// these, no neighborhood reference, and no question structure is
// rejected as off-topic.
var urbanKeywords = []string{
	"housing", "development", "zoning", "neighborhood", "building", "density",
	"transit", "transportation", "walkable", "bike", "pedestrian", "planning",
	"mission", "marina", "hayes", "valley", "francisco", "sf",
	"infrastructure", "utilities", "water", "sewer", "street", "road",
	"park", "green", "space", "public", "community",
	"affordable", "gentrification", "displacement", "equity", "policy",
	"permit", "approval", "variance", "height", "setback",
	"climate", "flood", "sea level", "temperature", "environmental",
	"sustainability", "energy", "solar",
	"cost", "price", "value", "economic", "business", "commercial",
	"retail", "office", "mixed use",
	"impact", "effect", "affect", "change", "improve", "add", "build",
}

var questionMarkers = []string{
	"?", "what", "how", "where", "when", "why", "can", "should", "would",
}

var comparativeMarkers = []string{
	"vs", "versus", "compare", "compared to", "comparison",
	"difference between", "better than", "worse than", "both",
}

var scenarioMarkers = []string{
	"what if", "if we", "if the", "if it", "suppose", "imagine",
	"what would happen",
}

var solutionMarkers = []string{
	"how should", "what should", "how can", "how do we", "how could",
	"what can we do", "best way to",
}

// elementPatterns map planning-element tags onto their trigger phrases.
var elementPatterns = map[string][]string{
	"bike_infrastructure": {"bike", "bicycle", "cycling", "bike lane", "bike path", "cycling infrastructure"},
	"business_impact":     {"business", "businesses", "retail", "restaurant", "shop", "commercial", "economic impact"},
	"transit":             {"transit", "bart", "muni", "bus", "transportation", "public transport"},
	"housing":             {"housing", "apartments", "units", "affordable housing", "residential"},
	"parks":               {"park", "green space", "open space", "recreation", "playground"},
	"streets":             {"street", "road", "sidewalk", "crosswalk", "intersection", "traffic"},
	"zoning":              {"zoning", "development", "density", "height", "floor area ratio", "far"},
	"equity":              {"equity", "displacement", "gentrification", "affordability", "community"},
}

// elementOrder keeps extracted element lists deterministic.
var elementOrder = []string{
	"bike_infrastructure", "business_impact", "transit", "housing",
	"parks", "streets", "zoning", "equity",
}
