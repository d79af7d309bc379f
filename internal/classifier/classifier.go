// Package classifier turns free-text urban-planning questions into a
// structured, confidence-scored classification. It is deliberately
// heuristic: fixed lexicons, fixed patterns, no model calls, so the
// same query always classifies the same way.
package classifier

import (
	"sort"
	"strings"
	"unicode"

	"github.com/citylens/citylens/internal/errx"
	"github.com/citylens/citylens/internal/models"
	"github.com/citylens/citylens/internal/neighborhoods"
)

// Confidence weights. Documented here because the final pipeline score
// leans on them: domain match 0.35, neighborhood resolution 0.25,
// structural clarity 0.25, parameter completeness 0.15.
const (
	weightDomain    = 0.35
	weightNeighbors = 0.25
	weightStructure = 0.25
	weightParams    = 0.15

	confidenceCap = 0.95
)

// SnapshotSource provides the neighborhood snapshot used for name and
// landmark resolution.
type SnapshotSource interface {
	Snapshot() *neighborhoods.Snapshot
}

// Classifier classifies queries against static lexicons plus the
// current neighborhood snapshot.
type Classifier struct {
	source SnapshotSource
}

// New creates a classifier reading names from the given source.
func New(source SnapshotSource) *Classifier {
	return &Classifier{source: source}
}

// Classify maps a raw query to a QueryClassification. It returns a
// RelevanceError when the query carries no urban-planning signal; that
// is the only hard failure in the pipeline.
func (c *Classifier) Classify(query string) (models.QueryClassification, error) {
	var cls models.QueryClassification

	if err := checkRelevance(query, c.source.Snapshot()); err != nil {
		return cls, err
	}

	lower := strings.ToLower(query)
	padded := pad(normalize(lower))

	hoods, direct := c.resolveNeighborhoods(padded)
	params := extractParameters(lower)

	queryType, structural := detectQueryType(padded, len(hoods))
	domain, hits := detectDomain(padded)
	elements := detectElements(padded)

	cls = models.QueryClassification{
		QueryType:     queryType,
		PrimaryDomain: domain,
		Neighborhoods: hoods,
		Elements:      elements,
		Parameters:    params,
		Comparative:   len(hoods) >= 2,
	}
	cls.Confidence = confidence(cls, hits, direct, structural)
	return cls, nil
}

// checkRelevance is the guardrail: empty, unreadable, or off-topic
// queries never enter the pipeline.
func checkRelevance(query string, snap *neighborhoods.Snapshot) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return errx.NotRelevant("query is empty")
	}
	if len(trimmed) < 3 {
		return errx.NotRelevant("query is too short to interpret")
	}

	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, trimmed)
	letters := 0
	for _, r := range compact {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if float64(letters) < float64(len([]rune(compact)))*0.6 {
		return errx.NotRelevant("query does not look like readable text")
	}

	lower := strings.ToLower(trimmed)
	padded := pad(normalize(lower))

	for _, kw := range urbanKeywords {
		if containsTerm(padded, kw) {
			return nil
		}
	}
	for landmark := range snap.Landmarks() {
		if containsTerm(padded, landmark) {
			return nil
		}
	}
	for _, q := range questionMarkers {
		if q == "?" {
			if strings.Contains(lower, "?") {
				return nil
			}
			continue
		}
		if containsTerm(padded, q) {
			return nil
		}
	}

	return errx.NotRelevant("query is not about urban planning")
}

// detectQueryType applies the structural markers in a fixed order:
// comparative, then hypothetical, then prescriptive. The boolean result
// reports whether an unambiguous marker matched.
func detectQueryType(padded string, numNeighborhoods int) (models.QueryType, bool) {
	comparative := false
	for _, m := range comparativeMarkers {
		if containsTerm(padded, m) {
			comparative = true
			break
		}
	}
	if comparative && numNeighborhoods >= 2 {
		return models.QueryComparative, true
	}

	for _, m := range scenarioMarkers {
		if containsTerm(padded, m) {
			return models.QueryScenarioPlanning, true
		}
	}
	for _, m := range solutionMarkers {
		if containsTerm(padded, m) {
			return models.QuerySolutionSeeking, true
		}
	}

	// Two resolved neighborhoods imply a comparison even without a marker.
	if numNeighborhoods >= 2 {
		return models.QueryComparative, true
	}
	return models.QueryAnalytical, false
}

// detectDomain counts lexicon hits per domain; the priority order
// breaks ties so classification stays deterministic.
func detectDomain(padded string) (models.Domain, int) {
	best := models.DomainGeneral
	bestHits := 0
	for _, domain := range domainPriority {
		hits := 0
		for _, kw := range domainLexicon[domain] {
			if containsTerm(padded, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best = domain
			bestHits = hits
		}
	}
	return best, bestHits
}

func detectElements(padded string) []string {
	var elements []string
	for _, elem := range elementOrder {
		for _, pattern := range elementPatterns[elem] {
			if containsTerm(padded, pattern) {
				elements = append(elements, elem)
				break
			}
		}
	}
	return elements
}

// resolveNeighborhoods matches direct names first, then landmark and
// street aliases. Results keep first-occurrence order and are deduped.
// The boolean reports whether any match was a direct name.
func (c *Classifier) resolveNeighborhoods(padded string) ([]string, bool) {
	snap := c.source.Snapshot()

	type match struct {
		id     string
		pos    int
		direct bool
	}
	var matches []match
	seen := make(map[string]bool)

	record := func(id string, pos int, direct bool) {
		if pos < 0 || seen[id] {
			return
		}
		seen[id] = true
		matches = append(matches, match{id: id, pos: pos, direct: direct})
	}

	for _, p := range snap.List() {
		pos := termIndex(padded, p.Name)
		if pos < 0 {
			pos = termIndex(padded, strings.ReplaceAll(p.ID, "_", " "))
		}
		record(p.ID, pos, true)
	}

	// Take the earliest-occurring landmark per neighborhood so the
	// result order does not depend on map iteration.
	earliest := make(map[string]int)
	for landmark, id := range snap.Landmarks() {
		if seen[id] {
			continue
		}
		pos := termIndex(padded, landmark)
		if pos < 0 {
			continue
		}
		if cur, ok := earliest[id]; !ok || pos < cur {
			earliest[id] = pos
		}
	}
	for id, pos := range earliest {
		record(id, pos, false)
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })

	ids := make([]string, 0, len(matches))
	direct := false
	for _, m := range matches {
		ids = append(ids, m.id)
		if m.direct {
			direct = true
		}
	}
	return ids, direct
}

// confidence is a fixed weighted sum of sub-scores, clamped to [0,1]
// and capped below full certainty.
func confidence(cls models.QueryClassification, domainHits int, direct, structural bool) float64 {
	domainScore := 0.4
	if cls.PrimaryDomain != models.DomainGeneral {
		domainScore = 0.5 + 0.15*float64(domainHits)
		if domainScore > 1 {
			domainScore = 1
		}
	}

	neighborScore := 0.4
	switch {
	case len(cls.Neighborhoods) > 0 && direct:
		neighborScore = 1.0
	case len(cls.Neighborhoods) > 0:
		neighborScore = 0.7
	}

	structureScore := 0.6
	if structural {
		structureScore = 1.0
	}

	paramScore := 1.0
	if filled, expected := filledSlots(cls.QueryType, cls.Parameters); expected > 0 {
		paramScore = float64(filled) / float64(expected)
	}

	score := weightDomain*domainScore +
		weightNeighbors*neighborScore +
		weightStructure*structureScore +
		weightParams*paramScore

	if score > confidenceCap {
		score = confidenceCap
	}
	if score < 0 {
		score = 0
	}
	return score
}

// normalize lowercases and strips punctuation so "Marina," and
// "marina" match the same way.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '%' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func pad(s string) string {
	return " " + s + " "
}

// termIndex finds a term on word boundaries inside the padded text,
// returning -1 when absent.
func termIndex(padded, term string) int {
	t := normalize(term)
	if t == "" {
		return -1
	}
	return strings.Index(padded, " "+t+" ")
}

// containsTerm reports whether the padded text contains the term on
// word boundaries. Multi-word terms are normalized the same way as the
// text before matching.
func containsTerm(padded, term string) bool {
	t := normalize(term)
	if t == "" {
		return false
	}
	return strings.Contains(padded, " "+t+" ")
}
