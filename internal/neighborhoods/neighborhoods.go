package neighborhoods

import (
	"sort"
	"strings"
	"time"
)

// Profile holds everything the pipeline knows about one neighborhood.
type Profile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	AreaType string `json:"area_type"`
	Zone     string `json:"zoning"`

	// Baseline indices used by the impact formulas.
	WalkScore           float64 `json:"walk_score"`
	TransitScore        float64 `json:"transit_score"`
	DisplacementRisk    float64 `json:"displacement_risk"`
	FloodRisk           float64 `json:"flood_risk"`
	CulturalAssets      float64 `json:"cultural_assets"`
	MedianPropertyValue float64 `json:"median_property_value"`

	// Typical development lot used for capacity estimates.
	AvgLotSqft float64 `json:"avg_lot_sqft"`

	MainStreets     []string `json:"main_streets"`
	Landmarks       []string `json:"landmarks"`
	Transport       []string `json:"transport"`
	Characteristics []string `json:"characteristics"`
}

// Snapshot is an immutable view of all loaded profiles. Readers share a
// snapshot pointer; a refresh builds a new one and swaps it in, so a
// request never sees a half-updated dataset.
type Snapshot struct {
	profiles  map[string]*Profile
	landmarks map[string]string // lowercased landmark/street -> neighborhood id
	loadedAt  time.Time
	source    string
}

// Get returns the profile for a neighborhood id.
func (s *Snapshot) Get(id string) (*Profile, bool) {
	p, ok := s.profiles[strings.ToLower(id)]
	return p, ok
}

// List returns all profiles in stable id order.
func (s *Snapshot) List() []*Profile {
	ids := s.IDs()
	out := make([]*Profile, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.profiles[id])
	}
	return out
}

// IDs returns the sorted neighborhood ids.
func (s *Snapshot) IDs() []string {
	ids := make([]string, 0, len(s.profiles))
	for id := range s.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ResolveLandmark maps a landmark or street mention to its neighborhood.
func (s *Snapshot) ResolveLandmark(text string) (string, bool) {
	id, ok := s.landmarks[strings.ToLower(text)]
	return id, ok
}

// Landmarks returns the landmark index for substring scans.
func (s *Snapshot) Landmarks() map[string]string {
	return s.landmarks
}

// Count returns the number of loaded profiles.
func (s *Snapshot) Count() int {
	return len(s.profiles)
}

func buildSnapshot(profiles []*Profile, source string) *Snapshot {
	snap := &Snapshot{
		profiles:  make(map[string]*Profile, len(profiles)),
		landmarks: make(map[string]string),
		loadedAt:  time.Now().UTC(),
		source:    source,
	}
	for _, p := range profiles {
		id := strings.ToLower(p.ID)
		snap.profiles[id] = p
		for _, lm := range p.Landmarks {
			snap.landmarks[strings.ToLower(lm)] = id
		}
		for _, st := range p.MainStreets {
			snap.landmarks[strings.ToLower(st)] = id
		}
	}
	return snap
}
