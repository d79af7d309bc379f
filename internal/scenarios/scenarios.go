// Package scenarios persists analysis runs users choose to keep. Each
// saved scenario is one JSON file under the data dir, so installs stay
// portable and inspectable without a database.
package scenarios

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/citylens/citylens/internal/models"
)

// Scenario statuses.
const (
	StatusCreated   = "created"
	StatusCompleted = "completed"
)

// Scenario is a saved analysis run.
type Scenario struct {
	ID           string                 `json:"id"`
	Prompt       string                 `json:"prompt"`
	Neighborhood string                 `json:"neighborhood,omitempty"`
	Status       string                 `json:"status"`
	Result       *models.AnalysisResult `json:"result,omitempty"`
	CreatedAt    string                 `json:"createdAt"`
	UpdatedAt    string                 `json:"updatedAt"`
}

// Store handles scenario persistence.
type Store struct {
	scenariosDir string
}

// NewStore creates the scenario store under the data dir.
func NewStore(dataDir string) (*Store, error) {
	dir := filepath.Join(dataDir, "scenarios")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scenarios directory: %w", err)
	}
	return &Store{scenariosDir: dir}, nil
}

// List returns all scenarios sorted by creation date (newest first).
func (s *Store) List() ([]*Scenario, error) {
	entries, err := os.ReadDir(s.scenariosDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios directory: %w", err)
	}

	var scenarios []*Scenario
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		scenario, err := s.load(entry.Name())
		if err != nil {
			continue // skip invalid files
		}
		scenarios = append(scenarios, scenario)
	}

	sort.Slice(scenarios, func(i, j int) bool {
		return scenarios[i].CreatedAt > scenarios[j].CreatedAt
	})
	return scenarios, nil
}

// Get retrieves a scenario by ID.
func (s *Store) Get(id string) (*Scenario, error) {
	return s.load(id + ".json")
}

// Create saves a new scenario with a fresh ID and timestamps.
func (s *Store) Create(scenario *Scenario) (*Scenario, error) {
	scenario.ID = uuid.New().String()
	now := time.Now().UTC().Format(time.RFC3339)
	scenario.CreatedAt = now
	scenario.UpdatedAt = now
	if scenario.Status == "" {
		scenario.Status = StatusCreated
	}
	if scenario.Result != nil {
		scenario.Status = StatusCompleted
	}

	if err := s.save(scenario); err != nil {
		return nil, err
	}
	return scenario, nil
}

// Update attaches a result or changes status on an existing scenario.
func (s *Store) Update(id string, result *models.AnalysisResult) (*Scenario, error) {
	scenario, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if result != nil {
		scenario.Result = result
		scenario.Status = StatusCompleted
	}
	scenario.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	if err := s.save(scenario); err != nil {
		return nil, err
	}
	return scenario, nil
}

// Delete removes a scenario.
func (s *Store) Delete(id string) error {
	path := filepath.Join(s.scenariosDir, id+".json")
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("scenario not found: %s", id)
		}
		return fmt.Errorf("failed to delete scenario: %w", err)
	}
	return nil
}

func (s *Store) load(filename string) (*Scenario, error) {
	data, err := os.ReadFile(filepath.Join(s.scenariosDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("scenario not found: %s", strings.TrimSuffix(filename, ".json"))
		}
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}

	var scenario Scenario
	if err := json.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	return &scenario, nil
}

func (s *Store) save(scenario *Scenario) error {
	data, err := json.MarshalIndent(scenario, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode scenario: %w", err)
	}

	path := filepath.Join(s.scenariosDir, scenario.ID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write scenario: %w", err)
	}
	return nil
}
