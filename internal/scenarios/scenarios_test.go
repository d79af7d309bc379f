package scenarios

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/citylens/citylens/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestCreateAndGet(t *testing.T) {
	store := newTestStore(t)

	created, err := store.Create(&Scenario{
		Prompt:       "More housing on Valencia Street",
		Neighborhood: "mission",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" {
		t.Error("Expected an ID")
	}
	if created.Status != StatusCreated {
		t.Errorf("Expected status %s, got %s", StatusCreated, created.Status)
	}
	if created.CreatedAt == "" || created.UpdatedAt == "" {
		t.Error("Expected timestamps")
	}

	got, err := store.Get(created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Prompt != created.Prompt || got.Neighborhood != "mission" {
		t.Errorf("Got %+v", got)
	}
}

func TestCreateWithResultIsCompleted(t *testing.T) {
	store := newTestStore(t)

	created, err := store.Create(&Scenario{
		Prompt: "Marina vs Mission bike infrastructure",
		Result: &models.AnalysisResult{RequestID: "r1", Status: models.StatusOK, Confidence: 0.8},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Status != StatusCompleted {
		t.Errorf("Expected status %s, got %s", StatusCompleted, created.Status)
	}
}

func TestGetNotFound(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Get("missing"); err == nil {
		t.Fatal("Expected error for missing scenario")
	} else if !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected not found error, got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	store := newTestStore(t)

	first, err := store.Create(&Scenario{Prompt: "first"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	// Force distinct creation timestamps (RFC3339 has second resolution).
	first.CreatedAt = "2026-01-01T00:00:00Z"
	if err := store.save(first); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	second, err := store.Create(&Scenario{Prompt: "second"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	list, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 scenarios, got %d", len(list))
	}
	if list[0].ID != second.ID {
		t.Errorf("Expected newest first, got %s", list[0].Prompt)
	}
}

func TestListSkipsInvalidFiles(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Create(&Scenario{Prompt: "valid"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(store.scenariosDir, "broken.json"), []byte("not json"), 0644); err != nil {
		t.Fatalf("Failed to write broken file: %v", err)
	}

	list, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("Expected invalid file to be skipped, got %d scenarios", len(list))
	}
}

func TestUpdateAttachesResult(t *testing.T) {
	store := newTestStore(t)

	created, err := store.Create(&Scenario{Prompt: "pending"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	result := &models.AnalysisResult{RequestID: "r2", Status: models.StatusOK, Confidence: 0.75}
	updated, err := store.Update(created.ID, result)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Status != StatusCompleted {
		t.Errorf("Expected status %s, got %s", StatusCompleted, updated.Status)
	}
	if updated.Result == nil || updated.Result.RequestID != "r2" {
		t.Errorf("Result not attached: %+v", updated.Result)
	}

	got, err := store.Get(created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Result == nil || got.Result.Confidence != 0.75 {
		t.Errorf("Result not persisted: %+v", got.Result)
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)

	created, err := store.Create(&Scenario{Prompt: "doomed"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.Delete(created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(created.ID); err == nil {
		t.Error("Expected scenario to be gone")
	}
	if err := store.Delete(created.ID); err == nil {
		t.Error("Expected error deleting twice")
	}
}
