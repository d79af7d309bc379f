package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/citylens/citylens/internal/config"
	"github.com/citylens/citylens/internal/models"
	"github.com/citylens/citylens/internal/neighborhoods"
	"github.com/citylens/citylens/internal/pipeline"
	"github.com/citylens/citylens/internal/scenarios"
)

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()
	dataDir := t.TempDir()

	store := neighborhoods.NewStore(dataDir)
	scenarioStore, err := scenarios.NewStore(dataDir)
	if err != nil {
		t.Fatalf("Failed to create scenario store: %v", err)
	}

	cfg := config.Config{AnalysisTimeout: 10 * time.Second, Version: "test"}
	handler := NewHandler(pipeline.New(store, 1), store, scenarioStore, nil, cfg)

	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleHealth(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("Expected ok status, got %s", resp["status"])
	}
}

func TestHandleInfo(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, "GET", "/info", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["version"] != "test" {
		t.Errorf("Expected test version, got %v", resp["version"])
	}
	if resp["neighborhoods"].(float64) != 3 {
		t.Errorf("Expected 3 neighborhoods, got %v", resp["neighborhoods"])
	}
}

func TestHandleAnalyze(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, "POST", "/analyze", models.AnalysisRequest{
		Query: "Marina vs Mission bike infrastructure",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var result models.AnalysisResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}
	if result.Classification.QueryType != models.QueryComparative {
		t.Errorf("Expected comparative, got %s", result.Classification.QueryType)
	}
	if result.Impact == nil {
		t.Error("Expected impact in result")
	}
	if result.RequestID == "" {
		t.Error("Expected request id")
	}
}

func TestHandleAnalyzeNeighborhoodHint(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, "POST", "/analyze", models.AnalysisRequest{
		Query:        "How would more housing affect displacement?",
		Neighborhood: "hayes_valley",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var result models.AnalysisResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}
	if len(result.Classification.Neighborhoods) != 1 || result.Classification.Neighborhoods[0] != "hayes_valley" {
		t.Errorf("Expected hinted neighborhood, got %v", result.Classification.Neighborhoods)
	}
	if result.Status != models.StatusOK {
		t.Errorf("Hinted neighborhood should not degrade the run, got %s", result.Status)
	}
}

func TestHandleAnalyzeIrrelevantQuery(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, "POST", "/analyze", models.AnalysisRequest{Query: ""})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d", w.Code)
	}

	var resp map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error: %v", err)
	}
	if msg, _ := resp["error"].(string); msg == "" {
		t.Error("Expected an error message")
	}
	if id, _ := resp["request_id"].(string); id == "" {
		t.Error("Expected a request id in the error body")
	}
}

func TestHandleAnalyzeLandmarkHint(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, "POST", "/analyze", models.AnalysisRequest{
		Query:        "How would more housing affect displacement?",
		Neighborhood: "Palace of Fine Arts",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var result models.AnalysisResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}
	if len(result.Classification.Neighborhoods) != 1 || result.Classification.Neighborhoods[0] != "marina" {
		t.Errorf("Expected landmark hint to resolve to marina, got %v", result.Classification.Neighborhoods)
	}
}

func TestHandleAnalyzeInvalidBody(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest("POST", "/analyze", bytes.NewBufferString("not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestHandleListNeighborhoods(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, "GET", "/neighborhoods", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var profiles []neighborhoods.Profile
	if err := json.NewDecoder(w.Body).Decode(&profiles); err != nil {
		t.Fatalf("Failed to decode profiles: %v", err)
	}
	if len(profiles) != 3 {
		t.Errorf("Expected 3 profiles, got %d", len(profiles))
	}
}

func TestHandleGetNeighborhood(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, "GET", "/neighborhoods/mission", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var profile neighborhoods.Profile
	if err := json.NewDecoder(w.Body).Decode(&profile); err != nil {
		t.Fatalf("Failed to decode profile: %v", err)
	}
	if profile.ID != "mission" || profile.Zone != "NCT-4" {
		t.Errorf("Unexpected profile: %+v", profile)
	}

	if w := doJSON(t, router, "GET", "/neighborhoods/atlantis", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown neighborhood, got %d", w.Code)
	}
}

func TestHandleValidateProposal(t *testing.T) {
	router := newTestRouter(t)

	// Marina is RH-1: FAR 2.0 over the 0.8 limit is infeasible.
	w := doJSON(t, router, "POST", "/neighborhoods/marina/validate", models.ValidateRequest{
		Units:    20,
		FAR:      2.0,
		HeightFt: 35,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp models.ValidateResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Zone != "RH-1" {
		t.Errorf("Expected RH-1, got %s", resp.Zone)
	}
	if resp.Feasible {
		t.Error("Expected infeasible proposal")
	}
	if len(resp.Violations) == 0 {
		t.Error("Expected violations")
	}
	if resp.MaxUnits <= 0 {
		t.Errorf("Expected a unit estimate, got %d", resp.MaxUnits)
	}
}

func TestHandleValidateCompliantProposal(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, "POST", "/neighborhoods/hayes_valley/validate", models.ValidateRequest{
		Units:                 25,
		FAR:                   2.5,
		HeightFt:              50,
		AffordablePct:         20,
		GroundFloorCommercial: true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp models.ValidateResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Feasible {
		t.Errorf("Expected feasible proposal, violations: %v", resp.Violations)
	}
	if resp.Feasibility != models.FullyCompliant {
		t.Errorf("Expected fully compliant, got %s", resp.Feasibility)
	}
}

func TestHandleSuggestUpzone(t *testing.T) {
	router := newTestRouter(t)

	// Marina's RH-1 cannot hold 30 units on a 10000 sqft lot; NCT-3 can.
	w := doJSON(t, router, "POST", "/neighborhoods/marina/suggest-upzoning", models.UpzoneRequest{
		TargetUnits: 30,
		LotAreaSqft: 10000,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp models.UpzoneResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.CurrentZone != "RH-1" {
		t.Errorf("Expected RH-1 current zone, got %s", resp.CurrentZone)
	}
	if !resp.Achievable {
		t.Fatal("Expected an achievable upzone")
	}
	if resp.SuggestedZone != "NCT-3" {
		t.Errorf("Expected NCT-3, got %s", resp.SuggestedZone)
	}
	if resp.EstimatedUnits < 30 {
		t.Errorf("Suggested zone estimate %d below target", resp.EstimatedUnits)
	}
}

func TestHandleSuggestUpzoneUnachievable(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, "POST", "/neighborhoods/mission/suggest-upzoning", models.UpzoneRequest{
		TargetUnits: 10000,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp models.UpzoneResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Achievable || resp.SuggestedZone != "" {
		t.Errorf("Expected no suggestion for an impossible target, got %+v", resp)
	}
	if resp.Message == "" {
		t.Error("Expected a message explaining the unachievable target")
	}
}

func TestHandleSuggestUpzoneBadRequest(t *testing.T) {
	router := newTestRouter(t)

	if w := doJSON(t, router, "POST", "/neighborhoods/marina/suggest-upzoning", models.UpzoneRequest{}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing target, got %d", w.Code)
	}
	if w := doJSON(t, router, "POST", "/neighborhoods/atlantis/suggest-upzoning", models.UpzoneRequest{TargetUnits: 10}); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown neighborhood, got %d", w.Code)
	}
}

func TestScenarioLifecycle(t *testing.T) {
	router := newTestRouter(t)

	// Create runs the analysis when no result is attached.
	w := doJSON(t, router, "POST", "/scenarios", map[string]string{
		"prompt":       "What if it became 10 degrees colder in Mission?",
		"neighborhood": "mission",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created scenarios.Scenario
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("Failed to decode scenario: %v", err)
	}
	if created.Status != scenarios.StatusCompleted {
		t.Errorf("Expected completed status, got %s", created.Status)
	}
	if created.Result == nil {
		t.Fatal("Expected an attached analysis result")
	}

	w = doJSON(t, router, "GET", "/scenarios", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var list []scenarios.Scenario
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatalf("Failed to decode list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("Expected 1 scenario, got %d", len(list))
	}

	w = doJSON(t, router, "GET", "/scenarios/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	// Re-running the analysis replaces the attached result.
	w = doJSON(t, router, "PUT", "/scenarios/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 on update, got %d: %s", w.Code, w.Body.String())
	}
	var updated scenarios.Scenario
	if err := json.NewDecoder(w.Body).Decode(&updated); err != nil {
		t.Fatalf("Failed to decode updated scenario: %v", err)
	}
	if updated.Result == nil || updated.Result.RequestID == created.Result.RequestID {
		t.Error("Expected a fresh analysis result on update")
	}
	if w := doJSON(t, router, "PUT", "/scenarios/missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 updating a missing scenario, got %d", w.Code)
	}

	w = doJSON(t, router, "DELETE", "/scenarios/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if w := doJSON(t, router, "GET", "/scenarios/"+created.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}
}

func TestCreateScenarioRequiresPrompt(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, "POST", "/scenarios", map[string]string{"prompt": "  "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestHandleDatasetStatus(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, "GET", "/dataset/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var status neighborhoods.Status
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode status: %v", err)
	}
	if status.Source != "seed" {
		t.Errorf("Expected seed source, got %s", status.Source)
	}
	if status.Count != 3 {
		t.Errorf("Expected 3 profiles, got %d", status.Count)
	}
}

func TestHandleDatasetRefreshWithoutDB(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, "POST", "/dataset/refresh", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 without a database, got %d", w.Code)
	}
}
