package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/citylens/citylens/internal/cache"
	"github.com/citylens/citylens/internal/config"
	"github.com/citylens/citylens/internal/errx"
	"github.com/citylens/citylens/internal/httputil"
	"github.com/citylens/citylens/internal/logx"
	"github.com/citylens/citylens/internal/models"
	"github.com/citylens/citylens/internal/neighborhoods"
	"github.com/citylens/citylens/internal/pipeline"
	"github.com/citylens/citylens/internal/scenarios"
	"github.com/citylens/citylens/internal/zoning"
)

// Handler provides the analysis API endpoints.
type Handler struct {
	pipeline      *pipeline.Pipeline
	store         *neighborhoods.Store
	validator     *zoning.Validator
	scenarioStore *scenarios.Store
	resultCache   *cache.Cache
	cfg           config.Config
}

// NewHandler creates a new API handler. The cache and scenario store
// may be nil; their endpoints degrade accordingly.
func NewHandler(
	p *pipeline.Pipeline,
	store *neighborhoods.Store,
	scenarioStore *scenarios.Store,
	resultCache *cache.Cache,
	cfg config.Config,
) *Handler {
	return &Handler{
		pipeline:      p,
		store:         store,
		validator:     zoning.NewValidator(),
		scenarioStore: scenarioStore,
		resultCache:   resultCache,
		cfg:           cfg,
	}
}

// RegisterRoutes sets up all API routes.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Health and info
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
	r.HandleFunc("/info", h.handleInfo).Methods("GET")

	// Analysis
	r.HandleFunc("/analyze", h.handleAnalyze).Methods("POST")

	// Neighborhood data
	r.HandleFunc("/neighborhoods", h.handleListNeighborhoods).Methods("GET")
	r.HandleFunc("/neighborhoods/{id}", h.handleGetNeighborhood).Methods("GET")
	r.HandleFunc("/neighborhoods/{id}/validate", h.handleValidateProposal).Methods("POST")
	r.HandleFunc("/neighborhoods/{id}/suggest-upzoning", h.handleSuggestUpzone).Methods("POST")

	// Saved scenarios
	r.HandleFunc("/scenarios", h.handleListScenarios).Methods("GET")
	r.HandleFunc("/scenarios", h.handleCreateScenario).Methods("POST")
	r.HandleFunc("/scenarios/{id}", h.handleGetScenario).Methods("GET")
	r.HandleFunc("/scenarios/{id}", h.handleUpdateScenario).Methods("PUT")
	r.HandleFunc("/scenarios/{id}", h.handleDeleteScenario).Methods("DELETE")

	// Dataset management
	r.HandleFunc("/dataset/status", h.handleDatasetStatus).Methods("GET")
	r.HandleFunc("/dataset/refresh", h.handleDatasetRefresh).Methods("POST")
}

// handleHealth returns server health status.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleInfo returns server information.
func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"version":       h.cfg.Version,
		"neighborhoods": h.store.Snapshot().Count(),
		"cache_enabled": h.resultCache != nil,
	})
}

// handleAnalyze runs a query through the full pipeline.
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req models.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	// The hint may be a neighborhood id or a landmark/street name; fold
	// it into the query text so the classifier resolves it.
	query := req.Query
	if hint := req.Neighborhood; hint != "" {
		if id, ok := h.store.Snapshot().ResolveLandmark(hint); ok {
			hint = id
		}
		hint = strings.ReplaceAll(hint, "_", " ")
		if !strings.Contains(strings.ToLower(query), strings.ToLower(hint)) {
			query = query + " in " + hint
		}
	}

	if cached := h.resultCache.Get(r.Context(), query); cached != nil {
		httputil.RespondJSON(w, http.StatusOK, cached)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	result, err := h.pipeline.Analyze(ctx, query)
	if err != nil {
		status := errx.StatusOf(err)
		var app *errx.AppError
		if errors.As(err, &app) {
			httputil.RespondError(w, status, app.Message, app.RequestID)
			return
		}
		httputil.RespondError(w, status, err.Error(), "")
		return
	}

	h.resultCache.Put(r.Context(), query, result)
	httputil.RespondJSON(w, http.StatusOK, result)
}

// handleListNeighborhoods returns all loaded neighborhood profiles.
func (h *Handler) handleListNeighborhoods(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.store.Snapshot().List())
}

// handleGetNeighborhood returns one profile by id.
func (h *Handler) handleGetNeighborhood(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	profile, ok := h.store.Snapshot().Get(id)
	if !ok {
		h.respondUnknownNeighborhood(w, id)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, profile)
}

func (h *Handler) respondUnknownNeighborhood(w http.ResponseWriter, id string) {
	err := errx.New(errx.ErrUnknownNeighborhood, http.StatusNotFound, "unknown neighborhood: "+id)
	httputil.RespondError(w, errx.StatusOf(err), err.Message, "")
}

// handleValidateProposal checks a development proposal against the
// neighborhood's zoning.
func (h *Handler) handleValidateProposal(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	profile, ok := h.store.Snapshot().Get(id)
	if !ok {
		h.respondUnknownNeighborhood(w, id)
		return
	}

	var req models.ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	zone := zoning.Zone(profile.Zone)
	if _, ok := zoning.RulesFor(zone); !ok {
		zone = zoning.ForNeighborhood(profile.ID)
	}

	feasible, violations := h.validator.Validate(zone, zoning.Proposal{
		FAR:                   req.FAR,
		HeightFt:              req.HeightFt,
		LotAreaSqft:           profile.AvgLotSqft,
		Units:                 req.Units,
		AffordablePct:         req.AffordablePct,
		GroundFloorCommercial: req.GroundFloorCommercial,
	})
	feasibility, _ := zoning.Grade(violations)
	estimate := h.validator.EstimateUnits(zone, profile.AvgLotSqft, 0)

	httputil.RespondJSON(w, http.StatusOK, models.ValidateResponse{
		Neighborhood: profile.ID,
		Zone:         string(zone),
		Feasible:     feasible,
		Feasibility:  feasibility,
		Violations:   violations,
		MaxUnits:     estimate.TotalUnits,
	})
}

// handleSuggestUpzone suggests the least-dense zone that reaches a unit
// target on the neighborhood's typical lot.
func (h *Handler) handleSuggestUpzone(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	profile, ok := h.store.Snapshot().Get(id)
	if !ok {
		h.respondUnknownNeighborhood(w, id)
		return
	}

	var req models.UpzoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	if req.TargetUnits <= 0 {
		httputil.RespondError(w, http.StatusBadRequest, "target_units must be positive", "")
		return
	}

	lot := req.LotAreaSqft
	if lot <= 0 {
		lot = profile.AvgLotSqft
	}

	zone := zoning.Zone(profile.Zone)
	if _, ok := zoning.RulesFor(zone); !ok {
		zone = zoning.ForNeighborhood(profile.ID)
	}

	resp := models.UpzoneResponse{
		Neighborhood: profile.ID,
		CurrentZone:  string(zone),
		TargetUnits:  req.TargetUnits,
	}
	suggested, achievable := h.validator.SuggestUpzone(req.TargetUnits, lot)
	if achievable {
		resp.Achievable = true
		resp.SuggestedZone = string(suggested)
		resp.EstimatedUnits = h.validator.EstimateUnits(suggested, lot, 0).TotalUnits
	} else {
		resp.Message = fmt.Sprintf("target of %d units not achievable on a %.0f sq ft lot", req.TargetUnits, lot)
		resp.EstimatedUnits = h.validator.EstimateUnits(zoning.ZoneNCT4, lot, 0).TotalUnits
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// handleListScenarios returns saved scenarios, newest first.
func (h *Handler) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	if h.scenarioStore == nil {
		httputil.RespondJSON(w, http.StatusOK, []*scenarios.Scenario{})
		return
	}
	list, err := h.scenarioStore.List()
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	if list == nil {
		list = []*scenarios.Scenario{}
	}
	httputil.RespondJSON(w, http.StatusOK, list)
}

// handleCreateScenario saves a scenario, running the analysis when the
// request carries a prompt but no result.
func (h *Handler) handleCreateScenario(w http.ResponseWriter, r *http.Request) {
	if h.scenarioStore == nil {
		httputil.RespondError(w, http.StatusServiceUnavailable, "scenario store not available", "")
		return
	}

	var scenario scenarios.Scenario
	if err := json.NewDecoder(r.Body).Decode(&scenario); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	if strings.TrimSpace(scenario.Prompt) == "" {
		httputil.RespondError(w, http.StatusBadRequest, "prompt is required", "")
		return
	}

	if scenario.Result == nil {
		ctx, cancel := h.requestContext(r)
		defer cancel()
		result, err := h.pipeline.Analyze(ctx, scenario.Prompt)
		if err != nil {
			httputil.RespondError(w, errx.StatusOf(err), err.Error(), "")
			return
		}
		scenario.Result = result
	}

	created, err := h.scenarioStore.Create(&scenario)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, created)
}

// handleGetScenario returns one saved scenario.
func (h *Handler) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	if h.scenarioStore == nil {
		httputil.RespondError(w, http.StatusNotFound, "scenario store not available", "")
		return
	}
	scenario, err := h.scenarioStore.Get(mux.Vars(r)["id"])
	if err != nil {
		httputil.RespondError(w, http.StatusNotFound, err.Error(), "")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, scenario)
}

// handleUpdateScenario re-runs the analysis for a saved scenario and
// attaches the fresh result.
func (h *Handler) handleUpdateScenario(w http.ResponseWriter, r *http.Request) {
	if h.scenarioStore == nil {
		httputil.RespondError(w, http.StatusNotFound, "scenario store not available", "")
		return
	}
	id := mux.Vars(r)["id"]
	scenario, err := h.scenarioStore.Get(id)
	if err != nil {
		httputil.RespondError(w, http.StatusNotFound, err.Error(), "")
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()
	result, err := h.pipeline.Analyze(ctx, scenario.Prompt)
	if err != nil {
		httputil.RespondError(w, errx.StatusOf(err), err.Error(), "")
		return
	}

	updated, err := h.scenarioStore.Update(id, result)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, updated)
}

// handleDeleteScenario removes a saved scenario.
func (h *Handler) handleDeleteScenario(w http.ResponseWriter, r *http.Request) {
	if h.scenarioStore == nil {
		httputil.RespondError(w, http.StatusNotFound, "scenario store not available", "")
		return
	}
	if err := h.scenarioStore.Delete(mux.Vars(r)["id"]); err != nil {
		httputil.RespondError(w, http.StatusNotFound, err.Error(), "")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleDatasetStatus reports where the active snapshot came from.
func (h *Handler) handleDatasetStatus(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.store.Status())
}

// handleDatasetRefresh rebuilds the neighborhood snapshot from the
// database and swaps it in atomically.
func (h *Handler) handleDatasetRefresh(w http.ResponseWriter, r *http.Request) {
	status, err := h.store.Refresh()
	if err != nil {
		logx.Warn().Err(err).Msg("dataset refresh failed")
		httputil.RespondError(w, http.StatusConflict, err.Error(), "")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, status)
}

// requestContext bounds a pipeline run with the configured deadline.
func (h *Handler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	timeout := h.cfg.AnalysisTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(r.Context(), timeout)
}
