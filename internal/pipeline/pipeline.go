// Package pipeline composes the four analysis stages into one
// request-scoped run. The orchestrator owns the agent context, the
// reasoning trace, confidence propagation, and every fallback: apart
// from a relevance rejection, a run always returns a structurally
// complete result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/citylens/citylens/internal/classifier"
	"github.com/citylens/citylens/internal/errx"
	"github.com/citylens/citylens/internal/evaluator"
	"github.com/citylens/citylens/internal/logx"
	"github.com/citylens/citylens/internal/models"
	"github.com/citylens/citylens/internal/neighborhoods"
	"github.com/citylens/citylens/internal/planner"
	"github.com/citylens/citylens/internal/templates"
)

// Stage names, also used in the reasoning trace.
const (
	StageClassifying       = "classifying"
	StageTemplateSelecting = "template_selecting"
	StageGenerating        = "generating"
	StageEvaluating        = "evaluating"
	StageDone              = "done"
	StageDegraded          = "degraded"
)

// Confidence combination: weighted geometric mean over the four stage
// confidences. Weights are fixed; a fallback template shows up through
// the selection stage's factor.
var stageWeights = map[string]float64{
	StageClassifying:       0.35,
	StageTemplateSelecting: 0.15,
	StageGenerating:        0.25,
	StageEvaluating:        0.25,
}

// Penalties multiplied into the final confidence when a stage degrades.
var degradePenalty = map[string]float64{
	StageClassifying: 0.90, // neighborhood defaulted
	StageGenerating:  0.80,
	StageEvaluating:  0.75,
	"data":           0.85, // profile fetch fell back to a generic baseline
}

// defaultNeighborhood absorbs queries that name no neighborhood.
const defaultNeighborhood = "hayes_valley"

// Pipeline runs queries through classification, template selection,
// scenario generation, and impact evaluation.
type Pipeline struct {
	store      *neighborhoods.Store
	classifier *classifier.Classifier
	generator  *planner.Generator
	retries    int
}

// New wires a pipeline against the neighborhood store.
func New(store *neighborhoods.Store, retries int) *Pipeline {
	if retries < 0 {
		retries = 0
	}
	return &Pipeline{
		store:      store,
		classifier: classifier.New(store),
		generator:  planner.New(),
		retries:    retries,
	}
}

// Analyze executes one full run. The only error it returns is the
// classifier's relevance rejection; every other failure degrades the
// result instead. When the context deadline expires mid-run, the best
// partial result is returned with confidence penalized by how far the
// run got.
func (p *Pipeline) Analyze(ctx context.Context, query string) (*models.AnalysisResult, error) {
	run := &agentContext{
		requestID:  uuid.New().String(),
		query:      query,
		snapshot:   p.store.Snapshot(),
		confidence: map[string]float64{},
	}
	// Stage 1: classification. RelevanceError is terminal.
	run.trace(StageClassifying, "interpreting query")
	cls, err := p.classifier.Classify(query)
	if err != nil {
		var app *errx.AppError
		if errors.As(err, &app) {
			app.RequestID = run.requestID
		}
		logx.Warn().Str("request_id", run.requestID).Err(err).Msg("query rejected")
		return nil, err
	}
	if len(cls.Neighborhoods) == 0 {
		cls.Neighborhoods = []string{defaultNeighborhood}
		run.degrade(StageClassifying, "no neighborhood named; defaulting to "+defaultNeighborhood)
	}
	run.classification = cls
	run.confidence[StageClassifying] = cls.Confidence
	run.trace(StageClassifying, fmt.Sprintf("type=%s domain=%s neighborhoods=%v confidence=%.2f",
		cls.QueryType, cls.PrimaryDomain, cls.Neighborhoods, cls.Confidence))

	if partial := p.deadline(ctx, run); partial != nil {
		return partial, nil
	}

	// Stage 2: template selection. Total, never fails.
	tmpl := templates.Select(cls.PrimaryDomain, cls.QueryType)
	run.template = tmpl
	run.confidence[StageTemplateSelecting] = tmpl.ConfidenceFactor
	if tmpl.Fallback {
		run.trace(StageTemplateSelecting, "no specific template for pair; using generic fallback")
		run.warn("generic template used; confidence reduced")
	} else {
		run.trace(StageTemplateSelecting, "selected template "+tmpl.Name)
	}

	// Profile fetches are the pipeline's suspension points: bounded
	// retries, then the documented generic-baseline fallback.
	profiles := make(map[string]*neighborhoods.Profile, len(cls.Neighborhoods))
	ordered := make([]*neighborhoods.Profile, 0, len(cls.Neighborhoods))
	for _, id := range cls.Neighborhoods {
		profile, err := p.profile(ctx, run, id)
		if err != nil {
			run.degrade("data", fmt.Sprintf("no data for %s; using generic baseline", id))
			profile = genericProfile(id)
		}
		profiles[id] = profile
		ordered = append(ordered, profile)
	}

	if partial := p.deadline(ctx, run); partial != nil {
		return partial, nil
	}

	// Stage 3: scenario generation.
	run.trace(StageGenerating, fmt.Sprintf("generating variants with template %s", tmpl.Name))
	gen := p.generator.Generate(tmpl, ordered, cls.Parameters)
	run.variants = gen.Variants
	run.confidence[StageGenerating] = gen.Confidence
	if gen.Errors > 0 {
		run.degrade(StageGenerating, fmt.Sprintf("%d neighborhood(s) degraded during generation", gen.Errors))
	}
	run.trace(StageGenerating, fmt.Sprintf("%d variants, confidence=%.2f", len(gen.Variants), gen.Confidence))

	if partial := p.deadline(ctx, run); partial != nil {
		return partial, nil
	}

	// Stage 4: impact evaluation.
	run.trace(StageEvaluating, "evaluating impact across five categories")
	ev := evaluator.Evaluate(cls, tmpl, gen.Variants, profiles)
	run.evaluation = &ev
	run.confidence[StageEvaluating] = ev.Confidence
	run.trace(StageEvaluating, fmt.Sprintf("overall=%.2f confidence=%.2f", impactScore(ev.Impact), ev.Confidence))

	run.trace(StageDone, "analysis complete")
	result := run.result()
	logx.Info().Str("request_id", run.requestID).Str("status", result.Status).
		Float64("confidence", result.Confidence).Msg("analysis finished")
	return result, nil
}

// profile fetches one neighborhood with the retry budget. The snapshot
// is local, so retries only matter when a refresh races a lookup.
func (p *Pipeline) profile(ctx context.Context, run *agentContext, id string) (*neighborhoods.Profile, error) {
	var lastErr error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
			}
		}
		if profile, ok := run.snapshot.Get(id); ok {
			return profile, nil
		}
		// Re-read the snapshot in case a refresh landed mid-run.
		run.snapshot = p.store.Snapshot()
		lastErr = fmt.Errorf("%w: profile %s not found", errx.ErrDataUnavailable, id)
	}
	return nil, lastErr
}

// deadline returns the best partial result when the request deadline
// has expired, or nil to continue.
func (p *Pipeline) deadline(ctx context.Context, run *agentContext) *models.AnalysisResult {
	select {
	case <-ctx.Done():
	default:
		return nil
	}

	run.degrade(StageDegraded, "deadline exceeded; returning best partial result")
	result := run.result()
	// Penalize proportionally to how much of the pipeline completed.
	completed := float64(len(run.confidence))
	result.Confidence = round3(result.Confidence * completed / float64(len(stageWeights)))
	result.Status = models.StatusDegraded
	logx.Warn().Str("request_id", run.requestID).Err(errx.ErrDeadline).Msg("analysis deadline exceeded")
	return result
}

func genericProfile(id string) *neighborhoods.Profile {
	return &neighborhoods.Profile{
		ID: id, Name: id, Zone: "RM-2",
		WalkScore: 78, TransitScore: 0.6, DisplacementRisk: 0.5,
		FloodRisk: 0.3, CulturalAssets: 0.5,
		MedianPropertyValue: 850000, AvgLotSqft: 10000,
	}
}

func impactScore(impact *models.ComprehensiveImpact) float64 {
	if impact == nil {
		return 0
	}
	return impact.OverallScore
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
