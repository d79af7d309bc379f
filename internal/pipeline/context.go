package pipeline

import (
	"math"
	"time"

	"github.com/citylens/citylens/internal/evaluator"
	"github.com/citylens/citylens/internal/models"
	"github.com/citylens/citylens/internal/neighborhoods"
	"github.com/citylens/citylens/internal/templates"
)

// agentContext is the request-scoped state the orchestrator owns. It
// never outlives the request and is never shared between requests. The
// trace and warning lists are append-only.
type agentContext struct {
	requestID      string
	query          string
	snapshot       *neighborhoods.Snapshot
	classification models.QueryClassification
	template       templates.Template
	variants       []models.ScenarioVariant
	evaluation     *evaluator.Evaluation

	confidence map[string]float64
	traceLog   []models.TraceEntry
	warnings   []string
	degraded   bool
	penalties  float64
}

func (c *agentContext) trace(stage, message string) {
	c.traceLog = append(c.traceLog, models.TraceEntry{
		Stage:     stage,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// degrade records a fallback: trace entry, user-visible warning, and
// the stage's confidence penalty.
func (c *agentContext) degrade(stage, message string) {
	c.degraded = true
	c.trace(stage, "fallback: "+message)
	c.warn(message)
	if penalty, ok := degradePenalty[stage]; ok {
		if c.penalties == 0 {
			c.penalties = 1
		}
		c.penalties *= penalty
	}
}

func (c *agentContext) warn(message string) {
	c.warnings = append(c.warnings, message)
}

// finalConfidence is the weighted geometric mean of the completed stage
// confidences, times any accumulated degradation penalties.
func (c *agentContext) finalConfidence() float64 {
	if len(c.confidence) == 0 {
		return 0
	}

	product := 1.0
	weightSum := 0.0
	for stage, conf := range c.confidence {
		w := stageWeights[stage]
		if conf < 0.01 {
			conf = 0.01
		}
		product *= math.Pow(conf, w)
		weightSum += w
	}
	if weightSum > 0 {
		// Renormalize when the run stopped before all stages reported.
		product = math.Pow(product, 1/weightSum)
	}

	if c.penalties > 0 {
		product *= c.penalties
	}
	if product > 1 {
		product = 1
	}
	if product < 0 {
		product = 0
	}
	return product
}

// result assembles the response from whatever stages completed.
func (c *agentContext) result() *models.AnalysisResult {
	res := &models.AnalysisResult{
		RequestID:      c.requestID,
		Query:          c.query,
		Status:         models.StatusOK,
		Classification: c.classification,
		Template:       c.template.Name,
		Alternatives:   c.variants,
		Confidence:     round3(c.finalConfidence()),
		Warnings:       c.warnings,
		Trace:          c.traceLog,
	}
	if c.degraded {
		res.Status = models.StatusDegraded
	}
	if c.evaluation != nil {
		res.Impact = c.evaluation.Impact
		res.Comparative = c.evaluation.Comparative
		res.Branches = c.evaluation.Branches
		res.Suggestions = c.evaluation.Suggestions
		res.Recommended = c.evaluation.Recommended
		res.Rationale = c.evaluation.Rationale
	}
	return res
}
