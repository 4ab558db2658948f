package pipeline

import (
	"context"
	"fmt"
	"time"

	"agentforge/internal/api"
	"agentforge/internal/region"
	"agentforge/pkg/logging"

	"github.com/google/uuid"
)

// Per-stage admission caps for the specialized agents. Discovery and
// extraction hold network resources so they admit less concurrent work.
const (
	scrollAgentMaxLoad     = 2
	linkAgentMaxLoad       = 5
	extractionAgentMaxLoad = 3
	validationAgentMaxLoad = 5
	routingAgentMaxLoad    = 5
)

// defaultTargetProcessing is the processing-time target against which
// pipeline efficiency is measured.
const defaultTargetProcessing = 90 * time.Second

// fallbackDiscount conservatively discounts quality scores computed by the
// coordinator itself when the data validation stage failed and its score
// had to be reconstructed from partial data.
const fallbackDiscount = 0.75

// Coordinator sequences the multi-agent extraction pipeline:
// scroll discovery -> link validation -> text extraction -> data
// validation -> routing optimization. Stages are strictly ordered; each
// stage's output feeds the next. Early-stage failures are terminal for the
// run, late-stage (validation, routing) failures degrade to computed
// fallback scores.
type Coordinator struct {
	router           *Router
	targetProcessing time.Duration
}

// NewCoordinator wires the specialized agents over the given orchestrator
// and region registry and returns a ready pipeline.
func NewCoordinator(orchestrator api.OrchestratorHandler, registry *region.Registry) *Coordinator {
	router := NewRouter()
	router.RegisterAgent(&scrollDiscoveryAgent{orchestrator: orchestrator}, scrollAgentMaxLoad)
	router.RegisterAgent(&linkValidationAgent{}, linkAgentMaxLoad)
	router.RegisterAgent(&textExtractionAgent{orchestrator: orchestrator}, extractionAgentMaxLoad)
	router.RegisterAgent(&dataValidationAgent{}, validationAgentMaxLoad)
	router.RegisterAgent(&routingOptimizationAgent{registry: registry}, routingAgentMaxLoad)

	return &Coordinator{
		router:           router,
		targetProcessing: defaultTargetProcessing,
	}
}

// Router exposes the routing agent for reporting surfaces.
func (c *Coordinator) Router() *Router {
	return c.router
}

// ExecuteFullPipeline runs the whole pipeline for one calendar URL. Errors
// are reported inside the returned result, never raised past this boundary.
func (c *Coordinator) ExecuteFullPipeline(ctx context.Context, calendarURL string, debugMode bool) *api.PipelineResult {
	result := &api.PipelineResult{
		RunID:        uuid.NewString(),
		CalendarURL:  calendarURL,
		Stage:        api.StageInitialized,
		StartedAt:    time.Now(),
		StageResults: make(map[api.PipelineStage]*api.AgentExecutionResult),
	}
	logging.Info("Pipeline", "Run %s starting for %s", result.RunID, calendarURL)

	// Stage 1: scroll discovery. Fatal on failure, including a calendar
	// that yields zero event links.
	result.Stage = api.StageScrollDiscovery
	discovery, ok := c.runStage(ctx, result, AgentScrollDiscovery, NewAgentTask(AgentScrollDiscovery, []string{calendarURL}, nil))
	if !ok {
		return c.fail(result, "scroll discovery failed")
	}
	eventURLs := stringSlice(discovery.Data["event_urls"])
	if debugMode {
		logging.Debug("Pipeline", "Run %s discovered %d event links", result.RunID, len(eventURLs))
	}

	// Stage 2: link validation. Fatal on failure.
	result.Stage = api.StageLinkValidation
	validation, ok := c.runStage(ctx, result, AgentLinkValidation, NewAgentTask(AgentLinkValidation, eventURLs, nil))
	if !ok {
		return c.fail(result, "link validation failed")
	}
	validURLs := stringSlice(validation.Data["valid_urls"])

	// Stage 3: text extraction. Fatal on failure.
	result.Stage = api.StageTextExtraction
	extraction, ok := c.runStage(ctx, result, AgentTextExtraction, NewAgentTask(AgentTextExtraction, validURLs, nil))
	if !ok {
		return c.fail(result, "text extraction failed")
	}
	events, _ := extraction.Data["events"].([]map[string]interface{})
	result.Events = events

	// Stage 4: data validation. Degraded on failure: the run continues
	// with scores reconstructed from the extracted events.
	result.Stage = api.StageDataValidation
	task := NewAgentTask(AgentDataValidation, nil, map[string]interface{}{"events": events})
	quality, ok := c.runStage(ctx, result, AgentDataValidation, task)
	if ok {
		result.FieldCompletionRate = quality.QualityMetrics["field_completion_rate"]
		result.CompletenessScore = quality.QualityMetrics["completeness_score"]
		result.QualityScore = quality.QualityMetrics["quality_score"]
	} else {
		logging.Warn("Pipeline", "Run %s: data validation degraded, computing fallback scores", result.RunID)
		result.FieldCompletionRate = fieldCompletionRate(events)
		result.CompletenessScore = completenessScore(events)
		result.QualityScore = fallbackDiscount * result.FieldCompletionRate
		c.recordWarning(result, api.StageDataValidation, "data validation failed; scores computed from partial data")
	}

	// Stage 5: routing optimization. Degraded on failure.
	result.Stage = api.StageRoutingOptimization
	routing, ok := c.runStage(ctx, result, AgentRoutingOptimization, NewAgentTask(AgentRoutingOptimization, nil, nil))
	if !ok {
		logging.Warn("Pipeline", "Run %s: routing optimization degraded", result.RunID)
		c.recordWarning(result, api.StageRoutingOptimization, "routing optimization failed; keeping current region preferences")
	} else if debugMode {
		logging.Debug("Pipeline", "Run %s routing advice: %v", result.RunID, routing.Data)
	}

	result.Stage = api.StageCompleted
	result.CompletedAt = time.Now()
	c.finalize(result, len(eventURLs))
	logging.Info("Pipeline", "Run %s completed: %d events, quality %.2f", result.RunID, len(result.Events), result.QualityScore)
	return result
}

// runStage dispatches one stage's task and records its execution result
// regardless of outcome.
func (c *Coordinator) runStage(ctx context.Context, result *api.PipelineResult, stage AgentType, task AgentTask) (AgentResult, bool) {
	started := time.Now()
	agentResult, err := c.router.Dispatch(ctx, task)
	elapsed := time.Since(started).Seconds()

	record := &api.AgentExecutionResult{
		AgentType:      string(stage),
		Success:        err == nil,
		ExecutionTime:  elapsed,
		Data:           agentResult.Data,
		Warnings:       agentResult.Warnings,
		QualityMetrics: agentResult.QualityMetrics,
	}
	if err != nil {
		record.Errors = append(record.Errors, err.Error())
	}
	result.StageResults[result.Stage] = record

	return agentResult, err == nil
}

// fail transitions the run into the absorbing failed state.
func (c *Coordinator) fail(result *api.PipelineResult, message string) *api.PipelineResult {
	if record := result.StageResults[result.Stage]; record != nil && len(record.Errors) > 0 {
		message = fmt.Sprintf("%s: %s", message, record.Errors[0])
	}
	result.Error = message
	result.Stage = api.StageFailed
	result.CompletedAt = time.Now()
	logging.Error("Pipeline", fmt.Errorf("%s", message), "Run %s failed", result.RunID)
	return result
}

// recordWarning appends a warning onto the stage's execution record.
func (c *Coordinator) recordWarning(result *api.PipelineResult, stage api.PipelineStage, warning string) {
	if record := result.StageResults[stage]; record != nil {
		record.Warnings = append(record.Warnings, warning)
	}
}

// finalize computes the aggregate metrics once all available stages ran.
func (c *Coordinator) finalize(result *api.PipelineResult, discoveredLinks int) {
	if discoveredLinks > 0 {
		rate := float64(len(result.Events)) / float64(discoveredLinks)
		if rate > 1 {
			rate = 1
		}
		result.EventDiscoveryRate = rate
	}

	actual := result.CompletedAt.Sub(result.StartedAt)
	if actual > 0 {
		efficiency := float64(c.targetProcessing) / float64(actual)
		if efficiency > 1 {
			efficiency = 1
		}
		result.ProcessingEfficiency = efficiency
	} else {
		result.ProcessingEfficiency = 1
	}
}

// stringSlice coerces an agent data payload entry into []string.
func stringSlice(v interface{}) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
