package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"agentforge/internal/api"
	"agentforge/internal/region"

	"github.com/google/uuid"
)

// AgentType identifies a specialized in-process agent.
type AgentType string

const (
	AgentScrollDiscovery     AgentType = "scroll_discovery"
	AgentLinkValidation      AgentType = "link_validation"
	AgentTextExtraction      AgentType = "text_extraction"
	AgentDataValidation      AgentType = "data_validation"
	AgentRoutingOptimization AgentType = "routing_optimization"
)

// requiredEventFields is the 4-point completeness rubric applied to every
// extracted event.
var requiredEventFields = []string{"name", "start_date", "location", "description"}

// AgentTask is one unit of work handed to an agent.
type AgentTask struct {
	ID        string                 `json:"id"`
	Type      AgentType              `json:"type"`
	URLs      []string               `json:"urls,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	DependsOn []string               `json:"dependsOn,omitempty"`
	Priority  string                 `json:"priority,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

// NewAgentTask creates a task with a fresh ID.
func NewAgentTask(agentType AgentType, urls []string, metadata map[string]interface{}) AgentTask {
	return AgentTask{
		ID:        uuid.NewString(),
		Type:      agentType,
		URLs:      urls,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
}

// AgentResult is the uniform result envelope every agent produces.
type AgentResult struct {
	TaskID         string                 `json:"taskId"`
	Type           AgentType              `json:"type"`
	Success        bool                   `json:"success"`
	Data           map[string]interface{} `json:"data,omitempty"`
	Errors         []string               `json:"errors,omitempty"`
	Warnings       []string               `json:"warnings,omitempty"`
	QualityMetrics map[string]float64     `json:"qualityMetrics,omitempty"`
}

// Agent is the capability every specialized agent implements. Agents are
// dispatched through the router's single Execute entry point; there is no
// deeper hierarchy.
type Agent interface {
	Type() AgentType
	Execute(ctx context.Context, task AgentTask) (AgentResult, error)
}

// scrollDiscoveryAgent expands a calendar URL into individual event URLs by
// asking a region service for calendar discovery.
type scrollDiscoveryAgent struct {
	orchestrator api.OrchestratorHandler
}

func (a *scrollDiscoveryAgent) Type() AgentType { return AgentScrollDiscovery }

func (a *scrollDiscoveryAgent) Execute(ctx context.Context, task AgentTask) (AgentResult, error) {
	if len(task.URLs) == 0 {
		return AgentResult{}, fmt.Errorf("scroll discovery requires a calendar URL")
	}

	results, stats := a.orchestrator.ExtractDistributed(ctx, task.URLs[:1], api.ExtractOptions{
		CalendarDiscovery: true,
	})
	if len(results) == 0 {
		return AgentResult{}, fmt.Errorf("calendar discovery failed for %s", task.URLs[0])
	}

	var eventURLs []string
	for _, r := range results {
		for _, ev := range r.Events {
			if link, ok := ev["url"].(string); ok && link != "" {
				eventURLs = append(eventURLs, link)
			}
		}
	}
	if len(eventURLs) == 0 {
		return AgentResult{}, fmt.Errorf("calendar %s yielded no event links", task.URLs[0])
	}

	return AgentResult{
		TaskID:  task.ID,
		Type:    a.Type(),
		Success: true,
		Data: map[string]interface{}{
			"event_urls": eventURLs,
			"cost":       stats.TotalCost,
			"region":     results[0].Region,
		},
		QualityMetrics: map[string]float64{
			"discovery_yield": float64(len(eventURLs)),
		},
	}, nil
}

// linkValidationAgent filters discovered links down to well-formed,
// deduplicated event URLs.
type linkValidationAgent struct{}

func (a *linkValidationAgent) Type() AgentType { return AgentLinkValidation }

func (a *linkValidationAgent) Execute(ctx context.Context, task AgentTask) (AgentResult, error) {
	seen := make(map[string]bool)
	var valid []string
	dropped := 0
	for _, raw := range task.URLs {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			dropped++
			continue
		}
		normalized := u.String()
		if seen[normalized] {
			dropped++
			continue
		}
		seen[normalized] = true
		valid = append(valid, normalized)
	}

	if len(valid) == 0 {
		return AgentResult{}, fmt.Errorf("no valid event links among %d candidates", len(task.URLs))
	}

	validRatio := float64(len(valid)) / float64(len(task.URLs))
	return AgentResult{
		TaskID:  task.ID,
		Type:    a.Type(),
		Success: true,
		Data: map[string]interface{}{
			"valid_urls": valid,
			"dropped":    dropped,
		},
		QualityMetrics: map[string]float64{
			"valid_ratio": validRatio,
		},
	}, nil
}

// textExtractionAgent extracts structured events from validated URLs via
// the distributed orchestrator.
type textExtractionAgent struct {
	orchestrator api.OrchestratorHandler
}

func (a *textExtractionAgent) Type() AgentType { return AgentTextExtraction }

func (a *textExtractionAgent) Execute(ctx context.Context, task AgentTask) (AgentResult, error) {
	results, stats := a.orchestrator.ExtractDistributed(ctx, task.URLs, api.ExtractOptions{})
	if stats.Succeeded == 0 {
		return AgentResult{}, fmt.Errorf("extraction failed for all %d URLs", stats.TotalURLs)
	}

	var events []map[string]interface{}
	for _, r := range results {
		events = append(events, r.Events...)
	}

	extractionRate := float64(stats.Succeeded) / float64(maxInt(stats.TotalURLs, 1))
	return AgentResult{
		TaskID:  task.ID,
		Type:    a.Type(),
		Success: true,
		Data: map[string]interface{}{
			"events":          events,
			"urls_succeeded":  stats.Succeeded,
			"urls_failed":     stats.Failed,
			"cost":            stats.TotalCost,
			"urls_per_region": stats.URLsPerRegion,
		},
		QualityMetrics: map[string]float64{
			"extraction_rate": extractionRate,
		},
	}, nil
}

// dataValidationAgent scores extracted events against the completeness
// rubric.
type dataValidationAgent struct{}

func (a *dataValidationAgent) Type() AgentType { return AgentDataValidation }

func (a *dataValidationAgent) Execute(ctx context.Context, task AgentTask) (AgentResult, error) {
	events, _ := task.Metadata["events"].([]map[string]interface{})
	if len(events) == 0 {
		return AgentResult{}, fmt.Errorf("no events to validate")
	}

	fieldCompletion := fieldCompletionRate(events)
	completeness := completenessScore(events)
	// Quality blends field coverage with per-event completeness.
	quality := 0.5*fieldCompletion + 0.5*completeness

	return AgentResult{
		TaskID:  task.ID,
		Type:    a.Type(),
		Success: true,
		Data: map[string]interface{}{
			"events_validated": len(events),
		},
		QualityMetrics: map[string]float64{
			"field_completion_rate": fieldCompletion,
			"completeness_score":    completeness,
			"quality_score":         quality,
		},
	}, nil
}

// routingOptimizationAgent turns region statistics into routing advice for
// the next run.
type routingOptimizationAgent struct {
	registry *region.Registry
}

func (a *routingOptimizationAgent) Type() AgentType { return AgentRoutingOptimization }

func (a *routingOptimizationAgent) Execute(ctx context.Context, task AgentTask) (AgentResult, error) {
	regions := a.registry.All()
	if len(regions) == 0 {
		return AgentResult{}, fmt.Errorf("no regions registered")
	}

	best := regions[0]
	var rateSum float64
	for _, info := range regions {
		rateSum += info.SuccessRate()
		if info.SuccessRate() > best.SuccessRate() {
			best = info
		}
	}

	return AgentResult{
		TaskID:  task.ID,
		Type:    a.Type(),
		Success: true,
		Data: map[string]interface{}{
			"preferred_region": best.Name,
			"region_count":     len(regions),
		},
		QualityMetrics: map[string]float64{
			"routing_confidence": rateSum / float64(len(regions)),
		},
	}, nil
}

// fieldCompletionRate is the fraction of required fields populated across
// all events.
func fieldCompletionRate(events []map[string]interface{}) float64 {
	if len(events) == 0 {
		return 0
	}
	populated := 0
	for _, ev := range events {
		for _, field := range requiredEventFields {
			if v, ok := ev[field].(string); ok && strings.TrimSpace(v) != "" {
				populated++
			}
		}
	}
	return float64(populated) / float64(len(events)*len(requiredEventFields))
}

// completenessScore averages the 4-point per-event rubric: each event earns
// one point per populated required field, normalized to [0,1].
func completenessScore(events []map[string]interface{}) float64 {
	if len(events) == 0 {
		return 0
	}
	var total float64
	for _, ev := range events {
		points := 0
		for _, field := range requiredEventFields {
			if v, ok := ev[field].(string); ok && strings.TrimSpace(v) != "" {
				points++
			}
		}
		total += float64(points) / float64(len(requiredEventFields))
	}
	return total / float64(len(events))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
