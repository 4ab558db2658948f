package api

import (
	"context"
	"time"
)

// RegionStatus represents the availability state of an extraction region.
type RegionStatus string

const (
	RegionAvailable   RegionStatus = "available"
	RegionRateLimited RegionStatus = "rate_limited"
	RegionError       RegionStatus = "error"
	RegionMaintenance RegionStatus = "maintenance"
)

// RegionInfo is a read-only snapshot of a region's identity, economics and
// health statistics, suitable for reporting surfaces (CLI tables, MCP tools).
type RegionInfo struct {
	Name              string       `json:"name"`
	RegionCode        string       `json:"regionCode"`
	BaseURL           string       `json:"baseUrl"`
	IPRanges          []string     `json:"ipRanges,omitempty"`
	CostTier          int          `json:"costTier"`
	CostPerExtraction float64      `json:"costPerExtraction"`
	TotalCost         float64      `json:"totalCost"`
	MaxConcurrent     int          `json:"maxConcurrent"`
	CurrentLoad       int          `json:"currentLoad"`
	Status            RegionStatus `json:"status"`
	SuccessCount      int          `json:"successCount"`
	ErrorCount        int          `json:"errorCount"`
	RateLimitCount    int          `json:"rateLimitCount"`
	LastSuccess       *time.Time   `json:"lastSuccess,omitempty"`
	LastRateLimit     *time.Time   `json:"lastRateLimit,omitempty"`
	CooldownMinutes   int          `json:"cooldownMinutes"`
	EnhancedService   bool         `json:"enhancedService"`
}

// SuccessRate returns the fraction of attempts against this region that
// succeeded. The denominator is floored at 1 so a fresh region scores 0
// rather than dividing by zero.
func (r RegionInfo) SuccessRate() float64 {
	total := r.SuccessCount + r.ErrorCount + r.RateLimitCount
	if total < 1 {
		total = 1
	}
	return float64(r.SuccessCount) / float64(total)
}

// LoadFactor returns current load as a fraction of capacity (0.0 idle,
// 1.0 saturated).
func (r RegionInfo) LoadFactor() float64 {
	if r.MaxConcurrent <= 0 {
		return 1.0
	}
	return float64(r.CurrentLoad) / float64(r.MaxConcurrent)
}

// ExtractionResult is the outcome of one extraction attempt for one URL.
// The event payload is opaque to the orchestrator; it is produced by the
// region service and passed through untouched.
type ExtractionResult struct {
	URL            string                   `json:"url"`
	Region         string                   `json:"region"`
	Success        bool                     `json:"success"`
	EventsFound    int                      `json:"eventsFound"`
	Cost           float64                  `json:"cost"`
	ProcessingTime float64                  `json:"processingTime"`
	SourceIPs      []string                 `json:"sourceIps,omitempty"`
	Events         []map[string]interface{} `json:"events,omitempty"`
	Error          string                   `json:"error,omitempty"`
	CompletedAt    time.Time                `json:"completedAt"`
}

// ExtractOptions control a distributed extraction batch.
type ExtractOptions struct {
	// MaxRetries is the number of additional attempts after the first;
	// each attempt re-runs region selection.
	MaxRetries int `json:"maxRetries"`

	// UsePremiumAutomation routes attempts through the steel-browser
	// backend instead of the standard extraction endpoint.
	UsePremiumAutomation bool `json:"usePremiumAutomation"`

	// BudgetLimit, when non-nil, excludes regions whose per-extraction
	// cost exceeds it during selection.
	BudgetLimit *float64 `json:"budgetLimit,omitempty"`

	// PreferCostOptimization enables the cost-tier factor in region scoring.
	PreferCostOptimization bool `json:"preferCostOptimization"`

	// CalendarDiscovery asks the region service to expand calendar pages
	// into individual event URLs before extracting.
	CalendarDiscovery bool `json:"calendarDiscovery"`
}

// BatchStats aggregates the outcome of one distributed extraction batch.
type BatchStats struct {
	TotalURLs     int            `json:"totalUrls"`
	Succeeded     int            `json:"succeeded"`
	Failed        int            `json:"failed"`
	TotalCost     float64        `json:"totalCost"`
	TotalEvents   int            `json:"totalEvents"`
	Elapsed       time.Duration  `json:"elapsed"`
	URLsPerRegion map[string]int `json:"urlsPerRegion"`
}

// CostStrategyName identifies which budget strategy a recommendation follows.
type CostStrategyName string

const (
	StrategyCostEfficient     CostStrategyName = "cost_efficient"
	StrategyBudgetConstrained CostStrategyName = "budget_constrained"
	StrategyPartialExtraction CostStrategyName = "partial_extraction"
	StrategyNoRegions         CostStrategyName = "no_regions_available"
)

// RegionCostComparison is one row of the per-region comparison table in a
// cost recommendation.
type RegionCostComparison struct {
	Region                  string  `json:"region"`
	CostTier                int     `json:"costTier"`
	CostPerExtraction       float64 `json:"costPerExtraction"`
	SuccessRate             float64 `json:"successRate"`
	EstimatedCost           float64 `json:"estimatedCost"`
	ExpectedCostWithRetries float64 `json:"expectedCostWithRetries"`
	CostEfficiencyScore     float64 `json:"costEfficiencyScore"`
	FitsBudget              bool    `json:"fitsBudget"`
}

// CostRecommendation is the structured output of the cost optimizer. It is
// deterministic given identical region statistics and inputs.
type CostRecommendation struct {
	Success           bool                   `json:"success"`
	Strategy          CostStrategyName       `json:"strategy"`
	Message           string                 `json:"message"`
	Region            string                 `json:"region,omitempty"`
	RegionCostTier    int                    `json:"regionCostTier,omitempty"`
	CostPerExtraction float64                `json:"costPerExtraction,omitempty"`
	EstimatedCost     float64                `json:"estimatedCost"`
	ExpectedCost      float64                `json:"expectedCostWithRetries"`
	TotalBudget       float64                `json:"totalBudget"`
	BudgetUtilization float64                `json:"budgetUtilization"`
	EstimatedURLs     int                    `json:"estimatedUrls"`
	MaxURLs           int                    `json:"maxUrls"`
	Comparison        []RegionCostComparison `json:"comparison"`
}

// PipelineStage is a finite-state tag for the multi-agent pipeline.
type PipelineStage string

const (
	StageInitialized         PipelineStage = "initialized"
	StageScrollDiscovery     PipelineStage = "scroll_discovery"
	StageLinkValidation      PipelineStage = "link_validation"
	StageTextExtraction      PipelineStage = "text_extraction"
	StageDataValidation      PipelineStage = "data_validation"
	StageRoutingOptimization PipelineStage = "routing_optimization"
	StageCompleted           PipelineStage = "completed"
	StageFailed              PipelineStage = "failed"
)

// AgentExecutionResult records one pipeline stage's agent run, successful
// or not.
type AgentExecutionResult struct {
	AgentType      string                 `json:"agentType"`
	Success        bool                   `json:"success"`
	ExecutionTime  float64                `json:"executionTime"`
	Data           map[string]interface{} `json:"data,omitempty"`
	Errors         []string               `json:"errors,omitempty"`
	Warnings       []string               `json:"warnings,omitempty"`
	QualityMetrics map[string]float64     `json:"qualityMetrics,omitempty"`
}

// PipelineResult is the outcome of one full pipeline run over a calendar URL.
type PipelineResult struct {
	RunID       string        `json:"runId"`
	CalendarURL string        `json:"calendarUrl"`
	Stage       PipelineStage `json:"stage"`
	StartedAt   time.Time     `json:"startedAt"`
	CompletedAt time.Time     `json:"completedAt"`

	// One record per stage that ran; stages skipped due to an earlier
	// fatal failure are absent.
	StageResults map[PipelineStage]*AgentExecutionResult `json:"stageResults"`

	Events []map[string]interface{} `json:"events,omitempty"`

	// Aggregate metrics, computed once all available stages have run.
	EventDiscoveryRate   float64 `json:"eventDiscoveryRate"`
	FieldCompletionRate  float64 `json:"fieldCompletionRate"`
	QualityScore         float64 `json:"qualityScore"`
	CompletenessScore    float64 `json:"completenessScore"`
	ProcessingEfficiency float64 `json:"processingEfficiency"`

	Error string `json:"error,omitempty"`
}

// OrchestratorHandler is the API surface of the distributed extraction
// orchestrator, consumed by the CLI and the MCP tool layer.
type OrchestratorHandler interface {
	// ExtractDistributed extracts all URLs concurrently across the healthy
	// regions. It never fails the whole batch for a single URL; failed URLs
	// are reflected in the stats only.
	ExtractDistributed(ctx context.Context, urls []string, opts ExtractOptions) ([]ExtractionResult, BatchStats)

	// ListRegions returns a snapshot of every registered region.
	ListRegions() []RegionInfo

	// HealthCheckAll probes every region's /health endpoint and returns
	// per-region liveness.
	HealthCheckAll(ctx context.Context) map[string]bool

	// CostStrategy recommends a region or partial plan for the budget.
	CostStrategy(totalBudget float64, estimatedURLs int) CostRecommendation
}

// PipelineHandler is the API surface of the multi-agent pipeline coordinator.
type PipelineHandler interface {
	// ExecuteFullPipeline runs discovery through routing optimization for
	// one calendar URL. Top-level errors are reported inside the result,
	// not raised past this boundary.
	ExecuteFullPipeline(ctx context.Context, calendarURL string, debugMode bool) *PipelineResult
}
