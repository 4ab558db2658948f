package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentforge/internal/api"
)

// stubOrchestrator records the arguments the tool layer passes through.
type stubOrchestrator struct {
	gotURLs []string
	gotOpts api.ExtractOptions
}

func (s *stubOrchestrator) ExtractDistributed(ctx context.Context, urls []string, opts api.ExtractOptions) ([]api.ExtractionResult, api.BatchStats) {
	s.gotURLs = urls
	s.gotOpts = opts
	return []api.ExtractionResult{{URL: urls[0], Region: "us-central", Success: true}},
		api.BatchStats{TotalURLs: len(urls), Succeeded: len(urls)}
}

func (s *stubOrchestrator) ListRegions() []api.RegionInfo {
	return []api.RegionInfo{{Name: "us-central", Status: api.RegionAvailable}}
}

func (s *stubOrchestrator) HealthCheckAll(ctx context.Context) map[string]bool {
	return map[string]bool{"us-central": true}
}

func (s *stubOrchestrator) CostStrategy(totalBudget float64, estimatedURLs int) api.CostRecommendation {
	return api.CostRecommendation{
		Success:  true,
		Strategy: api.StrategyCostEfficient,
		Region:   "us-central",
	}
}

func toolRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return text.Text
}

func TestHandleExtractEvents(t *testing.T) {
	stub := &stubOrchestrator{}
	api.RegisterOrchestrator(stub)
	defer api.RegisterOrchestrator(nil)

	result, err := handleExtractEvents(context.Background(), toolRequest(map[string]interface{}{
		"urls":        []interface{}{"https://lu.ma/ethdenver"},
		"max_retries": 2.0,
		"premium":     true,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	assert.Equal(t, []string{"https://lu.ma/ethdenver"}, stub.gotURLs)
	assert.Equal(t, 2, stub.gotOpts.MaxRetries)
	assert.True(t, stub.gotOpts.UsePremiumAutomation)

	var payload struct {
		Results []api.ExtractionResult `json:"results"`
		Stats   api.BatchStats         `json:"stats"`
	}
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &payload))
	require.Len(t, payload.Results, 1)
	assert.Equal(t, "us-central", payload.Results[0].Region)
}

func TestHandleExtractEventsRequiresURLs(t *testing.T) {
	api.RegisterOrchestrator(&stubOrchestrator{})
	defer api.RegisterOrchestrator(nil)

	result, err := handleExtractEvents(context.Background(), toolRequest(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleExtractEventsBudgetEnablesCostOptimization(t *testing.T) {
	stub := &stubOrchestrator{}
	api.RegisterOrchestrator(stub)
	defer api.RegisterOrchestrator(nil)

	_, err := handleExtractEvents(context.Background(), toolRequest(map[string]interface{}{
		"urls":         []interface{}{"https://example.com"},
		"budget_limit": 0.002,
	}))
	require.NoError(t, err)

	require.NotNil(t, stub.gotOpts.BudgetLimit)
	assert.InDelta(t, 0.002, *stub.gotOpts.BudgetLimit, 1e-9)
	assert.True(t, stub.gotOpts.PreferCostOptimization)
}

func TestHandlersWithoutOrchestrator(t *testing.T) {
	api.RegisterOrchestrator(nil)

	for _, handler := range []func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		handleExtractEvents, handleListRegions, handleCheckRegionHealth, handleCostStrategy,
	} {
		result, err := handler(context.Background(), toolRequest(map[string]interface{}{}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	}
}

func TestHandleCostStrategy(t *testing.T) {
	api.RegisterOrchestrator(&stubOrchestrator{})
	defer api.RegisterOrchestrator(nil)

	result, err := handleCostStrategy(context.Background(), toolRequest(map[string]interface{}{
		"total_budget":   10.0,
		"estimated_urls": 500.0,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var rec api.CostRecommendation
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &rec))
	assert.Equal(t, api.StrategyCostEfficient, rec.Strategy)
}
