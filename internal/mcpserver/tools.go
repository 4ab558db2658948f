package mcpserver

import (
	"context"
	"encoding/json"

	"agentforge/internal/api"
	"agentforge/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registerTools installs the agentforge tool set on the MCP server. The
// tools are thin adapters over the registered api handlers; all real logic
// stays in the orchestrator and pipeline packages.
func registerTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("extract_events",
		mcp.WithDescription("Extract structured events from URLs via the distributed region fleet"),
		mcp.WithArray("urls", mcp.Required(), mcp.Description("Event or calendar URLs to extract")),
		mcp.WithNumber("max_retries", mcp.Description("Additional attempts per URL after the first")),
		mcp.WithBoolean("premium", mcp.Description("Use the steel-browser automation backend")),
		mcp.WithNumber("budget_limit", mcp.Description("Exclude regions costing more than this per extraction")),
	), handleExtractEvents)

	s.AddTool(mcp.NewTool("list_regions",
		mcp.WithDescription("List every extraction region with its health state and statistics"),
	), handleListRegions)

	s.AddTool(mcp.NewTool("check_region_health",
		mcp.WithDescription("Probe every region's health endpoint and report liveness"),
	), handleCheckRegionHealth)

	s.AddTool(mcp.NewTool("cost_strategy",
		mcp.WithDescription("Recommend a region or partial plan for a budget and URL count"),
		mcp.WithNumber("total_budget", mcp.Required(), mcp.Description("Total budget in USD")),
		mcp.WithNumber("estimated_urls", mcp.Required(), mcp.Description("Number of URLs to extract")),
	), handleCostStrategy)

	s.AddTool(mcp.NewTool("run_pipeline",
		mcp.WithDescription("Run the full multi-agent pipeline for one calendar URL"),
		mcp.WithString("calendar_url", mcp.Required(), mcp.Description("Calendar page to expand and extract")),
		mcp.WithBoolean("debug", mcp.Description("Enable per-stage debug logging")),
	), handleRunPipeline)

	logging.Info("MCPServer", "Registered %d tools", 5)
}

func handleExtractEvents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orchestrator := api.GetOrchestrator()
	if orchestrator == nil {
		return mcp.NewToolResultError("orchestrator is not running"), nil
	}

	args := request.GetArguments()
	rawURLs, _ := args["urls"].([]interface{})
	var urls []string
	for _, raw := range rawURLs {
		if u, ok := raw.(string); ok && u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return mcp.NewToolResultError("urls must contain at least one URL"), nil
	}

	opts := api.ExtractOptions{}
	if v, ok := args["max_retries"].(float64); ok {
		opts.MaxRetries = int(v)
	}
	if v, ok := args["premium"].(bool); ok {
		opts.UsePremiumAutomation = v
	}
	if v, ok := args["budget_limit"].(float64); ok && v > 0 {
		opts.BudgetLimit = &v
		opts.PreferCostOptimization = true
	}

	results, stats := orchestrator.ExtractDistributed(ctx, urls, opts)
	return jsonResult(map[string]interface{}{
		"results": results,
		"stats":   stats,
	})
}

func handleListRegions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orchestrator := api.GetOrchestrator()
	if orchestrator == nil {
		return mcp.NewToolResultError("orchestrator is not running"), nil
	}
	return jsonResult(map[string]interface{}{"regions": orchestrator.ListRegions()})
}

func handleCheckRegionHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orchestrator := api.GetOrchestrator()
	if orchestrator == nil {
		return mcp.NewToolResultError("orchestrator is not running"), nil
	}
	return jsonResult(map[string]interface{}{"health": orchestrator.HealthCheckAll(ctx)})
}

func handleCostStrategy(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orchestrator := api.GetOrchestrator()
	if orchestrator == nil {
		return mcp.NewToolResultError("orchestrator is not running"), nil
	}

	args := request.GetArguments()
	budget, _ := args["total_budget"].(float64)
	estimatedURLs, _ := args["estimated_urls"].(float64)

	rec := orchestrator.CostStrategy(budget, int(estimatedURLs))
	return jsonResult(rec)
}

func handleRunPipeline(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pipeline := api.GetPipeline()
	if pipeline == nil {
		return mcp.NewToolResultError("pipeline coordinator is not running"), nil
	}

	args := request.GetArguments()
	calendarURL, _ := args["calendar_url"].(string)
	if calendarURL == "" {
		return mcp.NewToolResultError("calendar_url is required"), nil
	}
	debug, _ := args["debug"].(bool)

	result := pipeline.ExecuteFullPipeline(ctx, calendarURL, debug)
	return jsonResult(result)
}

// jsonResult marshals a payload into a text tool result.
func jsonResult(payload interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
