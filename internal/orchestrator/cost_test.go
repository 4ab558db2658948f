package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentforge/internal/api"
	"agentforge/internal/region"
)

// recordSuccesses shapes a region's success rate through the public
// recording path.
func recordSuccesses(o *Orchestrator, name string, n int) {
	for i := 0; i < n; i++ {
		o.Registry().RecordSuccess(name, 0)
	}
}

func TestCostStrategyCostEfficient(t *testing.T) {
	cheap := testDef("cheap", "http://unused.test")
	cheap.CostPerExtraction = 0.001
	pricier := testDef("pricier", "http://unused.test")
	pricier.CostPerExtraction = 0.002
	pricier.CostTier = 2

	o := newTestOrchestrator(t, Config{}, cheap, pricier)
	recordSuccesses(o, "cheap", 10)
	recordSuccesses(o, "pricier", 10)

	rec := o.CostStrategy(1.0, 10)
	require.True(t, rec.Success)
	assert.Equal(t, api.StrategyCostEfficient, rec.Strategy)
	// Both fit; cheap has the better success-rate-per-dollar ratio.
	assert.Equal(t, "cheap", rec.Region)
	assert.Equal(t, 10, rec.MaxURLs)
	assert.Len(t, rec.Comparison, 2)
	assert.InDelta(t, 0.01, rec.ExpectedCost, 1e-9)
	assert.InDelta(t, 0.01, rec.BudgetUtilization, 1e-9)
}

func TestCostStrategyBudgetConstrained(t *testing.T) {
	affordable := testDef("affordable", "http://unused.test")
	affordable.CostPerExtraction = 0.001
	expensive := testDef("expensive", "http://unused.test")
	expensive.CostPerExtraction = 0.01

	o := newTestOrchestrator(t, Config{}, affordable, expensive)
	recordSuccesses(o, "affordable", 10) // success rate 1.0

	// affordable: 0.001*1000/1.0 = 1.00 fits a 1.50 budget.
	// expensive: 0.01*1000/0.3 = 33.33 does not.
	rec := o.CostStrategy(1.5, 1000)
	require.True(t, rec.Success)
	assert.Equal(t, api.StrategyBudgetConstrained, rec.Strategy)
	assert.Equal(t, "affordable", rec.Region)
	assert.InDelta(t, 1.0, rec.ExpectedCost, 1e-9)
}

// TestCostStrategyPartialPlan checks the exact partial-extraction
// arithmetic: $1 budget over 1000 URLs at $0.01 per extraction covers
// exactly 100 URLs.
func TestCostStrategyPartialPlan(t *testing.T) {
	def := testDef("only", "http://unused.test")
	def.CostPerExtraction = 0.01

	o := newTestOrchestrator(t, Config{}, def)

	rec := o.CostStrategy(1.0, 1000)
	require.True(t, rec.Success)
	assert.Equal(t, api.StrategyPartialExtraction, rec.Strategy)
	assert.Equal(t, "only", rec.Region)
	assert.Equal(t, 100, rec.MaxURLs)
	assert.InDelta(t, 1.0, rec.EstimatedCost, 1e-9)
	assert.Contains(t, rec.Message, "100")
}

func TestCostStrategyIdempotent(t *testing.T) {
	o := newTestOrchestrator(t, Config{},
		testDef("r1", "http://unused.test"),
		testDef("r2", "http://unused.test"))
	recordSuccesses(o, "r1", 7)
	recordSuccesses(o, "r2", 3)

	first := o.CostStrategy(5.0, 200)
	second := o.CostStrategy(5.0, 200)
	assert.Equal(t, first, second, "identical statistics must yield identical recommendations")
}

func TestCostStrategyNoRegions(t *testing.T) {
	o := newTestOrchestrator(t, Config{}, testDef("r1", "http://unused.test"))
	o.Registry().SetStatus("r1", api.RegionMaintenance)

	rec := o.CostStrategy(10.0, 100)
	assert.False(t, rec.Success)
	assert.Equal(t, api.StrategyNoRegions, rec.Strategy)
	assert.Empty(t, rec.Region)
}

func TestCostStrategyRejectsNonPositiveInputs(t *testing.T) {
	o := newTestOrchestrator(t, Config{}, testDef("r1", "http://unused.test"))

	for _, tc := range []struct {
		budget float64
		urls   int
	}{{0, 100}, {-1, 100}, {10, 0}, {10, -5}} {
		rec := o.CostStrategy(tc.budget, tc.urls)
		assert.False(t, rec.Success)
	}
}

func TestCostStrategyComparisonOrderIsRegistrationOrder(t *testing.T) {
	var defs []region.Definition
	for _, name := range []string{"zeta", "alpha", "mid"} {
		defs = append(defs, testDef(name, "http://unused.test"))
	}
	o := newTestOrchestrator(t, Config{}, defs...)

	rec := o.CostStrategy(100.0, 10)
	require.Len(t, rec.Comparison, 3)
	assert.Equal(t, "zeta", rec.Comparison[0].Region)
	assert.Equal(t, "alpha", rec.Comparison[1].Region)
	assert.Equal(t, "mid", rec.Comparison[2].Region)
}
