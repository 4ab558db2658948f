package orchestrator

import (
	"fmt"
	"math"

	"agentforge/internal/api"
)

// successRateFloor is the assumed minimum success rate when projecting
// retry-adjusted cost, so regions with little history do not blow the
// estimate up toward infinity.
const successRateFloor = 0.3

// CostStrategy recommends a region (or a partial-extraction plan) for
// extracting estimatedURLs within totalBudget. The recommendation is
// deterministic for identical region statistics: candidates are evaluated
// in registration order and ties keep the first-seen candidate.
//
// Strategy selection:
//  1. cost_efficient: every region's retry-adjusted cost fits the budget;
//     pick the best success-rate-per-currency ratio.
//  2. budget_constrained: only some regions fit; pick the cheapest that does.
//  3. partial_extraction: nothing fits; pick the cheapest per URL and report
//     how many of the requested URLs the budget covers.
func (o *Orchestrator) CostStrategy(totalBudget float64, estimatedURLs int) api.CostRecommendation {
	rec := api.CostRecommendation{
		TotalBudget:   totalBudget,
		EstimatedURLs: estimatedURLs,
	}
	if totalBudget <= 0 || estimatedURLs <= 0 {
		rec.Strategy = api.StrategyNoRegions
		rec.Message = "budget and estimated URL count must both be positive"
		return rec
	}

	candidates := o.registry.Available()
	if len(candidates) == 0 {
		rec.Strategy = api.StrategyNoRegions
		rec.Message = "no extraction regions are currently available"
		return rec
	}

	comparison := make([]api.RegionCostComparison, 0, len(candidates))
	allFit := true
	anyFit := false
	for _, info := range candidates {
		successRate := info.SuccessRate()
		estimated := info.CostPerExtraction * float64(estimatedURLs)
		expected := estimated / math.Max(successRate, successRateFloor)
		fits := expected <= totalBudget
		if fits {
			anyFit = true
		} else {
			allFit = false
		}

		efficiency := 0.0
		if info.CostPerExtraction > 0 {
			efficiency = successRate / info.CostPerExtraction
		}

		comparison = append(comparison, api.RegionCostComparison{
			Region:                  info.Name,
			CostTier:                info.CostTier,
			CostPerExtraction:       info.CostPerExtraction,
			SuccessRate:             successRate,
			EstimatedCost:           estimated,
			ExpectedCostWithRetries: expected,
			CostEfficiencyScore:     efficiency,
			FitsBudget:              fits,
		})
	}
	rec.Comparison = comparison
	rec.Success = true

	switch {
	case allFit:
		best := comparison[0]
		for _, row := range comparison[1:] {
			if row.CostEfficiencyScore > best.CostEfficiencyScore {
				best = row
			}
		}
		rec.Strategy = api.StrategyCostEfficient
		rec.Region = best.Region
		rec.RegionCostTier = best.CostTier
		rec.CostPerExtraction = best.CostPerExtraction
		rec.EstimatedCost = best.EstimatedCost
		rec.ExpectedCost = best.ExpectedCostWithRetries
		rec.MaxURLs = estimatedURLs
		rec.BudgetUtilization = best.ExpectedCostWithRetries / totalBudget
		rec.Message = fmt.Sprintf(
			"Budget covers all regions; %s offers the best success rate per dollar (%.0f extractions for an expected $%.2f of $%.2f)",
			best.Region, float64(estimatedURLs), best.ExpectedCostWithRetries, totalBudget)

	case anyFit:
		var best *api.RegionCostComparison
		for i := range comparison {
			row := &comparison[i]
			if !row.FitsBudget {
				continue
			}
			if best == nil || row.CostPerExtraction < best.CostPerExtraction {
				best = row
			}
		}
		rec.Strategy = api.StrategyBudgetConstrained
		rec.Region = best.Region
		rec.RegionCostTier = best.CostTier
		rec.CostPerExtraction = best.CostPerExtraction
		rec.EstimatedCost = best.EstimatedCost
		rec.ExpectedCost = best.ExpectedCostWithRetries
		rec.MaxURLs = estimatedURLs
		rec.BudgetUtilization = best.ExpectedCostWithRetries / totalBudget
		rec.Message = fmt.Sprintf(
			"Budget is tight; %s is the cheapest region whose expected cost ($%.2f) fits the $%.2f budget",
			best.Region, best.ExpectedCostWithRetries, totalBudget)

	default:
		best := comparison[0]
		for _, row := range comparison[1:] {
			if row.CostPerExtraction < best.CostPerExtraction {
				best = row
			}
		}
		maxURLs := int(math.Floor(totalBudget / best.CostPerExtraction))
		planned := best.CostPerExtraction * float64(maxURLs)
		rec.Strategy = api.StrategyPartialExtraction
		rec.Region = best.Region
		rec.RegionCostTier = best.CostTier
		rec.CostPerExtraction = best.CostPerExtraction
		rec.EstimatedCost = planned
		rec.ExpectedCost = planned
		rec.MaxURLs = maxURLs
		rec.BudgetUtilization = planned / totalBudget
		rec.Message = fmt.Sprintf(
			"Budget of $%.2f covers only %d of the requested %d URLs on %s ($%.4f per extraction)",
			totalBudget, maxURLs, estimatedURLs, best.Region, best.CostPerExtraction)
	}

	return rec
}
