package cmd

import (
	"fmt"
	"os"

	"agentforge/internal/api"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var (
	costBudget float64
	costURLs   int
)

var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Recommend a cost strategy for a planned batch",
	Long: `Given a total budget and an estimated URL count, recommend which
region to use and under which strategy: cost-efficient when everything
fits, budget-constrained when only some regions do, or a partial plan
capping the URL count when none do.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCost()
	},
}

func init() {
	costCmd.Flags().Float64Var(&costBudget, "budget", 0, "Total budget in USD (required)")
	costCmd.Flags().IntVar(&costURLs, "urls", 0, "Estimated number of URLs (required)")
	_ = costCmd.MarkFlagRequired("budget")
	_ = costCmd.MarkFlagRequired("urls")
	rootCmd.AddCommand(costCmd)
}

func runCost() error {
	_, orch, err := bootstrap()
	if err != nil {
		return err
	}

	rec := orch.CostStrategy(costBudget, costURLs)
	if !rec.Success {
		return fmt.Errorf("%s", rec.Message)
	}

	fmt.Printf("Strategy: %s\n%s\n\n", rec.Strategy, rec.Message)
	if rec.Strategy == api.StrategyPartialExtraction {
		fmt.Printf("Budget covers %d of %d URLs on %s\n\n", rec.MaxURLs, rec.EstimatedURLs, rec.Region)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Region", "Tier", "Cost/URL", "Success Rate", "Estimated", "With Retries", "Efficiency", "Fits Budget"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Estimated", Align: text.AlignRight},
		{Name: "With Retries", Align: text.AlignRight},
	})
	for _, row := range rec.Comparison {
		t.AppendRow(table.Row{
			row.Region,
			row.CostTier,
			fmt.Sprintf("$%.4f", row.CostPerExtraction),
			fmt.Sprintf("%.0f%%", row.SuccessRate*100),
			fmt.Sprintf("$%.2f", row.EstimatedCost),
			fmt.Sprintf("$%.2f", row.ExpectedCostWithRetries),
			fmt.Sprintf("%.1f", row.CostEfficiencyScore),
			row.FitsBudget,
		})
	}
	t.Render()

	fmt.Printf("\nRecommended region: %s (tier %d), expected cost $%.2f of $%.2f (%.0f%% of budget)\n",
		rec.Region, rec.RegionCostTier, rec.ExpectedCost, rec.TotalBudget, rec.BudgetUtilization*100)
	return nil
}
