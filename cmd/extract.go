package cmd

import (
	"fmt"
	"os"
	"time"

	"agentforge/internal/api"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var (
	extractPremium           bool
	extractMaxRetries        int
	extractBudget            float64
	extractCalendarDiscovery bool
)

var extractCmd = &cobra.Command{
	Use:   "extract URL [URL...]",
	Short: "Extract events from URLs across the region fleet",
	Long: `Run a distributed extraction batch from the command line. Each URL
is routed to the currently optimal region, with automatic retry and
re-selection on failure. Results are printed as a table with per-batch
statistics.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(cmd, args)
	},
}

func init() {
	extractCmd.Flags().BoolVar(&extractPremium, "premium", false, "Use the steel-browser automation backend")
	extractCmd.Flags().IntVar(&extractMaxRetries, "max-retries", 0, "Additional attempts per URL (0 uses the configured default)")
	extractCmd.Flags().Float64Var(&extractBudget, "budget", 0, "Exclude regions costing more than this per extraction")
	extractCmd.Flags().BoolVar(&extractCalendarDiscovery, "calendar-discovery", false, "Expand calendar pages into individual event URLs")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, urls []string) error {
	_, orch, err := bootstrap()
	if err != nil {
		return err
	}

	opts := api.ExtractOptions{
		MaxRetries:           extractMaxRetries,
		UsePremiumAutomation: extractPremium,
		CalendarDiscovery:    extractCalendarDiscovery,
	}
	if extractBudget > 0 {
		opts.BudgetLimit = &extractBudget
		opts.PreferCostOptimization = true
	}

	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	sp.Suffix = fmt.Sprintf(" Extracting %d URLs across the region fleet...", len(urls))
	sp.Start()
	results, stats := orch.ExtractDistributed(cmd.Context(), urls, opts)
	sp.Stop()

	renderResults(results)
	fmt.Printf("\n%d/%d URLs succeeded, %d events, cost $%.4f in %s\n",
		stats.Succeeded, stats.TotalURLs, stats.TotalEvents, stats.TotalCost, stats.Elapsed.Round(time.Millisecond))
	for regionName, count := range stats.URLsPerRegion {
		fmt.Printf("  %s: %d URLs\n", regionName, count)
	}

	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d URLs failed", stats.Failed, stats.TotalURLs)
	}
	return nil
}

func renderResults(results []api.ExtractionResult) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"URL", "Region", "Events", "Cost", "Time"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Cost", Align: text.AlignRight},
		{Name: "Events", Align: text.AlignRight},
	})
	for _, r := range results {
		t.AppendRow(table.Row{
			r.URL,
			r.Region,
			r.EventsFound,
			fmt.Sprintf("$%.4f", r.Cost),
			fmt.Sprintf("%.2fs", r.ProcessingTime),
		})
	}
	t.Render()
}
