package cmd

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var regionsCheck bool

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List extraction regions and their statistics",
	Long: `Show every configured extraction region with its cost tier, load,
status and success statistics. With --check, each region's health endpoint
is probed first so the reported status is current.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRegions(cmd)
	},
}

func init() {
	regionsCmd.Flags().BoolVar(&regionsCheck, "check", false, "Probe each region's health endpoint before listing")
	rootCmd.AddCommand(regionsCmd)
}

func runRegions(cmd *cobra.Command) error {
	_, orch, err := bootstrap()
	if err != nil {
		return err
	}

	var health map[string]bool
	if regionsCheck {
		health = orch.HealthCheckAll(cmd.Context())
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	header := table.Row{"Name", "Code", "Tier", "Cost/URL", "Load", "Status", "Success", "Errors", "Rate Limits", "Total Cost"}
	if regionsCheck {
		header = append(header, "Healthy")
	}
	t.AppendHeader(header)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Cost/URL", Align: text.AlignRight},
		{Name: "Total Cost", Align: text.AlignRight},
	})

	for _, info := range orch.ListRegions() {
		row := table.Row{
			info.Name,
			info.RegionCode,
			info.CostTier,
			fmt.Sprintf("$%.4f", info.CostPerExtraction),
			fmt.Sprintf("%d/%d", info.CurrentLoad, info.MaxConcurrent),
			string(info.Status),
			info.SuccessCount,
			info.ErrorCount,
			info.RateLimitCount,
			fmt.Sprintf("$%.4f", info.TotalCost),
		}
		if regionsCheck {
			row = append(row, health[info.Name])
		}
		t.AppendRow(row)
	}
	t.Render()
	return nil
}
