package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"agentforge/internal/api"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

var (
	pipelineDebug bool
	pipelineJSON  bool
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline CALENDAR_URL",
	Short: "Run the full multi-agent pipeline for a calendar URL",
	Long: `Expand one calendar page through the five-stage agent pipeline:
scroll discovery, link validation, distributed text extraction, data
validation and routing optimization. Prints per-stage outcomes and the
aggregate quality metrics.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, args[0])
	},
}

func init() {
	pipelineCmd.Flags().BoolVar(&pipelineDebug, "debug", false, "Enable per-stage debug logging")
	pipelineCmd.Flags().BoolVar(&pipelineJSON, "json", false, "Print the full pipeline result as JSON")
	rootCmd.AddCommand(pipelineCmd)
}

func runPipeline(cmd *cobra.Command, calendarURL string) error {
	if _, _, err := bootstrap(); err != nil {
		return err
	}
	coordinator := api.GetPipeline()

	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	sp.Suffix = fmt.Sprintf(" Running pipeline for %s...", calendarURL)
	sp.Start()
	result := coordinator.ExecuteFullPipeline(cmd.Context(), calendarURL, pipelineDebug)
	sp.Stop()

	if pipelineJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else {
		printPipelineSummary(result)
	}

	if result.Stage == api.StageFailed {
		return fmt.Errorf("pipeline failed: %s", result.Error)
	}
	return nil
}

func printPipelineSummary(result *api.PipelineResult) {
	fmt.Printf("Pipeline %s: %s\n", result.RunID, result.Stage)
	for _, stage := range []api.PipelineStage{
		api.StageScrollDiscovery,
		api.StageLinkValidation,
		api.StageTextExtraction,
		api.StageDataValidation,
		api.StageRoutingOptimization,
	} {
		record, ok := result.StageResults[stage]
		if !ok {
			fmt.Printf("  %-22s skipped\n", stage)
			continue
		}
		outcome := "ok"
		if !record.Success {
			outcome = "failed"
		}
		fmt.Printf("  %-22s %-7s %.2fs\n", stage, outcome, record.ExecutionTime)
		for _, warning := range record.Warnings {
			fmt.Printf("    warning: %s\n", warning)
		}
	}

	fmt.Printf("\nEvents: %d\n", len(result.Events))
	fmt.Printf("Discovery rate: %.2f  Field completion: %.2f  Quality: %.2f  Efficiency: %.2f\n",
		result.EventDiscoveryRate, result.FieldCompletionRate, result.QualityScore, result.ProcessingEfficiency)
}
