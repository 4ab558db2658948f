package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agentforge/internal/config"
	"agentforge/internal/mcpserver"
	"agentforge/internal/region"
	"agentforge/pkg/logging"

	"github.com/spf13/cobra"
)

// shutdownTimeout bounds how long the MCP server gets to drain on exit.
const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the orchestrator and MCP server",
	Long: `Start the extraction orchestrator as a long-running process: the
region health monitor runs in the background, regions.yaml is watched and
hot-reloaded, and the tool set is served over MCP (stdio or
streamable-http, per configuration).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	cfg, orch, err := bootstrap()
	if err != nil {
		return err
	}
	logging.Init(logging.ParseLevel(cfg.Logging.Level), os.Stderr)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go orch.Monitor().Run(ctx)

	err = config.WatchRegions(ctx, resolveConfigPath(), func(defs []region.Definition) {
		orch.Registry().ApplyDefinitions(defs)
		logging.Info("Serve", "Applied %d region definitions from regions.yaml", len(defs))
	})
	if err != nil {
		// A broken watcher only disables hot-reload; the server still runs.
		logging.Warn("Serve", "Region hot-reload disabled: %v", err)
	}

	server := mcpserver.NewServer(cfg.MCP, rootCmd.Version)
	if err := server.Start(ctx); err != nil {
		return err
	}

	logging.Info("Serve", "agentforge is running, press Ctrl+C to stop")
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Stop(shutdownCtx)
}
