package cmd

import (
	"time"

	"agentforge/internal/config"
	"agentforge/internal/executor"
	"agentforge/internal/orchestrator"
	"agentforge/internal/pipeline"
)

// bootstrap loads the configuration, builds the orchestrator and pipeline
// coordinator, and registers both as the process-wide api handlers. Every
// command that touches the extraction system goes through here so CLI runs
// and the serve loop share one construction path.
func bootstrap() (config.Config, *orchestrator.Orchestrator, error) {
	cfg, err := config.LoadConfig(resolveConfigPath())
	if err != nil {
		return config.Config{}, nil, err
	}

	orch, err := orchestrator.New(orchestrator.Config{
		GlobalConcurrency: cfg.Orchestrator.GlobalConcurrency,
		MaxRetries:        cfg.Orchestrator.MaxRetries,
		Executor: executor.Config{
			Timeout:           time.Duration(cfg.Orchestrator.ExtractionTimeoutSeconds) * time.Second,
			SteelAPIKey:       cfg.Orchestrator.SteelAPIKey,
			RequestsPerSecond: cfg.Orchestrator.RequestsPerSecond,
		},
	}, cfg.Regions)
	if err != nil {
		return config.Config{}, nil, err
	}

	orchestrator.NewAdapter(orch).Register()
	pipeline.NewAdapter(pipeline.NewCoordinator(orch, orch.Registry())).Register()

	return cfg, orch, nil
}
