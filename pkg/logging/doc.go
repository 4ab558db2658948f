// Package logging provides a structured logging system for agentforge built
// on Go's standard slog package.
//
// Every log entry carries a subsystem tag identifying the component that
// produced it (Orchestrator, RegionHealth, Pipeline, ...), a severity level,
// and an optional error attribute. Output goes to a single slog text handler
// configured once at startup via Init or InitForCLI.
//
// Usage:
//
//	logging.InitForCLI(logging.LevelInfo)
//	logging.Info("Orchestrator", "Extracting %d URLs", len(urls))
//	logging.Error("RegionHealth", err, "Health probe failed for %s", region)
package logging
