package orchestrator

import "agentforge/internal/api"

// Adapter exposes the orchestrator through the api handler contract.
type Adapter struct {
	orchestrator *Orchestrator
}

// NewAdapter creates an adapter for the given orchestrator.
func NewAdapter(o *Orchestrator) *Adapter {
	return &Adapter{orchestrator: o}
}

// Register installs this adapter as the system's orchestrator handler.
func (a *Adapter) Register() {
	api.RegisterOrchestrator(a.orchestrator)
}

// Compile-time contract check.
var _ api.OrchestratorHandler = (*Orchestrator)(nil)
