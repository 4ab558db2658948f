package pipeline

import "agentforge/internal/api"

// Adapter exposes the coordinator through the api handler contract.
type Adapter struct {
	coordinator *Coordinator
}

// NewAdapter creates an adapter for the given coordinator.
func NewAdapter(c *Coordinator) *Adapter {
	return &Adapter{coordinator: c}
}

// Register installs this adapter as the system's pipeline handler.
func (a *Adapter) Register() {
	api.RegisterPipeline(a.coordinator)
}

// Compile-time contract check.
var _ api.PipelineHandler = (*Coordinator)(nil)
