package api

import "sync"

// Handler registry variables store the registered implementations.
// These are protected by handlerMutex for thread-safe access.
var (
	orchestratorHandler OrchestratorHandler
	pipelineHandler     PipelineHandler

	handlerMutex sync.RWMutex
)

// RegisterOrchestrator registers the orchestrator handler implementation.
// Only one handler can be registered at a time; subsequent registrations
// replace the previous handler. Called during system initialization.
func RegisterOrchestrator(h OrchestratorHandler) {
	handlerMutex.Lock()
	defer handlerMutex.Unlock()
	orchestratorHandler = h
}

// GetOrchestrator returns the registered orchestrator handler, or nil if
// none has been registered yet.
func GetOrchestrator() OrchestratorHandler {
	handlerMutex.RLock()
	defer handlerMutex.RUnlock()
	return orchestratorHandler
}

// RegisterPipeline registers the pipeline coordinator handler implementation.
func RegisterPipeline(h PipelineHandler) {
	handlerMutex.Lock()
	defer handlerMutex.Unlock()
	pipelineHandler = h
}

// GetPipeline returns the registered pipeline handler, or nil if none has
// been registered yet.
func GetPipeline() PipelineHandler {
	handlerMutex.RLock()
	defer handlerMutex.RUnlock()
	return pipelineHandler
}
