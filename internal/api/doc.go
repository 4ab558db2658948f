// Package api defines the shared types, typed errors, and handler locator
// used across agentforge components.
//
// The package is the central contract layer: the orchestrator and pipeline
// coordinator register their implementations here during startup, and
// consumers (CLI commands, the MCP tool surface) retrieve them via the
// Get* accessors instead of importing the implementing packages directly.
// This keeps the dependency graph acyclic and lets tests install mock
// handlers.
//
// Error types follow a single pattern: a struct carrying context fields,
// an Error method, and an Is* helper built on errors.As so wrapped errors
// classify correctly.
package api
