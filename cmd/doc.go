// Package cmd implements the agentforge command-line interface.
//
// The CLI has two modes of use: `serve` runs the orchestrator as a
// long-running process with health monitoring, region hot-reload and the
// MCP server; the remaining commands (extract, regions, cost, pipeline)
// are one-shot operations that build the same orchestrator in-process and
// print their results to stdout.
package cmd
