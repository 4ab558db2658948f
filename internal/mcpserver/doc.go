// Package mcpserver exposes the extraction orchestrator and the
// multi-agent pipeline as MCP tools over stdio or streamable-http.
//
// The server is a thin adapter: tool handlers resolve the registered api
// handlers, coerce arguments, and marshal results to JSON. Protocol
// transport and capability negotiation come entirely from mcp-go.
package mcpserver
