// Package config loads and watches agentforge configuration.
//
// Two files live in the config directory (default ~/.config/agentforge):
// config.yaml with orchestrator, MCP, and logging settings, and
// regions.yaml with the extraction region fleet. Missing files fall back
// to built-in defaults; malformed files are errors. WatchRegions applies
// regions.yaml edits to a running orchestrator without a restart.
package config
