package main

import (
	"testing"

	"agentforge/cmd"
)

func TestVersionDefault(t *testing.T) {
	if version != "dev" {
		t.Errorf("Expected default version to be 'dev', got %s", version)
	}
}

func TestSetVersion(t *testing.T) {
	// SetVersion must accept the build-time version without panicking.
	cmd.SetVersion(version)
}
