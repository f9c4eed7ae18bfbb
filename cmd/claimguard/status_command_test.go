package main

import (
	"testing"

	"claimguard/internal/testsupport"
)

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, stdout, "System Status")
	requireContains(t, stdout, "Daemon")
	requireContains(t, stdout, "stopped")
	requireContains(t, stdout, "Queue Status")
	requireContains(t, stdout, "Queue is empty")

	testsupport.NewClaim(t, env.store, "CLM-7001", "1HGCM8263GA004352")

	stdout, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, stdout, "Pending")
}

func TestStatusCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	requireContains(t, stdout, `"daemon_running": false`)
	requireContains(t, stdout, `"checks"`)
}
