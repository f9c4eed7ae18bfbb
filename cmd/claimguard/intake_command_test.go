package main

import (
	"context"
	"testing"

	"claimguard/internal/claims"
	"claimguard/internal/testsupport"
)

func TestIntakeCommandDrainsSpool(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteDocument(t, env.cfg.Paths.IntakeDir, "wc-1001.json",
		claimDocument("WC-1001", "1HGCM8263GA004352"))

	stdout, _, err := runCLI(t, []string{"intake"}, env.configPath)
	if err != nil {
		t.Fatalf("intake: %v", err)
	}
	requireContains(t, stdout, "Queued 1 claims for analysis")

	c, err := env.store.GetClaim(context.Background(), "WC-1001")
	if err != nil {
		t.Fatalf("GetClaim: %v", err)
	}
	if c == nil {
		t.Fatal("claim missing after intake")
	}
	if c.Status != claims.StatusPending {
		t.Fatalf("expected pending claim, got %s", c.Status)
	}

	stdout, _, err = runCLI(t, []string{"intake"}, env.configPath)
	if err != nil {
		t.Fatalf("second intake: %v", err)
	}
	requireContains(t, stdout, "No documents queued")
}
