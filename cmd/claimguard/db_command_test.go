package main

import (
	"encoding/json"
	"testing"

	"claimguard/internal/claims"
)

func TestDBHealthCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	seedAnalyzedClaim(t, env.store, "CLM-6001", claims.TriageAutoApprove, 0.1, false)

	stdout, _, err := runCLI(t, []string{"db", "health"}, env.configPath)
	if err != nil {
		t.Fatalf("db health: %v", err)
	}
	requireContains(t, stdout, "Database Health")
	requireContains(t, stdout, "Claims table")
	requireContains(t, stdout, "present")
	requireContains(t, stdout, "none")
	requireContains(t, stdout, "Total claims")
}

func TestDBHealthCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	seedAnalyzedClaim(t, env.store, "CLM-6101", claims.TriageAutoApprove, 0.1, false)

	stdout, _, err := runCLI(t, []string{"db", "health", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("db health --json: %v", err)
	}
	var view dbHealthView
	if err := json.Unmarshal([]byte(stdout), &view); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout)
	}
	if !view.TableExists {
		t.Fatal("expected claims table to exist")
	}
	if !view.IntegrityCheck {
		t.Fatal("expected integrity check to pass")
	}
	if view.TotalClaims != 1 {
		t.Fatalf("expected 1 claim, got %d", view.TotalClaims)
	}
	if len(view.MissingColumns) != 0 {
		t.Fatalf("unexpected missing columns: %v", view.MissingColumns)
	}
}
