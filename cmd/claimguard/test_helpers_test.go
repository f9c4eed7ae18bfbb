package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"claimguard/internal/claims"
	"claimguard/internal/config"
	"claimguard/internal/store"
	"claimguard/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *store.Store
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	configPath := filepath.Join(homeDir, ".config", "claimguard", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	st := testsupport.MustOpenStore(t, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		store:      st,
		configPath: configPath,
		baseDir:    base,
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
data_dir = %q
intake_dir = %q
archive_dir = %q
log_dir = %q

[database]
driver = "sqlite"
path = %q
`,
		cfg.Paths.DataDir,
		cfg.Paths.IntakeDir,
		cfg.Paths.ArchiveDir,
		cfg.Paths.LogDir,
		cfg.Database.Path,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// claimDocument builds the extraction-service payload the intake spool
// receives for one claim.
func claimDocument(claimID, vin string) map[string]any {
	return map[string]any{
		"claim_id":          claimID,
		"customer_name":     "Jordan Miles",
		"dealer_id":         "DLR-100",
		"dealer_name":       "Sunrise Motors",
		"vin":               vin,
		"brand":             "honda",
		"model":             "Accord",
		"year":              2016,
		"odometer":          48000,
		"issue_description": "Transmission slipping between second and third gear",
		"claim_date":        "2024-03-15",
		"decision_date":     "2024-03-25",
		"parts_cost":        500.25,
		"labor_cost":        300.10,
		"tax":               64.05,
		"total_amount":      864.40,
		"status":            "approved",
		"raw_text":          "Warranty claim for transmission repair covering parts and labor.",
	}
}

func seedAnalyzedClaim(t *testing.T, st *store.Store, id string, triage claims.TriageClass, score float64, suspicious bool) *claims.Claim {
	t.Helper()

	c := testsupport.NewClaim(t, st, id, "VIN"+id)
	now := time.Now().UTC()
	c.Status = claims.StatusAnalyzed
	c.DealerID = "DLR-100"
	c.DealerName = "Sunrise Motors"
	c.TriageClass = triage
	c.RiskScore = score
	c.IsSuspicious = suspicious
	c.Summary = fmt.Sprintf("Risk score %.2f", score)
	c.AnalyzedAt = &now
	if err := st.SaveClaim(context.Background(), c); err != nil {
		t.Fatalf("save analyzed claim: %v", err)
	}
	return c
}

func seedFailedClaim(t *testing.T, st *store.Store, id string) *claims.Claim {
	t.Helper()

	c := testsupport.NewClaim(t, st, id, "VIN"+id)
	c.SetFailed("decode claim document: unexpected end of JSON input")
	if err := st.SaveClaim(context.Background(), c); err != nil {
		t.Fatalf("save failed claim: %v", err)
	}
	return c
}
