package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

const benchmarkExport = `[
  {
    "brand": "honda",
    "issue_type": "transmission",
    "avg_parts_cost": 820.50,
    "std_parts_cost": 150.25,
    "avg_labor_cost": 410.00,
    "std_labor_cost": 90.10,
    "avg_total": 1310.75,
    "std_total": 260.40,
    "min_total": 480.00,
    "max_total": 2950.00,
    "avg_labor_ratio": 0.5,
    "avg_tax_rate": 0.08,
    "sample_count": 412
  },
  {
    "brand": null,
    "issue_type": "transmission",
    "avg_total": 1500.00,
    "std_total": 400.00,
    "min_total": 300.00,
    "max_total": 4200.00,
    "sample_count": 1650
  }
]`

func TestBenchmarksImportAndList(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.baseDir, "benchmarks.json")
	if err := os.WriteFile(path, []byte(benchmarkExport), 0o644); err != nil {
		t.Fatalf("write export: %v", err)
	}

	stdout, _, err := runCLI(t, []string{"benchmarks", "import", path}, env.configPath)
	if err != nil {
		t.Fatalf("benchmarks import: %v", err)
	}
	requireContains(t, stdout, "Imported 2 benchmarks")

	b, err := env.store.GetBenchmark(context.Background(), "honda", "transmission")
	if err != nil {
		t.Fatalf("GetBenchmark: %v", err)
	}
	if b == nil || b.SampleCount != 412 {
		t.Fatalf("brand benchmark not stored: %+v", b)
	}

	stdout, _, err = runCLI(t, []string{"benchmarks", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("benchmarks list: %v", err)
	}
	requireContains(t, stdout, "Honda")
	requireContains(t, stdout, "(any)")
	requireContains(t, stdout, "Transmission")
}

func TestBenchmarksImportRejectsBadEntries(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.baseDir, "bad.json")
	if err := os.WriteFile(path, []byte(`[{"brand":"honda","avg_total":100}]`), 0o644); err != nil {
		t.Fatalf("write export: %v", err)
	}

	_, _, err := runCLI(t, []string{"benchmarks", "import", path}, env.configPath)
	if err == nil {
		t.Fatal("expected error for entry without issue type")
	}
	requireContains(t, err.Error(), "no issue type")
}

func TestBenchmarksListJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.baseDir, "benchmarks.json")
	if err := os.WriteFile(path, []byte(benchmarkExport), 0o644); err != nil {
		t.Fatalf("write export: %v", err)
	}
	if _, _, err := runCLI(t, []string{"benchmarks", "import", path}, env.configPath); err != nil {
		t.Fatalf("benchmarks import: %v", err)
	}

	stdout, _, err := runCLI(t, []string{"benchmarks", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("benchmarks list --json: %v", err)
	}
	var views []benchmarkView
	if err := json.Unmarshal([]byte(stdout), &views); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 benchmarks, got %d", len(views))
	}
}
