package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"claimguard/internal/claims"
	"claimguard/internal/config"
	"claimguard/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckNotifications_Disabled(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	result := CheckNotifications(context.Background(), &cfg)
	if !result.Passed {
		t.Fatalf("disabled notifications should pass, got: %s", result.Detail)
	}
	if result.Detail != "disabled" {
		t.Fatalf("expected disabled detail, got %q", result.Detail)
	}
}

func TestCheckNotifications_Reachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	result := CheckNotifications(context.Background(), &cfg)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckNotifications_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	result := CheckNotifications(context.Background(), &cfg)
	if result.Passed {
		t.Fatal("expected failure for 5xx endpoint")
	}
}

func TestCheckBenchmarks_EmptyCatalogPasses(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	result := CheckBenchmarks(context.Background(), st)
	if !result.Passed {
		t.Fatalf("empty catalog should pass, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "no benchmarks") {
		t.Fatalf("detail should mention the empty catalog, got %q", result.Detail)
	}

	bench := &claims.Benchmark{IssueType: "transmission", AvgTotal: 900, StdTotal: 150, SampleCount: 40}
	if err := st.SaveBenchmark(context.Background(), bench); err != nil {
		t.Fatalf("SaveBenchmark: %v", err)
	}
	result = CheckBenchmarks(context.Background(), st)
	if !result.Passed || !strings.Contains(result.Detail, "1 benchmark") {
		t.Fatalf("expected pass counting one benchmark, got %+v", result)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil, nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_HealthyEnvironment(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.IntakeDir, cfg.Paths.ArchiveDir, cfg.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	st := testsupport.MustOpenStore(t, cfg)

	results := RunAll(context.Background(), cfg, st)
	if len(results) != 7 {
		t.Fatalf("expected 7 checks, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
	if !Healthy(results) {
		t.Fatal("expected healthy environment")
	}
}

func TestRunAll_FlagsMissingIntakeDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.ArchiveDir, cfg.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	st := testsupport.MustOpenStore(t, cfg)

	results := RunAll(context.Background(), cfg, st)
	if Healthy(results) {
		t.Fatal("missing intake dir should fail preflight")
	}
	for _, r := range results {
		if r.Name == "Intake directory" && r.Passed {
			t.Fatalf("intake check should fail, got %+v", r)
		}
	}
}
