package main

import (
	"context"
	"os"
	"testing"

	"claimguard/internal/logging"
	"claimguard/internal/testsupport"
)

func TestPrepareEnvironmentCreatesDirectories(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := prepareEnvironment(cfg); err != nil {
		t.Fatalf("prepareEnvironment: %v", err)
	}

	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.IntakeDir, cfg.Paths.ArchiveDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("stat %s: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %s to be a directory", dir)
		}
	}

	if err := prepareEnvironment(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestBuildDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := prepareEnvironment(cfg); err != nil {
		t.Fatalf("prepareEnvironment: %v", err)
	}

	d, err := buildDaemon(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("buildDaemon: %v", err)
	}

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !d.Status(ctx).Running {
		t.Fatal("expected daemon to report running")
	}

	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if d.Status(ctx).Running {
		t.Fatal("expected daemon to report stopped after close")
	}
}
