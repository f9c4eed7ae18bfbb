package daemon_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"claimguard/internal/config"
	"claimguard/internal/daemon"
	"claimguard/internal/logging"
	"claimguard/internal/store"
	"claimguard/internal/testsupport"
	"claimguard/internal/workflow"
)

func newDaemon(t *testing.T, cfg *config.Config, st *store.Store) *daemon.Daemon {
	t.Helper()

	mgr := workflow.NewManager(cfg, st, nil)
	d, err := daemon.New(cfg, st, logging.NewNop(), mgr)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	st := testsupport.MustOpenStore(t, cfg)
	d := newDaemon(t, cfg, st)
	t.Cleanup(func() {
		d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.LockFilePath != daemon.LockPath(cfg) {
		t.Fatalf("unexpected lock path %q", status.LockFilePath)
	}

	running, err := daemon.InstanceRunning(cfg)
	if err != nil {
		t.Fatalf("InstanceRunning: %v", err)
	}
	if !running {
		t.Fatal("expected lock probe to report a running instance")
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	status = d.Status(ctx)
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}

	running, err = daemon.InstanceRunning(cfg)
	if err != nil {
		t.Fatalf("InstanceRunning after stop: %v", err)
	}
	if running {
		t.Fatal("expected lock probe to report no running instance")
	}
}

func TestDaemonRefusesSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	st := testsupport.MustOpenStore(t, cfg)

	first := newDaemon(t, cfg, st)
	second := newDaemon(t, cfg, st)
	t.Cleanup(func() {
		first.Stop()
		second.Stop()
	})

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}

	err := second.Start(ctx)
	if err == nil {
		t.Fatal("expected second instance start to fail")
	}
	if !strings.Contains(err.Error(), "already running") {
		t.Fatalf("unexpected second instance error: %v", err)
	}
}

func TestDaemonStartFailsWhenPreflightFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	// Leave the intake directory missing so preflight flags it.
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.ArchiveDir, cfg.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("MkdirAll(%s): %v", dir, err)
		}
	}
	st := testsupport.MustOpenStore(t, cfg)
	d := newDaemon(t, cfg, st)
	t.Cleanup(func() {
		d.Stop()
	})

	ctx := context.Background()
	err := d.Start(ctx)
	if err == nil {
		t.Fatal("expected start to fail on preflight")
	}
	if !strings.Contains(err.Error(), "preflight") {
		t.Fatalf("unexpected start error: %v", err)
	}
	if d.Status(ctx).Running {
		t.Fatal("daemon should not report running after failed start")
	}

	// The lock must be released on failure so a corrected environment can start.
	if err := os.MkdirAll(cfg.Paths.IntakeDir, 0o755); err != nil {
		t.Fatalf("MkdirAll(intake): %v", err)
	}
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start after fixing environment: %v", err)
	}
	d.Stop()
}
