package workflow_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"claimguard/internal/claims"
	"claimguard/internal/logging"
	"claimguard/internal/testsupport"
	"claimguard/internal/workflow"
)

func TestManagerAnalyzesPendingClaim(t *testing.T) {
	mgr, st, cfg, fake := newTestManager(t)
	claim := ingestClaim(t, st, cfg, "wc-3001.json", cleanDocument("WC-3001", "1HGCM8263GA004352"))

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitForStatus(t, st, claim.ID, claims.StatusAnalyzed, 10*time.Second)
	mgr.Stop()

	stored, err := st.GetClaim(context.Background(), claim.ID)
	if err != nil {
		t.Fatalf("GetClaim: %v", err)
	}
	if stored == nil {
		t.Fatal("claim vanished after analysis")
	}
	if stored.TriageClass != claims.TriageAutoApprove {
		t.Fatalf("clean claim should auto approve, got %s", stored.TriageClass)
	}
	if stored.IsSuspicious {
		t.Fatal("clean claim flagged suspicious")
	}
	if stored.RiskScore != 0 {
		t.Fatalf("clean claim risk score = %v, want 0", stored.RiskScore)
	}
	if stored.ErrorMessage != "" {
		t.Fatalf("unexpected error message %q", stored.ErrorMessage)
	}

	starts := fake.seenBatchStarts()
	if len(starts) != 1 || starts[0] < 1 {
		t.Fatalf("batch starts = %v, want one entry counting the claim", starts)
	}
	analyses := fake.seenAnalyses()
	if len(analyses) != 1 || analyses[0] != claim.ID {
		t.Fatalf("analysis notifications = %v, want [%s]", analyses, claim.ID)
	}
	dones := fake.seenBatchDones()
	if len(dones) != 1 || dones[0].processed != 1 || dones[0].failed != 0 {
		t.Fatalf("batch completions = %+v, want one entry with 1 analyzed", dones)
	}
	if inv := fake.seenInvestigations(); len(inv) != 0 {
		t.Fatalf("clean claim should not notify investigations, got %v", inv)
	}

	summary := mgr.Status(context.Background())
	if summary.Running {
		t.Fatal("manager still reports running after Stop")
	}
	if summary.LastClaim == nil || summary.LastClaim.ID != claim.ID {
		t.Fatalf("last claim = %+v, want %s", summary.LastClaim, claim.ID)
	}
	if summary.QueueStats[claims.StatusAnalyzed] != 1 {
		t.Fatalf("queue stats = %v, want one analyzed claim", summary.QueueStats)
	}
}

func TestManagerFailsClaimWhenDocumentMissing(t *testing.T) {
	mgr, st, cfg, fake := newTestManager(t)

	claim := testsupport.NewClaim(t, st, "WC-GONE", "1HGCM8263GA004352")
	claim.SourcePath = filepath.Join(testsupport.BaseDir(cfg), "archive", "vanished.json")
	if err := st.SaveClaim(context.Background(), claim); err != nil {
		t.Fatalf("SaveClaim: %v", err)
	}

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitForStatus(t, st, claim.ID, claims.StatusFailed, 10*time.Second)
	mgr.Stop()

	stored, err := st.GetClaim(context.Background(), claim.ID)
	if err != nil {
		t.Fatalf("GetClaim: %v", err)
	}
	if !strings.Contains(stored.ErrorMessage, "archived document missing") {
		t.Fatalf("error message %q should name the missing document", stored.ErrorMessage)
	}
	if stored.LastHeartbeat != nil {
		t.Fatal("failed claim should not keep a heartbeat")
	}

	labels := fake.seenErrorLabels()
	if len(labels) != 1 || labels[0] != "claim WC-GONE" {
		t.Fatalf("error notifications = %v, want [claim WC-GONE]", labels)
	}
	dones := fake.seenBatchDones()
	if len(dones) != 1 || dones[0].failed != 1 || dones[0].processed != 0 {
		t.Fatalf("batch completions = %+v, want one entry with 1 failed", dones)
	}
	if analyses := fake.seenAnalyses(); len(analyses) != 0 {
		t.Fatalf("failed claim should not notify analysis completion, got %v", analyses)
	}
}

func TestManagerRequeuesClaimsStuckAnalyzing(t *testing.T) {
	mgr, st, cfg, _ := newTestManager(t)
	claim := ingestClaim(t, st, cfg, "wc-3002.json", cleanDocument("WC-3002", "1HGCM8263GA004352"))

	// Simulate a crash that left the claim mid-analysis.
	claim.Status = claims.StatusAnalyzing
	hb := time.Now().UTC()
	claim.LastHeartbeat = &hb
	if err := st.SaveClaim(context.Background(), claim); err != nil {
		t.Fatalf("SaveClaim: %v", err)
	}

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitForStatus(t, st, claim.ID, claims.StatusAnalyzed, 10*time.Second)
	mgr.Stop()
}

func TestManagerIngestsDroppedDocument(t *testing.T) {
	mgr, st, cfg, fake := newTestManager(t)

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer mgr.Stop()

	testsupport.WriteDocument(t, cfg.Paths.IntakeDir, "wc-3004.json", cleanDocument("WC-3004", "1HGCM8263GA004352"))
	waitForStatus(t, st, "WC-3004", claims.StatusAnalyzed, 20*time.Second)

	entries, err := os.ReadDir(cfg.Paths.IntakeDir)
	if err != nil {
		t.Fatalf("read intake dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".json") {
			t.Fatalf("document %s should have been archived out of the spool", entry.Name())
		}
	}

	stored, err := st.GetClaim(context.Background(), "WC-3004")
	if err != nil {
		t.Fatalf("GetClaim: %v", err)
	}
	if dir := filepath.Dir(stored.SourcePath); dir != cfg.Paths.ArchiveDir {
		t.Fatalf("claim source %s should live in the archive %s", stored.SourcePath, cfg.Paths.ArchiveDir)
	}

	mgr.Stop()
	if analyses := fake.seenAnalyses(); len(analyses) != 1 || analyses[0] != "WC-3004" {
		t.Fatalf("analysis notifications = %v, want [WC-3004]", analyses)
	}
}

func TestManagerStartStopLifecycle(t *testing.T) {
	mgr, _, _, _ := newTestManager(t)
	ctx := context.Background()

	if summary := mgr.Status(ctx); summary.Running {
		t.Fatal("manager reports running before Start")
	}
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := mgr.Start(ctx); err == nil {
		t.Fatal("second Start should fail while running")
	}
	if summary := mgr.Status(ctx); !summary.Running {
		t.Fatal("manager should report running after Start")
	}

	mgr.Stop()
	mgr.Stop()
	if summary := mgr.Status(ctx); summary.Running {
		t.Fatal("manager reports running after Stop")
	}
}

func TestHeartbeatMonitorReclaimsStale(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	stale := testsupport.NewClaim(t, st, "WC-STALE", "1HGCM8263GA004352")
	past := time.Now().UTC().Add(-time.Hour)
	stale.Status = claims.StatusAnalyzing
	stale.LastHeartbeat = &past
	if err := st.SaveClaim(ctx, stale); err != nil {
		t.Fatalf("SaveClaim: %v", err)
	}

	fresh := testsupport.NewClaim(t, st, "WC-FRESH", "1HGCM8263GA004999")
	now := time.Now().UTC()
	fresh.Status = claims.StatusAnalyzing
	fresh.LastHeartbeat = &now
	if err := st.SaveClaim(ctx, fresh); err != nil {
		t.Fatalf("SaveClaim: %v", err)
	}

	monitor := workflow.NewHeartbeatMonitor(st, nil, time.Second, time.Minute)
	if err := monitor.ReclaimStale(ctx, logging.NewNop()); err != nil {
		t.Fatalf("ReclaimStale: %v", err)
	}

	got, err := st.GetClaim(ctx, "WC-STALE")
	if err != nil {
		t.Fatalf("GetClaim: %v", err)
	}
	if got.Status != claims.StatusPending {
		t.Fatalf("stale claim status = %s, want pending", got.Status)
	}
	if got.LastHeartbeat != nil {
		t.Fatal("reclaimed claim should have no heartbeat")
	}

	kept, err := st.GetClaim(ctx, "WC-FRESH")
	if err != nil {
		t.Fatalf("GetClaim: %v", err)
	}
	if kept.Status != claims.StatusAnalyzing {
		t.Fatalf("fresh claim status = %s, want analyzing", kept.Status)
	}

	// A zero timeout disables reclamation entirely.
	disabled := workflow.NewHeartbeatMonitor(st, nil, time.Second, 0)
	if err := disabled.ReclaimStale(ctx, logging.NewNop()); err != nil {
		t.Fatalf("ReclaimStale with zero timeout: %v", err)
	}
	kept, err = st.GetClaim(ctx, "WC-FRESH")
	if err != nil {
		t.Fatalf("GetClaim: %v", err)
	}
	if kept.Status != claims.StatusAnalyzing {
		t.Fatalf("zero timeout must not touch claims, status = %s", kept.Status)
	}
}
