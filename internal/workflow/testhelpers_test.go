package workflow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"claimguard/internal/claims"
	"claimguard/internal/config"
	"claimguard/internal/intake"
	"claimguard/internal/store"
	"claimguard/internal/testsupport"
	"claimguard/internal/workflow"
)

// fakeNotifier records notification calls for assertions.
type fakeNotifier struct {
	mu             sync.Mutex
	analyses       []string
	investigations []string
	batchStarts    []int
	batchDones     []batchResult
	errorLabels    []string
}

type batchResult struct {
	processed int
	failed    int
}

func (f *fakeNotifier) NotifyAnalysisComplete(_ context.Context, claimID string, _ claims.TriageClass, _ float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyses = append(f.analyses, claimID)
	return nil
}

func (f *fakeNotifier) NotifyInvestigation(_ context.Context, claimID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.investigations = append(f.investigations, claimID)
	return nil
}

func (f *fakeNotifier) NotifyBatchStarted(_ context.Context, count int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchStarts = append(f.batchStarts, count)
	return nil
}

func (f *fakeNotifier) NotifyBatchCompleted(_ context.Context, processed, failed int, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchDones = append(f.batchDones, batchResult{processed: processed, failed: failed})
	return nil
}

func (f *fakeNotifier) NotifyError(_ context.Context, _ error, contextLabel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errorLabels = append(f.errorLabels, contextLabel)
	return nil
}

func (f *fakeNotifier) TestNotification(context.Context) error { return nil }

func (f *fakeNotifier) seenAnalyses() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.analyses...)
}

func (f *fakeNotifier) seenInvestigations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.investigations...)
}

func (f *fakeNotifier) seenBatchStarts() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.batchStarts...)
}

func (f *fakeNotifier) seenBatchDones() []batchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]batchResult(nil), f.batchDones...)
}

func (f *fakeNotifier) seenErrorLabels() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.errorLabels...)
}

func newTestManager(t *testing.T) (*workflow.Manager, *store.Store, *config.Config, *fakeNotifier) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.ErrorRetryInterval = 1
	st := testsupport.MustOpenStore(t, cfg)
	fake := &fakeNotifier{}
	mgr := workflow.NewManagerWithNotifier(cfg, st, nil, fake)
	return mgr, st, cfg, fake
}

// cleanDocument produces an extraction payload with consistent fields that no
// fraud rule objects to.
func cleanDocument(claimNumber, vin string) map[string]any {
	return map[string]any{
		"claim_id":          claimNumber,
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

func ingestClaim(t *testing.T, st *store.Store, cfg *config.Config, name string, payload map[string]any) *claims.Claim {
	t.Helper()

	ing := intake.NewIngestor(st, cfg, nil)
	path := testsupport.WriteDocument(t, cfg.Paths.IntakeDir, name, payload)
	c, err := ing.Ingest(context.Background(), path)
	if err != nil {
		t.Fatalf("ingest %s: %v", name, err)
	}
	return c
}

func waitForStatus(t *testing.T, st *store.Store, claimID string, want claims.Status, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	last := claims.Status("absent")
	for time.Now().Before(deadline) {
		c, err := st.GetClaim(context.Background(), claimID)
		if err != nil {
			t.Fatalf("GetClaim %s: %v", claimID, err)
		}
		if c != nil {
			last = c.Status
			if c.Status == want {
				return
			}
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatalf("claim %s never reached %s (last %s)", claimID, want, last)
}
