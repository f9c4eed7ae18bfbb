package intake

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"claimguard/internal/claims"
	"claimguard/internal/config"
	"claimguard/internal/faults"
	"claimguard/internal/store"
	"claimguard/internal/testsupport"
)

func newTestIngestor(t *testing.T) (*Ingestor, *store.Store, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	return NewIngestor(st, cfg, nil), st, cfg
}

func docPayload(claimNumber string) map[string]any {
	return map[string]any{
		"claim_id": claimNumber,
		"vin":      "1HGCM8263GA004352",
		"raw_text": "warranty claim for transmission repair",
	}
}

func TestIngestRegistersPendingClaim(t *testing.T) {
	ing, st, cfg := newTestIngestor(t)
	ctx := context.Background()
	path := testsupport.WriteDocument(t, cfg.Paths.IntakeDir, "wc-0001.json", docPayload("WC-0001"))

	claim, err := ing.Ingest(ctx, path)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if claim.ID != "WC-0001" {
		t.Fatalf("claim id = %q", claim.ID)
	}
	if claim.Status != claims.StatusPending {
		t.Fatalf("status = %s", claim.Status)
	}

	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("document still in intake spool")
	}
	if filepath.Dir(claim.SourcePath) != cfg.Paths.ArchiveDir {
		t.Fatalf("source path = %q, want file under %q", claim.SourcePath, cfg.Paths.ArchiveDir)
	}
	if _, err := os.Stat(claim.SourcePath); err != nil {
		t.Fatalf("archived document: %v", err)
	}

	stored, err := st.GetClaim(ctx, claim.ID)
	if err != nil {
		t.Fatalf("GetClaim: %v", err)
	}
	if stored == nil || stored.Status != claims.StatusPending {
		t.Fatalf("stored claim = %+v", stored)
	}
	if stored.SourcePath != claim.SourcePath {
		t.Fatalf("stored source path = %q", stored.SourcePath)
	}
}

func TestIngestParksBadDocument(t *testing.T) {
	ing, st, cfg := newTestIngestor(t)
	ctx := context.Background()

	if err := os.MkdirAll(cfg.Paths.IntakeDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(cfg.Paths.IntakeDir, "broken.json")
	if err := os.WriteFile(path, []byte("{truncated"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := ing.Ingest(ctx, path)
	if !errors.Is(err, faults.ErrInput) {
		t.Fatalf("err = %v, want input error", err)
	}

	parked := filepath.Join(cfg.Paths.ArchiveDir, failedDirName, "broken.json")
	if _, err := os.Stat(parked); err != nil {
		t.Fatalf("parked document: %v", err)
	}
	reason, err := os.ReadFile(parked + ".reason.txt")
	if err != nil {
		t.Fatalf("reason file: %v", err)
	}
	if !strings.Contains(string(reason), "not a valid extraction document") {
		t.Fatalf("reason = %q", reason)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("rejected document still in intake spool")
	}

	exists, err := st.ClaimExists(ctx, "BROKEN")
	if err != nil || exists {
		t.Fatalf("claim registered for rejected document: %v %v", exists, err)
	}
}

func TestIngestMissingRawTextParks(t *testing.T) {
	ing, _, cfg := newTestIngestor(t)
	path := testsupport.WriteDocument(t, cfg.Paths.IntakeDir, "empty.json", map[string]any{"claim_id": "WC-EMPTY"})

	_, err := ing.Ingest(context.Background(), path)
	if !errors.Is(err, faults.ErrInput) {
		t.Fatalf("err = %v, want input error", err)
	}
	reason, err := os.ReadFile(filepath.Join(cfg.Paths.ArchiveDir, failedDirName, "empty.json.reason.txt"))
	if err != nil {
		t.Fatalf("reason file: %v", err)
	}
	if !strings.Contains(string(reason), "raw_text is required") {
		t.Fatalf("reason = %q", reason)
	}
}

func TestIngestMissingFileIsTransient(t *testing.T) {
	ing, _, cfg := newTestIngestor(t)

	_, err := ing.Ingest(context.Background(), filepath.Join(cfg.Paths.IntakeDir, "ghost.json"))
	if !errors.Is(err, faults.ErrTransient) {
		t.Fatalf("err = %v, want transient", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.ArchiveDir, failedDirName)); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("transient failure created the failed spool")
	}
}

func TestIngestReingestRequeues(t *testing.T) {
	ing, st, cfg := newTestIngestor(t)
	ctx := context.Background()

	path := testsupport.WriteDocument(t, cfg.Paths.IntakeDir, "wc-0002.json", docPayload("WC-0002"))
	first, err := ing.Ingest(ctx, path)
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}

	// Mark the claim analyzed, then re-drop the document.
	stored, err := st.GetClaim(ctx, first.ID)
	if err != nil || stored == nil {
		t.Fatalf("GetClaim: %v %v", stored, err)
	}
	stored.Status = claims.StatusAnalyzed
	if err := st.SaveClaim(ctx, stored); err != nil {
		t.Fatalf("SaveClaim: %v", err)
	}

	path = testsupport.WriteDocument(t, cfg.Paths.IntakeDir, "wc-0002.json", docPayload("WC-0002"))
	second, err := ing.Ingest(ctx, path)
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("claim id changed: %q vs %q", second.ID, first.ID)
	}
	if second.SourcePath == first.SourcePath {
		t.Fatal("archive overwrote the first document")
	}
	if _, err := os.Stat(first.SourcePath); err != nil {
		t.Fatalf("first archived document: %v", err)
	}

	requeued, err := st.GetClaim(ctx, first.ID)
	if err != nil || requeued == nil {
		t.Fatalf("GetClaim: %v %v", requeued, err)
	}
	if requeued.Status != claims.StatusPending {
		t.Fatalf("status after re-ingest = %s, want pending", requeued.Status)
	}
}

func TestScanSpool(t *testing.T) {
	ing, _, cfg := newTestIngestor(t)
	ctx := context.Background()

	testsupport.WriteDocument(t, cfg.Paths.IntakeDir, "a.json", docPayload("WC-A"))
	testsupport.WriteDocument(t, cfg.Paths.IntakeDir, "b.json", docPayload("WC-B"))
	if err := os.WriteFile(filepath.Join(cfg.Paths.IntakeDir, "notes.txt"), []byte("not a claim"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cfg.Paths.IntakeDir, "bad.json"), []byte("nope"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	count, err := ing.ScanSpool(ctx)
	if err != nil {
		t.Fatalf("ScanSpool: %v", err)
	}
	if count != 2 {
		t.Fatalf("ingested = %d, want 2", count)
	}

	entries, err := os.ReadDir(cfg.Paths.IntakeDir)
	if err != nil {
		t.Fatalf("read intake dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "notes.txt" {
		t.Fatalf("spool leftovers = %v", entries)
	}
}

func TestDecodeExtracted(t *testing.T) {
	doc := `{"claim_id":"WC-9","raw_text":"engine knock on cold start","parts_cost":100.5,` +
		`"images":[{"page":1,"index":0,"content_hash":"abc"}]}`
	e, err := DecodeExtracted([]byte(doc))
	if err != nil {
		t.Fatalf("DecodeExtracted: %v", err)
	}
	if e.ClaimID != "WC-9" {
		t.Fatalf("claim id = %q", e.ClaimID)
	}
	if e.PartsCost == nil || *e.PartsCost != 100.5 {
		t.Fatalf("parts cost = %v", e.PartsCost)
	}
	if len(e.Images) != 1 || e.Images[0].ContentHash != "abc" {
		t.Fatalf("images = %+v", e.Images)
	}

	bad := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"not json", "hello"},
		{"missing raw text", `{"claim_id":"X"}`},
		{"blank raw text", `{"raw_text":"   "}`},
	}
	for _, tc := range bad {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeExtracted([]byte(tc.doc)); !errors.Is(err, faults.ErrInput) {
				t.Fatalf("err = %v, want input error", err)
			}
		})
	}
}
