package store_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"claimguard/internal/claims"
	"claimguard/internal/store"
	"claimguard/internal/testsupport"
)

func TestSaveClaimRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	year := 2021
	odometer := 48200
	parts := 512.40
	labor := 260.00
	tax := 61.79
	total := 834.19
	analyzedAt := time.Now().UTC().Add(-time.Hour)

	c := &claims.Claim{
		ID:               "CLM-ROUNDTRIP",
		ClaimNumber:      "WC-2026-0042",
		CustomerName:     "Jordan Blake",
		DealerID:         "DLR-NORTH",
		DealerName:       "Northside Auto",
		VIN:              "1HGCM82633A004352",
		Brand:            "Honda",
		Model:            "Accord",
		Year:             &year,
		Odometer:         &odometer,
		IssueDescription: "transmission slipping between second and third gear",
		IssueType:        "transmission",
		ClaimDate:        "2026-05-12",
		DecisionDate:     "2026-05-20",
		PartsCost:        &parts,
		LaborCost:        &labor,
		TaxAmount:        &tax,
		TotalAmount:      &total,
		ReportedStatus:   "approved",
		RawText:          "warranty claim WC-2026-0042",
		SourcePath:       "/archive/wc-2026-0042.json",
		Status:           claims.StatusAnalyzed,
		RiskScore:        0.4,
		TriageClass:      claims.TriageReview,
		IsSuspicious:     true,
		Summary:          "Risk 0.40: review",
		SignalsJSON:      `[{"signal_type":"TOTAL_MISMATCH"}]`,
		WarningsJSON:     `["decision took 8 days"]`,
		AnalyzedAt:       &analyzedAt,
	}
	if err := st.SaveClaim(ctx, c); err != nil {
		t.Fatalf("SaveClaim failed: %v", err)
	}

	got, err := st.GetClaim(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetClaim failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected saved claim, got nil")
	}
	if got.ClaimNumber != c.ClaimNumber || got.VIN != c.VIN || got.Brand != c.Brand {
		t.Fatalf("identity fields did not round-trip: %#v", got)
	}
	if got.Year == nil || *got.Year != year {
		t.Fatalf("year did not round-trip: %v", got.Year)
	}
	if got.Odometer == nil || *got.Odometer != odometer {
		t.Fatalf("odometer did not round-trip: %v", got.Odometer)
	}
	if got.PartsCost == nil || *got.PartsCost != parts {
		t.Fatalf("parts cost did not round-trip: %v", got.PartsCost)
	}
	if got.TotalAmount == nil || *got.TotalAmount != total {
		t.Fatalf("total amount did not round-trip: %v", got.TotalAmount)
	}
	if got.Status != claims.StatusAnalyzed || got.TriageClass != claims.TriageReview {
		t.Fatalf("status fields did not round-trip: %s / %s", got.Status, got.TriageClass)
	}
	if !got.IsSuspicious || got.RiskScore != 0.4 {
		t.Fatalf("analysis fields did not round-trip: suspicious=%v score=%v", got.IsSuspicious, got.RiskScore)
	}
	if got.SignalsJSON != c.SignalsJSON || got.WarningsJSON != c.WarningsJSON {
		t.Fatalf("JSON columns did not round-trip: %q / %q", got.SignalsJSON, got.WarningsJSON)
	}
	if got.AnalyzedAt == nil || !got.AnalyzedAt.Equal(analyzedAt) {
		t.Fatalf("analyzed_at did not round-trip: %v", got.AnalyzedAt)
	}
	if got.CreatedAt.IsZero() || !got.UpdatedAt.Equal(c.UpdatedAt) {
		t.Fatalf("timestamps did not round-trip: created=%v updated=%v", got.CreatedAt, got.UpdatedAt)
	}

	exists, err := st.ClaimExists(ctx, c.ID)
	if err != nil {
		t.Fatalf("ClaimExists failed: %v", err)
	}
	if !exists {
		t.Fatal("expected ClaimExists to report the saved claim")
	}

	missing, err := st.GetClaim(ctx, "CLM-ABSENT")
	if err != nil {
		t.Fatalf("GetClaim for absent id failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for absent claim, got %#v", missing)
	}
}

func TestSaveClaimUpsertPreservesCreatedAt(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.NewClaim(t, st, "CLM-UPSERT", "1HGCM82633A004352")

	update := *first
	update.IssueDescription = "corrected description after re-extraction"
	update.CreatedAt = time.Time{}
	if err := st.SaveClaim(ctx, &update); err != nil {
		t.Fatalf("SaveClaim upsert failed: %v", err)
	}

	got, err := st.GetClaim(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetClaim failed: %v", err)
	}
	if got.IssueDescription != update.IssueDescription {
		t.Fatalf("expected updated description, got %q", got.IssueDescription)
	}
	if !got.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("created_at changed on upsert: %v != %v", got.CreatedAt, first.CreatedAt)
	}
}

func TestGetBenchmarkBrandFallback(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	brand := "Toyota"
	branded := &claims.Benchmark{
		Brand:       &brand,
		IssueType:   "Engine",
		AvgTotal:    2400,
		StdTotal:    300,
		SampleCount: 120,
	}
	if err := st.SaveBenchmark(ctx, branded); err != nil {
		t.Fatalf("SaveBenchmark branded failed: %v", err)
	}
	generic := &claims.Benchmark{
		IssueType:   "engine",
		AvgTotal:    1800,
		StdTotal:    250,
		SampleCount: 900,
	}
	if err := st.SaveBenchmark(ctx, generic); err != nil {
		t.Fatalf("SaveBenchmark generic failed: %v", err)
	}

	got, err := st.GetBenchmark(ctx, "TOYOTA", "ENGINE")
	if err != nil {
		t.Fatalf("GetBenchmark failed: %v", err)
	}
	if got == nil || got.Brand == nil || *got.Brand != "toyota" {
		t.Fatalf("expected the brand-specific row, got %#v", got)
	}
	if got.AvgTotal != 2400 {
		t.Fatalf("expected branded average 2400, got %v", got.AvgTotal)
	}

	fallback, err := st.GetBenchmark(ctx, "honda", "engine")
	if err != nil {
		t.Fatalf("GetBenchmark fallback failed: %v", err)
	}
	if fallback == nil || fallback.Brand != nil {
		t.Fatalf("expected the generic row for an unknown brand, got %#v", fallback)
	}
	if fallback.AvgTotal != 1800 {
		t.Fatalf("expected generic average 1800, got %v", fallback.AvgTotal)
	}

	none, err := st.GetBenchmark(ctx, "honda", "transmission")
	if err != nil {
		t.Fatalf("GetBenchmark for unknown issue type failed: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil when no benchmark exists, got %#v", none)
	}
}

func TestGetHashClaimCountDistinctClaims(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewClaim(t, st, "CLM-HASH-A", "")
	testsupport.NewClaim(t, st, "CLM-HASH-B", "")
	testsupport.NewClaim(t, st, "CLM-HASH-C", "")

	hash := strings.Repeat("ab", 32)
	save := func(claimID string, index int, template bool) {
		t.Helper()
		img := &claims.EvidenceImage{
			ClaimID:     claimID,
			ImageIndex:  index,
			Width:       1024,
			Height:      768,
			ByteSize:    250_000,
			ContentHash: hash,
			IsTemplate:  template,
		}
		if err := st.SaveImageFingerprint(ctx, img); err != nil {
			t.Fatalf("SaveImageFingerprint failed: %v", err)
		}
	}

	// Two copies inside one claim count as a single claim.
	save("CLM-HASH-A", 0, false)
	save("CLM-HASH-A", 1, false)
	count, err := st.GetHashClaimCount(ctx, hash)
	if err != nil {
		t.Fatalf("GetHashClaimCount failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one distinct claim, got %d", count)
	}

	save("CLM-HASH-B", 0, false)
	if count, err = st.GetHashClaimCount(ctx, hash); err != nil || count != 2 {
		t.Fatalf("expected two distinct claims, got %d (err %v)", count, err)
	}

	// Template-flagged rows still count toward recurrence.
	save("CLM-HASH-C", 0, true)
	if count, err = st.GetHashClaimCount(ctx, hash); err != nil || count != 3 {
		t.Fatalf("expected three distinct claims, got %d (err %v)", count, err)
	}

	if count, err = st.GetHashClaimCount(ctx, ""); err != nil || count != 0 {
		t.Fatalf("expected zero for empty hash, got %d (err %v)", count, err)
	}
}

func TestClaimNextPendingSingleDelivery(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	const total = 20
	for i := 0; i < total; i++ {
		testsupport.NewClaim(t, st, fmt.Sprintf("CLM-QUEUE-%02d", i), "")
	}

	claimed := make(chan string, total)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				c, err := st.ClaimNextPending(ctx)
				if err != nil {
					t.Errorf("ClaimNextPending failed: %v", err)
					return
				}
				if c == nil {
					return
				}
				if c.Status != claims.StatusAnalyzing || c.LastHeartbeat == nil {
					t.Errorf("claimed row not marked analyzing: %#v", c)
					return
				}
				claimed <- c.ID
			}
		}()
	}
	wg.Wait()
	close(claimed)

	seen := make(map[string]bool, total)
	for id := range claimed {
		if seen[id] {
			t.Fatalf("claim %s delivered to more than one worker", id)
		}
		seen[id] = true
	}
	if len(seen) != total {
		t.Fatalf("expected %d claims delivered, got %d", total, len(seen))
	}

	stats, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[claims.StatusAnalyzing] != total || stats[claims.StatusPending] != 0 {
		t.Fatalf("unexpected post-drain stats: %#v", stats)
	}
}

func TestOpenRejectsSchemaVersionMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// The sqlite driver is registered by the store package.
	db, err := sql.Open("sqlite", cfg.Database.Path)
	if err != nil {
		t.Fatalf("open raw database: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("rewrite schema version: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close raw database: %v", err)
	}

	if _, err := store.Open(cfg); !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	} else if !strings.Contains(err.Error(), "claimguard queue clear") {
		t.Fatalf("mismatch error should name the queue clear command, got %q", err)
	}
}
