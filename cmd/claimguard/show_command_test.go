package main

import (
	"context"
	"encoding/json"
	"testing"

	"claimguard/internal/claims"
)

func TestShowCommandRendersSections(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	c := seedAnalyzedClaim(t, env.store, "CLM-3001", claims.TriageInvestigate, 0.82, true)
	c.SignalsJSON = `[{"type":"OLD_VEHICLE","severity":"LOW","description":"vehicle age 12 exceeds the policy limit"}]`
	c.WarningsJSON = `["2 images skipped: unreadable bytes"]`
	if err := env.store.SaveClaim(ctx, c); err != nil {
		t.Fatalf("save claim: %v", err)
	}
	other := seedAnalyzedClaim(t, env.store, "CLM-3002", claims.TriageReview, 0.41, false)

	if err := env.store.SaveDuplicateMatch(ctx, &claims.DuplicateMatch{
		ClaimID:        c.ID,
		MatchedClaimID: other.ID,
		Kind:           claims.MatchVINIssue,
		Similarity:     0.93,
		Details:        "same VIN and issue type within the proximity window",
	}); err != nil {
		t.Fatalf("save duplicate match: %v", err)
	}
	if err := env.store.SaveImageFingerprint(ctx, &claims.EvidenceImage{
		ClaimID:        c.ID,
		Page:           1,
		ImageIndex:     0,
		Width:          640,
		Height:         480,
		ByteSize:       52341,
		PerceptualHash: "c3c3c3c3c3c3c3c3",
		ContentHash:    "8f434346648f6b96df89dda901c5176b",
	}); err != nil {
		t.Fatalf("save image fingerprint: %v", err)
	}

	stdout, _, err := runCLI(t, []string{"show", "CLM-3001"}, env.configPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, stdout, "Claim CLM-3001")
	requireContains(t, stdout, "INVESTIGATE")
	requireContains(t, stdout, "OLD_VEHICLE")
	requireContains(t, stdout, "2 images skipped")
	requireContains(t, stdout, "VIN_ISSUE_DUPLICATE")
	requireContains(t, stdout, "CLM-3002")
	requireContains(t, stdout, "640x480")
}

func TestShowCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	c := seedAnalyzedClaim(t, env.store, "CLM-3101", claims.TriageAutoApprove, 0.05, false)
	c.SignalsJSON = `[{"type":"VIN_INVALID_LENGTH","severity":"MEDIUM","description":"VIN has 12 characters, expected 17"}]`
	if err := env.store.SaveClaim(context.Background(), c); err != nil {
		t.Fatalf("save claim: %v", err)
	}

	stdout, _, err := runCLI(t, []string{"show", "--json", "CLM-3101"}, env.configPath)
	if err != nil {
		t.Fatalf("show --json: %v", err)
	}
	var payload struct {
		Claim   claimDetailView      `json:"claim"`
		Signals []claims.FraudSignal `json:"signals"`
	}
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout)
	}
	if payload.Claim.ClaimID != "CLM-3101" {
		t.Fatalf("unexpected claim id %q", payload.Claim.ClaimID)
	}
	if len(payload.Signals) != 1 || payload.Signals[0].Type != claims.SignalVINInvalidLength {
		t.Fatalf("unexpected signals: %+v", payload.Signals)
	}
}

func TestShowCommandUnknownClaim(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"show", "CLM-9999"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for unknown claim")
	}
	requireContains(t, err.Error(), "not found")
}
