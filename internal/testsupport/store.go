package testsupport

import (
	"context"
	"testing"
	"time"

	"claimguard/internal/claims"
	"claimguard/internal/config"
	"claimguard/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewClaim persists a minimal pending claim for tests and returns it. Fields
// beyond the identifiers stay zero so tests can assert on their own writes.
func NewClaim(t testing.TB, st *store.Store, id, vin string) *claims.Claim {
	t.Helper()

	now := time.Now().UTC()
	c := &claims.Claim{
		ID:          id,
		VIN:         claims.NormalizeVIN(vin),
		Status:      claims.StatusPending,
		TriageClass: claims.TriageAutoApprove,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := st.SaveClaim(context.Background(), c); err != nil {
		t.Fatalf("store.SaveClaim: %v", err)
	}
	return c
}
