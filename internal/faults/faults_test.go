package faults_test

import (
	"errors"
	"strings"
	"testing"

	"claimguard/internal/claims"
	"claimguard/internal/faults"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := faults.Wrap(faults.ErrStore, "dedupe", "exact-scan", "lookup failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, faults.ErrStore) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"dedupe", "exact-scan", "lookup failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := faults.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, faults.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "analysis failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestRetryable(t *testing.T) {
	storeErr := faults.Wrap(faults.ErrStore, "pipeline", "persist", "write conflict", nil)
	if !faults.Retryable(storeErr) {
		t.Fatal("expected store errors to be retryable")
	}
	inputErr := faults.Wrap(faults.ErrInput, "intake", "decode", "bad json", nil)
	if faults.Retryable(inputErr) {
		t.Fatal("expected input errors to be permanent")
	}
	if faults.Retryable(nil) {
		t.Fatal("expected nil to be non-retryable")
	}
}

func TestFailureStatusMapping(t *testing.T) {
	storeErr := faults.Wrap(faults.ErrStore, "pipeline", "persist", "connection lost", errors.New("io"))
	if status := faults.FailureStatus(storeErr); status != claims.StatusPending {
		t.Fatalf("expected pending for store error, got %s", status)
	}

	invariantErr := faults.Wrap(faults.ErrInvariant, "risk", "aggregate", "score out of bounds", nil)
	if status := faults.FailureStatus(invariantErr); status != claims.StatusFailed {
		t.Fatalf("expected failed for invariant error, got %s", status)
	}

	if status := faults.FailureStatus(nil); status != claims.StatusFailed {
		t.Fatalf("expected failed for nil error, got %s", status)
	}
}
