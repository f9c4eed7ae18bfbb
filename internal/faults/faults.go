// Package faults defines the error taxonomy shared by all analysis stages.
//
// Errors are tagged with one of the exported sentinel markers so the workflow
// manager can classify a failure without string matching: input defects stay
// with the claim, store failures are retried, invariant violations fail loudly.
package faults

import (
	"errors"
	"fmt"
	"strings"

	"claimguard/internal/claims"
)

var (
	// ErrInput marks malformed or missing claim data. Rules degrade to
	// warnings on these; they only become errors at hard boundaries such as
	// undecodable intake documents.
	ErrInput = errors.New("input error")
	// ErrStore marks persistence failures. Always retryable; partial results
	// must not have been committed.
	ErrStore = errors.New("store error")
	// ErrInvariant marks programmer errors such as a risk score escaping its
	// bounds. Never retried.
	ErrInvariant = errors.New("invariant violation")
	// ErrNotFound marks lookups for rows that do not exist.
	ErrNotFound = errors.New("not found")
	// ErrTransient marks failures with no better classification.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether the workflow should requeue the claim instead of
// marking it failed.
func Retryable(err error) bool {
	return errors.Is(err, ErrStore) || errors.Is(err, ErrTransient)
}

// FailureStatus maps a stage error to the claim status the workflow manager
// should persist after the stage fails. Retryable errors return the claim to
// the pending pool.
func FailureStatus(err error) claims.Status {
	if Retryable(err) {
		return claims.StatusPending
	}
	return claims.StatusFailed
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "analysis failure"
	}
	return strings.Join(parts, ": ")
}
