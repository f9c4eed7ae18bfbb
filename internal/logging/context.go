package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldClaimID is the standardized structured logging key for claim identifiers.
	FieldClaimID = "claim_id"
	// FieldRunID is the standardized structured logging key for analysis run identifiers.
	FieldRunID = "run_id"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldDealerID is the standardized structured logging key for dealer identifiers.
	FieldDealerID = "dealer_id"
	// FieldVIN is the standardized structured logging key for vehicle identification numbers.
	FieldVIN = "vin"
	// FieldEventType is the standardized structured logging key for machine-matchable event names.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized structured logging key for operator next steps.
	FieldErrorHint = "error_hint"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

type contextKey string

const (
	claimIDContextKey contextKey = "claim_id"
	runIDContextKey   contextKey = "run_id"
	stageContextKey   contextKey = "stage"
)

// WithClaimID records the claim being processed on the context.
func WithClaimID(ctx context.Context, claimID string) context.Context {
	if claimID == "" {
		return ctx
	}
	return context.WithValue(ctx, claimIDContextKey, claimID)
}

// ClaimIDFromContext reports the claim recorded on the context, if any.
func ClaimIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(claimIDContextKey).(string)
	return id, ok && id != ""
}

// WithRunID records the analysis run on the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	if runID == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDContextKey, runID)
}

// RunIDFromContext reports the analysis run recorded on the context, if any.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(runIDContextKey).(string)
	return id, ok && id != ""
}

// WithStage records the pipeline stage on the context.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageContextKey, stage)
}

// StageFromContext reports the pipeline stage recorded on the context, if any.
func StageFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	stage, ok := ctx.Value(stageContextKey).(string)
	return stage, ok && stage != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := ClaimIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldClaimID, id))
	}
	if id, ok := RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if stage, ok := StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
