package workflow

import (
	"context"
	"errors"
	"strings"

	"claimguard/internal/claims"
	"claimguard/internal/faults"
	"claimguard/internal/logging"
)

func (m *Manager) handleClaimFailure(ctx context.Context, claim *claims.Claim, stageErr error) {
	logger := logging.WithContext(ctx, m.logger.With(logging.String(logging.FieldComponent, "workflow-manager")))

	status := faults.FailureStatus(stageErr)
	message := failureMessage(stageErr)

	claim.Status = status
	claim.ErrorMessage = message
	claim.LastHeartbeat = nil

	logger.Error("claim analysis failed", logging.Args(
		logging.String("resolved_status", string(status)),
		logging.String("error_message", message),
		logging.Bool("retryable", faults.Retryable(stageErr)),
		logging.Alert("claim_failure"),
		logging.Error(stageErr),
		logging.String(logging.FieldEventType, "claim_failure"),
	)...)

	if err := m.store.SaveClaim(ctx, claim); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not persist claim failure")
		} else {
			logger.Error("failed to persist claim failure", logging.Error(err))
		}
	}

	m.setLastClaim(claim)
	m.notifyClaimError(ctx, claim, stageErr)
	m.checkQueueCompletion(ctx)
}

func failureMessage(stageErr error) string {
	if stageErr == nil {
		return "analysis failed without error detail"
	}
	message := strings.TrimSpace(stageErr.Error())
	if message == "" {
		return "analysis failed without error detail"
	}
	return message
}
