package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"claimguard/internal/claims"
	"claimguard/internal/logging"
)

func (m *Manager) notifyAnalyzed(ctx context.Context, result *claims.AnalysisResult) {
	if m.notifier == nil || result == nil {
		return
	}
	logger := logging.WithContext(ctx, m.logger.With(logging.String(logging.FieldComponent, "workflow-manager")))
	if err := m.notifier.NotifyAnalysisComplete(ctx, result.ClaimID, result.TriageClass, result.RiskScore); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not send analysis notification")
		} else {
			logger.Debug("analysis notification failed", logging.Error(err))
		}
	}
	if result.TriageClass != claims.TriageInvestigate {
		return
	}
	if err := m.notifier.NotifyInvestigation(ctx, result.ClaimID, result.Summary); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not send investigation notification")
		} else {
			logger.Debug("investigation notification failed", logging.Error(err))
		}
	}
}

func (m *Manager) notifyClaimError(ctx context.Context, claim *claims.Claim, stageErr error) {
	if m.notifier == nil || stageErr == nil {
		return
	}
	logger := logging.WithContext(ctx, m.logger.With(logging.String(logging.FieldComponent, "workflow-manager")))
	if err := m.notifier.NotifyError(ctx, stageErr, fmt.Sprintf("claim %s", claim.ID)); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not send error notification")
		} else {
			logger.Debug("claim error notification failed", logging.Error(err))
		}
	}
}

func (m *Manager) notifyWorkflowError(ctx context.Context, workflowErr error, contextLabel string) {
	if m.notifier == nil || workflowErr == nil {
		return
	}
	if err := m.notifier.NotifyError(ctx, workflowErr, contextLabel); err != nil && !errors.Is(err, context.Canceled) {
		m.logger.Debug("workflow error notification failed", logging.Error(err))
	}
}

func (m *Manager) onClaimStarted(ctx context.Context) {
	if m.notifier == nil {
		return
	}
	stats, err := m.store.Stats(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			m.logger.Debug("daemon shutting down, could not read queue stats for start notification")
		} else {
			logging.WarnWithContext(m.logger, "queue stats unavailable; start notification skipped", "queue_stats_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check claim database access"),
			)
		}
		return
	}
	m.mu.Lock()
	if m.queueActive {
		m.mu.Unlock()
		return
	}
	m.queueActive = true
	m.queueStart = time.Now()
	m.mu.Unlock()

	if err := m.notifier.NotifyBatchStarted(ctx, countActiveClaims(stats)); err != nil {
		if errors.Is(err, context.Canceled) {
			m.logger.Debug("daemon shutting down, could not send batch start notification")
		} else {
			m.logger.Debug("batch start notification failed", logging.Error(err))
		}
	}
}

func (m *Manager) checkQueueCompletion(ctx context.Context) {
	if m.notifier == nil {
		return
	}
	stats, err := m.store.Stats(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			m.logger.Debug("daemon shutting down, could not check queue completion")
		} else {
			logging.WarnWithContext(m.logger, "queue stats unavailable; completion notification skipped", "queue_stats_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check claim database access"),
			)
		}
		return
	}
	if countActiveClaims(stats) > 0 {
		return
	}

	m.mu.Lock()
	if !m.queueActive {
		m.mu.Unlock()
		return
	}
	start := m.queueStart
	m.queueActive = false
	m.queueStart = time.Time{}
	m.mu.Unlock()

	duration := time.Duration(0)
	if !start.IsZero() {
		duration = time.Since(start)
	}
	if err := m.notifier.NotifyBatchCompleted(ctx, stats[claims.StatusAnalyzed], stats[claims.StatusFailed], duration); err != nil {
		if errors.Is(err, context.Canceled) {
			m.logger.Debug("daemon shutting down, could not send batch completion notification")
		} else {
			m.logger.Debug("batch completion notification failed", logging.Error(err))
		}
	}
}

func countActiveClaims(stats map[claims.Status]int) int {
	return stats[claims.StatusPending] + stats[claims.StatusAnalyzing]
}
