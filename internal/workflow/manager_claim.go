package workflow

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"claimguard/internal/claims"
	"claimguard/internal/faults"
	"claimguard/internal/intake"
	"claimguard/internal/logging"
)

func (m *Manager) processClaim(ctx context.Context, workerLogger *slog.Logger, claim *claims.Claim) error {
	runID := uuid.NewString()
	claimCtx := logging.WithRunID(logging.WithClaimID(ctx, claim.ID), runID)
	logger := logging.WithContext(claimCtx, workerLogger)

	start := time.Now()
	logger.Info("claim analysis started",
		logging.String(logging.FieldEventType, "analysis_start"),
		logging.String("document", strings.TrimSpace(claim.SourcePath)),
	)

	result, execErr := m.executeWithHeartbeat(claimCtx, claim)
	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			logger.Debug("analysis interrupted by shutdown")
			return execErr
		}
		m.handleClaimFailure(claimCtx, claim, execErr)
		m.setLastError(execErr)
		return execErr
	}

	// The analyzer committed the final row; refresh the cached copy so status
	// output reflects what readers see.
	if updated, err := m.store.GetClaim(claimCtx, claim.ID); err == nil && updated != nil {
		claim = updated
	}
	m.setLastClaim(claim)

	logger.Info("claim analysis completed",
		logging.String(logging.FieldEventType, "analysis_complete"),
		logging.String("triage", string(result.TriageClass)),
		logging.Float64("risk_score", result.RiskScore),
		logging.Bool("suspicious", result.IsSuspicious),
		logging.Duration("analysis_duration", time.Since(start)),
	)

	m.notifyAnalyzed(claimCtx, result)
	m.checkQueueCompletion(claimCtx)
	return nil
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, claim *claims.Claim) (*claims.AnalysisResult, error) {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, claim.ID)

	result, err := m.analyzeClaim(ctx, claim)
	hbCancel()
	hbWG.Wait()
	return result, err
}

func (m *Manager) analyzeClaim(ctx context.Context, claim *claims.Claim) (*claims.AnalysisResult, error) {
	source := strings.TrimSpace(claim.SourcePath)
	if source == "" {
		return nil, faults.Wrap(faults.ErrInput, "workflow", "load_document", "claim has no archived document", nil)
	}

	extracted, err := intake.DecodeDocument(source)
	if err != nil {
		// A vanished archive is a claim defect, not a retryable glitch.
		if errors.Is(err, fs.ErrNotExist) {
			return nil, faults.Wrap(faults.ErrInput, "workflow", "load_document", "archived document missing: "+source, nil)
		}
		return nil, err
	}

	return m.analyzer.Analyze(ctx, extracted, source)
}
