package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"claimguard/internal/faults"
	"claimguard/internal/intake"
	"claimguard/internal/logging"
)

// Start begins background processing: the intake watcher, its ingest
// consumer, and the analysis worker pool.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.mu.Unlock()

	// Claims left mid-analysis by an unclean shutdown go back to the pending
	// pool before any worker starts competing for them.
	if requeued, err := m.store.ResetStuckAnalyzing(runCtx); err != nil {
		logging.WarnWithContext(m.logger, "could not requeue interrupted claims", "startup_requeue_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check claim database access"),
		)
	} else if requeued > 0 {
		m.logger.Info("requeued claims interrupted by previous shutdown", logging.Int64("count", requeued))
	}

	watcher := intake.NewWatcher(m.cfg.Paths.IntakeDir, m.logger)

	m.wg.Add(2 + m.workers)
	go m.runWatcher(runCtx, watcher)
	go m.runIntake(runCtx, watcher.Paths())
	for i := 0; i < m.workers; i++ {
		go m.runWorker(runCtx, i)
	}

	return nil
}

// Stop terminates background processing and waits for completion. In-flight
// claims are returned to pending so the next start resumes them.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()

	ctx, release := context.WithTimeout(context.Background(), 5*time.Second)
	defer release()
	if requeued, err := m.store.ResetStuckAnalyzing(ctx); err != nil {
		logging.WarnWithContext(m.logger, "could not requeue in-flight claims on shutdown", "shutdown_requeue_failed",
			logging.Error(err),
		)
	} else if requeued > 0 {
		m.logger.Info("requeued in-flight claims for next start", logging.Int64("count", requeued))
	}
}

func (m *Manager) runWatcher(ctx context.Context, watcher *intake.Watcher) {
	defer m.wg.Done()
	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		m.setLastError(err)
		logging.ErrorWithContext(m.logger, "intake watcher stopped", "intake_watch_stopped",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "restart the daemon or drain the spool with the intake command"),
		)
		m.notifyWorkflowError(ctx, err, "intake watcher")
	}
}

func (m *Manager) runIntake(ctx context.Context, paths <-chan string) {
	defer m.wg.Done()
	logger := m.logger.With(logging.String(logging.FieldComponent, "workflow-intake"))

	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-paths:
			if !ok {
				return
			}
			if _, err := m.ingestor.Ingest(ctx, path); err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				m.handleIntakeError(logger, path, err)
			}
		}
	}
}

func (m *Manager) handleIntakeError(logger *slog.Logger, path string, err error) {
	switch {
	case errors.Is(err, faults.ErrInput):
		// The ingestor already parked the document in the failed spool.
		logger.Debug("document rejected", logging.String("document", path), logging.Error(err))
	case faults.Retryable(err):
		// The document stays in (or was returned to) the spool; the watcher
		// rescan hands it back later.
		logging.WarnWithContext(logger, "document ingest deferred", "intake_deferred",
			logging.String("document", path),
			logging.Error(err),
		)
	default:
		m.setLastError(err)
		logging.ErrorWithContext(logger, "document ingest failed", "intake_failed",
			logging.String("document", path),
			logging.Error(err),
		)
	}
}

func (m *Manager) runWorker(ctx context.Context, index int) {
	defer m.wg.Done()
	logger := m.logger.With(
		logging.String(logging.FieldComponent, "workflow-worker"),
		logging.Int("worker", index),
	)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// Worker 0 doubles as the janitor for expired heartbeats.
		if index == 0 {
			if err := m.heartbeat.ReclaimStale(ctx, logger); err != nil && !errors.Is(err, context.Canceled) {
				logging.WarnWithContext(logger, "reclaim of stale claims failed; stuck claims may remain", "heartbeat_reclaim_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check claim database access"),
				)
			}
		}

		claim, err := m.store.ClaimNextPending(ctx)
		if err != nil {
			m.handleQueueError(ctx, logger, err)
			continue
		}
		if claim == nil {
			m.waitForClaimOrShutdown(ctx)
			continue
		}

		m.onClaimStarted(ctx)
		if err := m.processClaim(ctx, logger, claim); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			if faults.Retryable(err) {
				// The claim went back to pending; wait before touching the
				// queue again so a persistent store outage cannot hot-loop.
				m.waitForRetryWindow(ctx)
			}
		}
	}
}

func (m *Manager) handleQueueError(ctx context.Context, logger *slog.Logger, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	m.setLastError(err)
	logging.ErrorWithContext(logger, "failed to fetch next pending claim", "queue_fetch_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check claim database access"),
	)
	m.waitForRetryWindow(ctx)
}

func (m *Manager) waitForClaimOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(m.pollInterval):
	}
}

func (m *Manager) waitForRetryWindow(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(m.cfg.Workflow.ErrorRetryInterval) * time.Second):
	}
}
