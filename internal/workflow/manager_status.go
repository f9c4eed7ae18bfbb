package workflow

import (
	"context"

	"claimguard/internal/claims"
	"claimguard/internal/logging"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running    bool
	LastError  string
	LastClaim  *claims.Claim
	QueueStats map[claims.Status]int
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	lastClaim := m.lastClaim
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read queue stats", logging.Error(err))
	}

	summary := StatusSummary{Running: running, QueueStats: stats}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	if lastClaim != nil {
		copy := *lastClaim
		summary.LastClaim = &copy
	}
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastClaim(claim *claims.Claim) {
	m.mu.Lock()
	if claim != nil {
		copy := *claim
		m.lastClaim = &copy
	} else {
		m.lastClaim = nil
	}
	m.mu.Unlock()
}
