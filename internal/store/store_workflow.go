package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"claimguard/internal/claims"
)

// ClaimNextPending atomically moves the oldest pending claim to analyzing and
// stamps its heartbeat. Returns nil when the queue is empty. Safe for
// concurrent workers: each pending claim is handed to at most one caller.
func (s *Store) ClaimNextPending(ctx context.Context) (*claims.Claim, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	query := s.rebind(`UPDATE claims
        SET status = ?, last_heartbeat = ?, updated_at = ?, error_message = NULL
        WHERE id = (SELECT id FROM claims WHERE status = ? ORDER BY created_at, id LIMIT 1)
            AND status = ?
        RETURNING ` + claimColumns)
	row := s.db.QueryRowContext(ctx, query,
		string(claims.StatusAnalyzing), now, now,
		string(claims.StatusPending), string(claims.StatusPending),
	)
	c, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim next pending: %w", err)
	}
	return c, nil
}

// UpdateHeartbeat updates the last heartbeat timestamp for an in-flight claim.
func (s *Store) UpdateHeartbeat(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		s.rebind(`UPDATE claims SET last_heartbeat = ?, updated_at = ? WHERE id = ?`),
		now, now, id,
	)
	if err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ResetStuckAnalyzing returns claims left mid-analysis by an unclean shutdown
// back to pending.
func (s *Store) ResetStuckAnalyzing(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		s.rebind(`UPDATE claims
            SET status = ?, last_heartbeat = NULL, error_message = NULL, updated_at = ?
            WHERE status = ?`),
		string(claims.StatusPending),
		time.Now().UTC().Format(time.RFC3339Nano),
		string(claims.StatusAnalyzing),
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck claims: %w", err)
	}
	return res.RowsAffected()
}

// ReclaimStaleAnalyzing requeues analyzing claims whose heartbeat expired
// before the cutoff.
func (s *Store) ReclaimStaleAnalyzing(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		s.rebind(`UPDATE claims
            SET status = ?, last_heartbeat = NULL, updated_at = ?
            WHERE status = ? AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`),
		string(claims.StatusPending),
		time.Now().UTC().Format(time.RFC3339Nano),
		string(claims.StatusAnalyzing),
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale claims: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed moves failed claims back to pending for reprocessing. With no
// arguments every failed claim is retried.
func (s *Store) RetryFailed(ctx context.Context, ids ...string) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if len(ids) == 0 {
		res, err := s.db.ExecContext(
			ctx,
			s.rebind(`UPDATE claims SET status = ?, error_message = NULL, updated_at = ? WHERE status = ?`),
			string(claims.StatusPending), now, string(claims.StatusFailed),
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed claims: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+3)
	args = append(args, string(claims.StatusPending), now)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, string(claims.StatusFailed))
	query := s.rebind(`UPDATE claims SET status = ?, error_message = NULL, updated_at = ?
        WHERE id IN (` + placeholders + `) AND status = ?`)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry selected claims: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of claims grouped by status.
func (s *Store) Stats(ctx context.Context) (map[claims.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM claims GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("claim stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[claims.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[claims.Status(status)] = count
	}
	return stats, rows.Err()
}

// Health aggregates claim state for diagnostic output.
func (s *Store) Health(ctx context.Context) (claims.HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return claims.HealthSummary{}, err
	}
	health := claims.HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case claims.StatusPending:
			health.Pending += count
		case claims.StatusAnalyzing:
			health.Analyzing += count
		case claims.StatusAnalyzed:
			health.Analyzed += count
		case claims.StatusFailed:
			health.Failed += count
		}
	}
	return health, nil
}

// Remove deletes a claim and its dependent rows by identifier.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM claims WHERE id = ?`), id)
	if err != nil {
		return false, fmt.Errorf("delete claim: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Clear removes all claims.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM claims`)
	if err != nil {
		return 0, fmt.Errorf("clear claims: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailed removes only failed claims.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM claims WHERE status = ?`), string(claims.StatusFailed))
	if err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	return res.RowsAffected()
}

// ClearAnalyzed removes only analyzed claims.
func (s *Store) ClearAnalyzed(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM claims WHERE status = ?`), string(claims.StatusAnalyzed))
	if err != nil {
		return 0, fmt.Errorf("clear analyzed: %w", err)
	}
	return res.RowsAffected()
}
