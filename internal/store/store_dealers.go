package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"claimguard/internal/claims"
)

const dealerColumns = "dealer_id, dealer_name, total_claims, flagged_claims, fraud_confirmed, " +
	"duplicate_claims, avg_claim_amount, total_amount, updated_at"

// GetDealerStatistics returns the aggregates for a dealer, or nil when the
// dealer has no recorded history.
func (s *Store) GetDealerStatistics(ctx context.Context, dealerID string) (*claims.DealerStatistics, error) {
	return s.getDealerStatistics(ctx, s.db, dealerID)
}

// GetDealerStatistics performs the dealer lookup within the transaction.
func (t *Tx) GetDealerStatistics(ctx context.Context, dealerID string) (*claims.DealerStatistics, error) {
	return t.s.getDealerStatistics(ctx, t.tx, dealerID)
}

func (s *Store) getDealerStatistics(ctx context.Context, q dbtx, dealerID string) (*claims.DealerStatistics, error) {
	if dealerID == "" {
		return nil, nil
	}
	row := q.QueryRowContext(
		ctx,
		s.rebind(`SELECT `+dealerColumns+` FROM dealer_statistics WHERE dealer_id = ?`),
		dealerID,
	)
	stats, err := scanDealerStats(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get dealer statistics: %w", err)
	}
	return stats, nil
}

// UpdateDealerStatistics recomputes a dealer's aggregates from the claims and
// duplicate-match tables and upserts the row. The fraud_confirmed counter is
// written by the external case-outcome feed and is preserved across updates.
func (s *Store) UpdateDealerStatistics(ctx context.Context, dealerID, dealerName string) error {
	return s.updateDealerStatistics(ctx, s.db, dealerID, dealerName)
}

// UpdateDealerStatistics recomputes the dealer row within the transaction.
func (t *Tx) UpdateDealerStatistics(ctx context.Context, dealerID, dealerName string) error {
	return t.s.updateDealerStatistics(ctx, t.tx, dealerID, dealerName)
}

func (s *Store) updateDealerStatistics(ctx context.Context, q dbtx, dealerID, dealerName string) error {
	if dealerID == "" {
		return errors.New("dealer id is empty")
	}

	var (
		totalClaims   int
		flaggedClaims int
		totalAmount   float64
		avgAmount     float64
	)
	err := q.QueryRowContext(
		ctx,
		s.rebind(`SELECT COUNT(1),
            COALESCE(SUM(CASE WHEN is_suspicious != 0 THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(total_amount), 0),
            COALESCE(AVG(total_amount), 0)
        FROM claims WHERE dealer_id = ?`),
		dealerID,
	).Scan(&totalClaims, &flaggedClaims, &totalAmount, &avgAmount)
	if err != nil {
		return fmt.Errorf("aggregate dealer claims: %w", err)
	}

	var duplicateClaims int
	err = q.QueryRowContext(
		ctx,
		s.rebind(`SELECT COUNT(DISTINCT duplicate_matches.claim_id)
        FROM duplicate_matches
        JOIN claims ON claims.id = duplicate_matches.claim_id
        WHERE claims.dealer_id = ?`),
		dealerID,
	).Scan(&duplicateClaims)
	if err != nil {
		return fmt.Errorf("aggregate dealer duplicates: %w", err)
	}

	query := s.rebind(`INSERT INTO dealer_statistics (
        dealer_id, dealer_name, total_claims, flagged_claims, fraud_confirmed,
        duplicate_claims, avg_claim_amount, total_amount, updated_at
    ) VALUES (?, ?, ?, ?, 0, ?, ?, ?, ?)
    ON CONFLICT (dealer_id) DO UPDATE SET
        dealer_name = excluded.dealer_name,
        total_claims = excluded.total_claims,
        flagged_claims = excluded.flagged_claims,
        duplicate_claims = excluded.duplicate_claims,
        avg_claim_amount = excluded.avg_claim_amount,
        total_amount = excluded.total_amount,
        updated_at = excluded.updated_at`)
	_, err = q.ExecContext(ctx, query,
		dealerID,
		nullableString(dealerName),
		totalClaims,
		flaggedClaims,
		duplicateClaims,
		avgAmount,
		totalAmount,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert dealer statistics: %w", err)
	}
	return nil
}

// SetFraudConfirmed records the externally confirmed fraud count for a
// dealer. The row must already exist.
func (s *Store) SetFraudConfirmed(ctx context.Context, dealerID string, count int) error {
	res, err := s.db.ExecContext(
		ctx,
		s.rebind(`UPDATE dealer_statistics SET fraud_confirmed = ?, updated_at = ? WHERE dealer_id = ?`),
		count,
		time.Now().UTC().Format(time.RFC3339Nano),
		dealerID,
	)
	if err != nil {
		return fmt.Errorf("set fraud confirmed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("dealer %s has no statistics row", dealerID)
	}
	return nil
}

// ListDealerStatistics returns every dealer row ordered by claim volume.
func (s *Store) ListDealerStatistics(ctx context.Context) ([]*claims.DealerStatistics, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+dealerColumns+` FROM dealer_statistics ORDER BY total_claims DESC, dealer_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list dealer statistics: %w", err)
	}
	defer rows.Close()

	var stats []*claims.DealerStatistics
	for rows.Next() {
		d, err := scanDealerStats(rows)
		if err != nil {
			return nil, err
		}
		stats = append(stats, d)
	}
	return stats, rows.Err()
}

func scanDealerStats(scanner interface{ Scan(dest ...any) error }) (*claims.DealerStatistics, error) {
	var (
		dealerID        string
		dealerName      sql.NullString
		totalClaims     int
		flaggedClaims   int
		fraudConfirmed  int
		duplicateClaims int
		avgClaimAmount  float64
		totalAmount     float64
		updatedRaw      sql.NullString
	)

	if err := scanner.Scan(
		&dealerID,
		&dealerName,
		&totalClaims,
		&flaggedClaims,
		&fraudConfirmed,
		&duplicateClaims,
		&avgClaimAmount,
		&totalAmount,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	stats := &claims.DealerStatistics{
		DealerID:        dealerID,
		DealerName:      dealerName.String,
		TotalClaims:     totalClaims,
		FlaggedClaims:   flaggedClaims,
		FraudConfirmed:  fraudConfirmed,
		DuplicateClaims: duplicateClaims,
		AvgClaimAmount:  avgClaimAmount,
		TotalAmount:     totalAmount,
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		stats.UpdatedAt = updated
	}
	return stats, nil
}
