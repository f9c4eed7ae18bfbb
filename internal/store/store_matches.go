package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"claimguard/internal/claims"
)

const matchColumns = "id, claim_id, matched_claim_id, kind, similarity, image_index, matched_index, details, created_at"

// SaveDuplicateMatch appends one detected duplicate pair. Matches are never
// deduplicated: reruns record the same pair again.
func (s *Store) SaveDuplicateMatch(ctx context.Context, m *claims.DuplicateMatch) error {
	return s.saveDuplicateMatch(ctx, s.db, m)
}

// SaveDuplicateMatch appends the match within the transaction.
func (t *Tx) SaveDuplicateMatch(ctx context.Context, m *claims.DuplicateMatch) error {
	return t.s.saveDuplicateMatch(ctx, t.tx, m)
}

func (s *Store) saveDuplicateMatch(ctx context.Context, q dbtx, m *claims.DuplicateMatch) error {
	if m == nil {
		return errors.New("match is nil")
	}
	if m.ClaimID == "" || m.MatchedClaimID == "" {
		return errors.New("match claim ids are empty")
	}
	if m.ClaimID == m.MatchedClaimID {
		return fmt.Errorf("claim %s cannot match itself", m.ClaimID)
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	query := s.rebind(`INSERT INTO duplicate_matches (
        claim_id, matched_claim_id, kind, similarity, image_index, matched_index, details, created_at
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err := q.QueryRowContext(ctx, query,
		m.ClaimID,
		m.MatchedClaimID,
		string(m.Kind),
		m.Similarity,
		nullableInt(m.ImageIndex),
		nullableInt(m.MatchedIndex),
		nullableString(m.Details),
		m.CreatedAt.Format(time.RFC3339Nano),
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("save duplicate match: %w", err)
	}
	return nil
}

// MatchesForClaim returns the duplicate matches recorded for a claim in
// detection order.
func (s *Store) MatchesForClaim(ctx context.Context, claimID string) ([]*claims.DuplicateMatch, error) {
	rows, err := s.db.QueryContext(
		ctx,
		s.rebind(`SELECT `+matchColumns+` FROM duplicate_matches WHERE claim_id = ? ORDER BY created_at, id`),
		claimID,
	)
	if err != nil {
		return nil, fmt.Errorf("matches for claim: %w", err)
	}
	defer rows.Close()

	var matches []*claims.DuplicateMatch
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func scanMatch(scanner interface{ Scan(dest ...any) error }) (*claims.DuplicateMatch, error) {
	var (
		id             int64
		claimID        string
		matchedClaimID string
		kind           string
		similarity     float64
		imageIndex     sql.NullInt64
		matchedIndex   sql.NullInt64
		details        sql.NullString
		createdRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&claimID,
		&matchedClaimID,
		&kind,
		&similarity,
		&imageIndex,
		&matchedIndex,
		&details,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	m := &claims.DuplicateMatch{
		ID:             id,
		ClaimID:        claimID,
		MatchedClaimID: matchedClaimID,
		Kind:           claims.MatchKind(kind),
		Similarity:     similarity,
		ImageIndex:     intPtr(imageIndex),
		MatchedIndex:   intPtr(matchedIndex),
		Details:        details.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		m.CreatedAt = created
	}
	return m, nil
}
