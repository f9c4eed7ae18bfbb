package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"claimguard/internal/claims"
)

const claimColumns = "id, claim_number, customer_name, dealer_id, dealer_name, vin, brand, model, " +
	"year, odometer, issue_description, issue_type, claim_date, decision_date, " +
	"parts_cost, labor_cost, tax_amount, total_amount, reported_status, rejection_reason, " +
	"raw_text, source_path, status, risk_score, triage_class, is_suspicious, summary, " +
	"signals_json, warnings_json, error_message, created_at, updated_at, analyzed_at, last_heartbeat"

const saveClaimSQL = `INSERT INTO claims (` + claimColumns + `)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    ON CONFLICT (id) DO UPDATE SET
        claim_number = excluded.claim_number,
        customer_name = excluded.customer_name,
        dealer_id = excluded.dealer_id,
        dealer_name = excluded.dealer_name,
        vin = excluded.vin,
        brand = excluded.brand,
        model = excluded.model,
        year = excluded.year,
        odometer = excluded.odometer,
        issue_description = excluded.issue_description,
        issue_type = excluded.issue_type,
        claim_date = excluded.claim_date,
        decision_date = excluded.decision_date,
        parts_cost = excluded.parts_cost,
        labor_cost = excluded.labor_cost,
        tax_amount = excluded.tax_amount,
        total_amount = excluded.total_amount,
        reported_status = excluded.reported_status,
        rejection_reason = excluded.rejection_reason,
        raw_text = excluded.raw_text,
        source_path = excluded.source_path,
        status = excluded.status,
        risk_score = excluded.risk_score,
        triage_class = excluded.triage_class,
        is_suspicious = excluded.is_suspicious,
        summary = excluded.summary,
        signals_json = excluded.signals_json,
        warnings_json = excluded.warnings_json,
        error_message = excluded.error_message,
        updated_at = excluded.updated_at,
        analyzed_at = excluded.analyzed_at,
        last_heartbeat = excluded.last_heartbeat`

// SaveClaim inserts the claim or replaces its derived fields on re-analysis.
// The original created_at is preserved across upserts.
func (s *Store) SaveClaim(ctx context.Context, c *claims.Claim) error {
	return s.saveClaim(ctx, s.db, c)
}

// SaveClaim persists the claim within the transaction.
func (t *Tx) SaveClaim(ctx context.Context, c *claims.Claim) error {
	return t.s.saveClaim(ctx, t.tx, c)
}

func (s *Store) saveClaim(ctx context.Context, q dbtx, c *claims.Claim) error {
	if c == nil {
		return errors.New("claim is nil")
	}
	if c.ID == "" {
		return errors.New("claim id is empty")
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	_, err := q.ExecContext(ctx, s.rebind(saveClaimSQL),
		c.ID,
		nullableString(c.ClaimNumber),
		nullableString(c.CustomerName),
		nullableString(c.DealerID),
		nullableString(c.DealerName),
		nullableString(c.VIN),
		nullableString(c.Brand),
		nullableString(c.Model),
		nullableInt(c.Year),
		nullableInt(c.Odometer),
		nullableString(c.IssueDescription),
		nullableString(c.IssueType),
		nullableString(c.ClaimDate),
		nullableString(c.DecisionDate),
		nullableFloat(c.PartsCost),
		nullableFloat(c.LaborCost),
		nullableFloat(c.TaxAmount),
		nullableFloat(c.TotalAmount),
		nullableString(c.ReportedStatus),
		nullableString(c.RejectionReason),
		nullableString(c.RawText),
		nullableString(c.SourcePath),
		string(c.Status),
		c.RiskScore,
		nullableString(string(c.TriageClass)),
		boolToInt(c.IsSuspicious),
		nullableString(c.Summary),
		nullableString(c.SignalsJSON),
		nullableString(c.WarningsJSON),
		nullableString(c.ErrorMessage),
		c.CreatedAt.Format(time.RFC3339Nano),
		c.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(c.AnalyzedAt),
		nullableTime(c.LastHeartbeat),
	)
	if err != nil {
		return fmt.Errorf("save claim %s: %w", c.ID, err)
	}
	return nil
}

// GetClaim fetches a claim by identifier, returning nil when absent.
func (s *Store) GetClaim(ctx context.Context, id string) (*claims.Claim, error) {
	return s.getClaim(ctx, s.db, id)
}

// GetClaim fetches a claim within the transaction.
func (t *Tx) GetClaim(ctx context.Context, id string) (*claims.Claim, error) {
	return t.s.getClaim(ctx, t.tx, id)
}

func (s *Store) getClaim(ctx context.Context, q dbtx, id string) (*claims.Claim, error) {
	row := q.QueryRowContext(ctx, s.rebind(`SELECT `+claimColumns+` FROM claims WHERE id = ?`), id)
	c, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get claim: %w", err)
	}
	return c, nil
}

// ClaimExists reports whether a claim row with the identifier is present.
func (s *Store) ClaimExists(ctx context.Context, id string) (bool, error) {
	return s.claimExists(ctx, s.db, id)
}

// ClaimExists reports claim presence within the transaction.
func (t *Tx) ClaimExists(ctx context.Context, id string) (bool, error) {
	return t.s.claimExists(ctx, t.tx, id)
}

func (s *Store) claimExists(ctx context.Context, q dbtx, id string) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx, s.rebind(`SELECT COUNT(1) FROM claims WHERE id = ?`), id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("claim exists: %w", err)
	}
	return count > 0, nil
}

// FindClaimsByVIN returns all other claims recorded against a VIN, oldest
// first. Serves claim-level duplicate detection and the repeat-claim and
// odometer rules.
func (s *Store) FindClaimsByVIN(ctx context.Context, vin, excludeClaimID string) ([]*claims.Claim, error) {
	return s.findClaimsByVIN(ctx, s.db, vin, excludeClaimID)
}

// FindClaimsByVIN lists same-VIN claims within the transaction.
func (t *Tx) FindClaimsByVIN(ctx context.Context, vin, excludeClaimID string) ([]*claims.Claim, error) {
	return t.s.findClaimsByVIN(ctx, t.tx, vin, excludeClaimID)
}

func (s *Store) findClaimsByVIN(ctx context.Context, q dbtx, vin, excludeClaimID string) ([]*claims.Claim, error) {
	if vin == "" {
		return nil, nil
	}
	rows, err := q.QueryContext(
		ctx,
		s.rebind(`SELECT `+claimColumns+` FROM claims WHERE vin = ? AND id != ? ORDER BY created_at, id`),
		vin,
		excludeClaimID,
	)
	if err != nil {
		return nil, fmt.Errorf("find claims by vin: %w", err)
	}
	defer rows.Close()
	return collectClaims(rows)
}

// ClaimsByStatus returns claims matching a status ordered by creation time.
func (s *Store) ClaimsByStatus(ctx context.Context, status claims.Status) ([]*claims.Claim, error) {
	rows, err := s.db.QueryContext(
		ctx,
		s.rebind(`SELECT `+claimColumns+` FROM claims WHERE status = ? ORDER BY created_at, id`),
		string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("query by status: %w", err)
	}
	defer rows.Close()
	return collectClaims(rows)
}

// List returns claims filtered by status set, or all claims when no status
// is provided.
func (s *Store) List(ctx context.Context, statuses ...claims.Status) ([]*claims.Claim, error) {
	baseQuery := `SELECT ` + claimColumns + ` FROM claims`
	orderClause := ` ORDER BY created_at, id`

	var (
		rows *sql.Rows
		err  error
	)
	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = string(status)
		}
		rows, err = s.db.QueryContext(ctx, s.rebind(baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause), args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()
	return collectClaims(rows)
}

func collectClaims(rows *sql.Rows) ([]*claims.Claim, error) {
	var out []*claims.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanClaim(scanner interface{ Scan(dest ...any) error }) (*claims.Claim, error) {
	var (
		id               string
		claimNumber      sql.NullString
		customerName     sql.NullString
		dealerID         sql.NullString
		dealerName       sql.NullString
		vin              sql.NullString
		brand            sql.NullString
		model            sql.NullString
		year             sql.NullInt64
		odometer         sql.NullInt64
		issueDescription sql.NullString
		issueType        sql.NullString
		claimDate        sql.NullString
		decisionDate     sql.NullString
		partsCost        sql.NullFloat64
		laborCost        sql.NullFloat64
		taxAmount        sql.NullFloat64
		totalAmount      sql.NullFloat64
		reportedStatus   sql.NullString
		rejectionReason  sql.NullString
		rawText          sql.NullString
		sourcePath       sql.NullString
		statusStr        string
		riskScore        sql.NullFloat64
		triageClass      sql.NullString
		isSuspicious     sql.NullInt64
		summary          sql.NullString
		signalsJSON      sql.NullString
		warningsJSON     sql.NullString
		errorMessage     sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		analyzedRaw      sql.NullString
		heartbeatRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&claimNumber,
		&customerName,
		&dealerID,
		&dealerName,
		&vin,
		&brand,
		&model,
		&year,
		&odometer,
		&issueDescription,
		&issueType,
		&claimDate,
		&decisionDate,
		&partsCost,
		&laborCost,
		&taxAmount,
		&totalAmount,
		&reportedStatus,
		&rejectionReason,
		&rawText,
		&sourcePath,
		&statusStr,
		&riskScore,
		&triageClass,
		&isSuspicious,
		&summary,
		&signalsJSON,
		&warningsJSON,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&analyzedRaw,
		&heartbeatRaw,
	); err != nil {
		return nil, err
	}

	c := &claims.Claim{
		ID:               id,
		ClaimNumber:      claimNumber.String,
		CustomerName:     customerName.String,
		DealerID:         dealerID.String,
		DealerName:       dealerName.String,
		VIN:              vin.String,
		Brand:            brand.String,
		Model:            model.String,
		Year:             intPtr(year),
		Odometer:         intPtr(odometer),
		IssueDescription: issueDescription.String,
		IssueType:        issueType.String,
		ClaimDate:        claimDate.String,
		DecisionDate:     decisionDate.String,
		PartsCost:        floatPtr(partsCost),
		LaborCost:        floatPtr(laborCost),
		TaxAmount:        floatPtr(taxAmount),
		TotalAmount:      floatPtr(totalAmount),
		ReportedStatus:   reportedStatus.String,
		RejectionReason:  rejectionReason.String,
		RawText:          rawText.String,
		SourcePath:       sourcePath.String,
		Status:           claims.Status(statusStr),
		RiskScore:        riskScore.Float64,
		TriageClass:      claims.TriageClass(triageClass.String),
		Summary:          summary.String,
		SignalsJSON:      signalsJSON.String,
		WarningsJSON:     warningsJSON.String,
		ErrorMessage:     errorMessage.String,
		AnalyzedAt:       timePtr(analyzedRaw),
		LastHeartbeat:    timePtr(heartbeatRaw),
	}
	if isSuspicious.Valid {
		c.IsSuspicious = isSuspicious.Int64 != 0
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		c.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		c.UpdatedAt = updated
	}
	return c, nil
}
