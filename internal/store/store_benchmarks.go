package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"claimguard/internal/claims"
)

const benchmarkColumns = "id, brand, issue_type, avg_parts_cost, std_parts_cost, avg_labor_cost, std_labor_cost, " +
	"avg_total, std_total, min_total, max_total, avg_labor_ratio, avg_tax_rate, sample_count, updated_at"

// SaveBenchmark upserts one (brand, issue type) benchmark row. Brand and
// issue type are stored lowercase; an empty brand is the generic fallback.
func (s *Store) SaveBenchmark(ctx context.Context, b *claims.Benchmark) error {
	if b == nil {
		return errors.New("benchmark is nil")
	}
	if strings.TrimSpace(b.IssueType) == "" {
		return errors.New("benchmark issue type is empty")
	}
	brand := ""
	if b.Brand != nil {
		brand = strings.ToLower(strings.TrimSpace(*b.Brand))
	}
	issueType := strings.ToLower(strings.TrimSpace(b.IssueType))
	b.UpdatedAt = time.Now().UTC()

	query := s.rebind(`INSERT INTO benchmarks (
        brand, issue_type, avg_parts_cost, std_parts_cost, avg_labor_cost, std_labor_cost,
        avg_total, std_total, min_total, max_total, avg_labor_ratio, avg_tax_rate,
        sample_count, updated_at
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    ON CONFLICT (brand, issue_type) DO UPDATE SET
        avg_parts_cost = excluded.avg_parts_cost,
        std_parts_cost = excluded.std_parts_cost,
        avg_labor_cost = excluded.avg_labor_cost,
        std_labor_cost = excluded.std_labor_cost,
        avg_total = excluded.avg_total,
        std_total = excluded.std_total,
        min_total = excluded.min_total,
        max_total = excluded.max_total,
        avg_labor_ratio = excluded.avg_labor_ratio,
        avg_tax_rate = excluded.avg_tax_rate,
        sample_count = excluded.sample_count,
        updated_at = excluded.updated_at`)
	_, err := s.db.ExecContext(ctx, query,
		brand,
		issueType,
		b.AvgPartsCost,
		b.StdPartsCost,
		b.AvgLaborCost,
		b.StdLaborCost,
		b.AvgTotal,
		b.StdTotal,
		b.MinTotal,
		b.MaxTotal,
		b.AvgLaborRatio,
		b.AvgTaxRate,
		b.SampleCount,
		b.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save benchmark: %w", err)
	}
	return nil
}

// GetBenchmark returns the benchmark for a (brand, issue type) pair,
// preferring the brand-specific row and falling back to the generic one.
// Returns nil when neither exists.
func (s *Store) GetBenchmark(ctx context.Context, brand, issueType string) (*claims.Benchmark, error) {
	return s.getBenchmark(ctx, s.db, brand, issueType)
}

// GetBenchmark performs the benchmark lookup within the transaction.
func (t *Tx) GetBenchmark(ctx context.Context, brand, issueType string) (*claims.Benchmark, error) {
	return t.s.getBenchmark(ctx, t.tx, brand, issueType)
}

func (s *Store) getBenchmark(ctx context.Context, q dbtx, brand, issueType string) (*claims.Benchmark, error) {
	issueType = strings.ToLower(strings.TrimSpace(issueType))
	if issueType == "" {
		return nil, nil
	}
	brand = strings.ToLower(strings.TrimSpace(brand))

	row := q.QueryRowContext(
		ctx,
		s.rebind(`SELECT `+benchmarkColumns+` FROM benchmarks
            WHERE issue_type = ? AND (brand = ? OR brand = '')
            ORDER BY CASE WHEN brand = '' THEN 1 ELSE 0 END
            LIMIT 1`),
		issueType,
		brand,
	)
	b, err := scanBenchmark(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get benchmark: %w", err)
	}
	return b, nil
}

// ListBenchmarks returns every benchmark row grouped by issue type, generic
// rows last within each group.
func (s *Store) ListBenchmarks(ctx context.Context) ([]*claims.Benchmark, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+benchmarkColumns+` FROM benchmarks
            ORDER BY issue_type, CASE WHEN brand = '' THEN 1 ELSE 0 END, brand`,
	)
	if err != nil {
		return nil, fmt.Errorf("list benchmarks: %w", err)
	}
	defer rows.Close()

	var benchmarks []*claims.Benchmark
	for rows.Next() {
		b, err := scanBenchmark(rows)
		if err != nil {
			return nil, err
		}
		benchmarks = append(benchmarks, b)
	}
	return benchmarks, rows.Err()
}

func scanBenchmark(scanner interface{ Scan(dest ...any) error }) (*claims.Benchmark, error) {
	var (
		id            int64
		brand         sql.NullString
		issueType     string
		avgParts      float64
		stdParts      float64
		avgLabor      float64
		stdLabor      float64
		avgTotal      float64
		stdTotal      float64
		minTotal      float64
		maxTotal      float64
		avgLaborRatio float64
		avgTaxRate    float64
		sampleCount   int
		updatedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&brand,
		&issueType,
		&avgParts,
		&stdParts,
		&avgLabor,
		&stdLabor,
		&avgTotal,
		&stdTotal,
		&minTotal,
		&maxTotal,
		&avgLaborRatio,
		&avgTaxRate,
		&sampleCount,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	b := &claims.Benchmark{
		ID:            id,
		IssueType:     issueType,
		AvgPartsCost:  avgParts,
		StdPartsCost:  stdParts,
		AvgLaborCost:  avgLabor,
		StdLaborCost:  stdLabor,
		AvgTotal:      avgTotal,
		StdTotal:      stdTotal,
		MinTotal:      minTotal,
		MaxTotal:      maxTotal,
		AvgLaborRatio: avgLaborRatio,
		AvgTaxRate:    avgTaxRate,
		SampleCount:   sampleCount,
	}
	if brand.Valid && brand.String != "" {
		value := brand.String
		b.Brand = &value
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		b.UpdatedAt = updated
	}
	return b, nil
}
