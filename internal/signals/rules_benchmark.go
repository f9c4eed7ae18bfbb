package signals

import (
	"context"
	"fmt"

	"claimguard/internal/claims"
)

const (
	zScoreLimit = 2.5
	// stdFallbackFraction substitutes for a missing standard deviation:
	// benchmarks trained on thin samples store avg only.
	stdFallbackFraction = 0.3
)

// checkBenchmarks compares the claim's amounts against the historical
// benchmark for its (brand, issue type), falling back to the generic row
// inside the store lookup. High outliers signal; low outliers only warn,
// since an unusually cheap repair defrauds nobody.
func (d *Detector) checkBenchmarks(ctx context.Context, in *ruleInput, out *findings) error {
	c := in.claim
	issueType := c.IssueType
	if issueType == "" {
		issueType = claims.ClassifyIssueType(c.IssueDescription)
	}

	bench, err := d.benchmarkFor(ctx, c.Brand, issueType)
	if err != nil {
		return err
	}
	if bench == nil {
		out.warn("no benchmark for brand %q issue type %q", c.Brand, issueType)
		return nil
	}

	if z, ok := zScore(c.TotalAmount, bench.AvgTotal, bench.StdTotal); ok {
		switch {
		case z > zScoreLimit:
			out.add(claims.SignalTotalOutlier, claims.SeverityMedium,
				fmt.Sprintf("Total %.2f is %.1f standard deviations above the %s benchmark", *c.TotalAmount, z, issueType),
				benchmarkEvidence("total_amount", *c.TotalAmount, bench.AvgTotal, bench.StdTotal, z, bench))
		case z < -zScoreLimit:
			out.warn("total %.2f is far below the %s benchmark average %.2f", *c.TotalAmount, issueType, bench.AvgTotal)
		}
	}
	if z, ok := zScore(c.PartsCost, bench.AvgPartsCost, bench.StdPartsCost); ok {
		switch {
		case z > zScoreLimit:
			out.add(claims.SignalPartsOutlier, claims.SeverityLow,
				fmt.Sprintf("Parts cost %.2f is %.1f standard deviations above the %s benchmark", *c.PartsCost, z, issueType),
				benchmarkEvidence("parts_cost", *c.PartsCost, bench.AvgPartsCost, bench.StdPartsCost, z, bench))
		case z < -zScoreLimit:
			out.warn("parts cost %.2f is far below the %s benchmark average %.2f", *c.PartsCost, issueType, bench.AvgPartsCost)
		}
	}
	if z, ok := zScore(c.LaborCost, bench.AvgLaborCost, bench.StdLaborCost); ok {
		switch {
		case z > zScoreLimit:
			out.add(claims.SignalLaborOutlier, claims.SeverityLow,
				fmt.Sprintf("Labor cost %.2f is %.1f standard deviations above the %s benchmark", *c.LaborCost, z, issueType),
				benchmarkEvidence("labor_cost", *c.LaborCost, bench.AvgLaborCost, bench.StdLaborCost, z, bench))
		case z < -zScoreLimit:
			out.warn("labor cost %.2f is far below the %s benchmark average %.2f", *c.LaborCost, issueType, bench.AvgLaborCost)
		}
	}
	return nil
}

// zScore computes (value − avg) / std with the fallback std when the
// benchmark stores none. Reports false when the value is absent or the
// benchmark average gives nothing to compare against.
func zScore(valuePtr *float64, avg, std float64) (float64, bool) {
	if valuePtr == nil || avg <= 0 {
		return 0, false
	}
	if std <= 0 {
		std = stdFallbackFraction * avg
	}
	if std <= 0 {
		return 0, false
	}
	return (*valuePtr - avg) / std, true
}

func benchmarkEvidence(field string, value, avg, std, z float64, bench *claims.Benchmark) map[string]any {
	evidence := map[string]any{
		field:          value,
		"benchmark":    avg,
		"std":          std,
		"z_score":      z,
		"sample_count": bench.SampleCount,
	}
	if bench.Brand != nil {
		evidence["benchmark_brand"] = *bench.Brand
	} else {
		evidence["benchmark_brand"] = "generic"
	}
	return evidence
}
