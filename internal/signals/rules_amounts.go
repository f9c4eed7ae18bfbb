package signals

import (
	"fmt"
	"math"

	"claimguard/internal/claims"
)

// Arithmetic cutoffs. The mismatch tolerance absorbs rounding in the source
// documents; the ratio and tax-rate bars come from the historical claim
// corpus.
const (
	totalTolerance = 1.00
	laborRatioHigh = 2.0
	laborRatioLow  = 0.1
	taxRateLimit   = 0.15
)

// checkAmounts validates the claim's arithmetic: negative components, totals
// that do not add up, and out-of-band cost ratios.
func checkAmounts(in *ruleInput, out *findings) {
	c := in.claim

	if c.TaxAmount != nil && *c.TaxAmount < 0 {
		out.add(claims.SignalNegativeTax, claims.SeverityHigh,
			fmt.Sprintf("Tax amount is negative: %.2f", *c.TaxAmount),
			map[string]any{"tax_amount": *c.TaxAmount})
	}
	if c.PartsCost != nil && *c.PartsCost < 0 {
		out.add(claims.SignalNegativeParts, claims.SeverityHigh,
			fmt.Sprintf("Parts cost is negative: %.2f", *c.PartsCost),
			map[string]any{"parts_cost": *c.PartsCost})
	}
	if c.LaborCost != nil && *c.LaborCost < 0 {
		out.add(claims.SignalNegativeLabor, claims.SeverityHigh,
			fmt.Sprintf("Labor cost is negative: %.2f", *c.LaborCost),
			map[string]any{"labor_cost": *c.LaborCost})
	}

	if c.PartsCost != nil && c.LaborCost != nil && c.TaxAmount != nil && c.TotalAmount != nil {
		sum := *c.PartsCost + *c.LaborCost + *c.TaxAmount
		diff := math.Abs(sum - *c.TotalAmount)
		if diff > totalTolerance {
			out.add(claims.SignalTotalMismatch, claims.SeverityMedium,
				fmt.Sprintf("Components sum to %.2f but total is %.2f (difference %.2f)", sum, *c.TotalAmount, diff),
				map[string]any{
					"parts_cost":   *c.PartsCost,
					"labor_cost":   *c.LaborCost,
					"tax_amount":   *c.TaxAmount,
					"computed_sum": sum,
					"total_amount": *c.TotalAmount,
					"difference":   diff,
				})
		}
	}

	if c.PartsCost != nil && c.LaborCost != nil && *c.PartsCost > 0 {
		ratio := *c.LaborCost / *c.PartsCost
		switch {
		case ratio > laborRatioHigh:
			out.add(claims.SignalLaborPartsRatio, claims.SeverityMedium,
				fmt.Sprintf("Labor is %.1fx the parts cost", ratio),
				map[string]any{
					"parts_cost": *c.PartsCost,
					"labor_cost": *c.LaborCost,
					"ratio":      ratio,
				})
		case ratio < laborRatioLow:
			out.warn("labor cost %.2f is under 10%% of parts cost %.2f", *c.LaborCost, *c.PartsCost)
		}
	}

	if c.TaxAmount != nil && *c.TaxAmount > 0 {
		base := value(c.PartsCost) + value(c.LaborCost)
		if base > 0 {
			rate := *c.TaxAmount / base
			if rate > taxRateLimit {
				out.add(claims.SignalExcessiveTaxRate, claims.SeverityMedium,
					fmt.Sprintf("Tax is %.1f%% of parts plus labor", rate*100),
					map[string]any{
						"tax_amount": *c.TaxAmount,
						"base":       base,
						"tax_rate":   rate,
					})
			}
		}
	}
}
