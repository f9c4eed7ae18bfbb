package signals

import (
	"fmt"
	"math"

	"claimguard/internal/claims"
)

// roundTotalFloor keeps the round-number rule quiet on small claims, where
// integral amounts are unremarkable.
const roundTotalFloor = 100.0

// checkPatterns looks for the numeric fingerprints of fabricated invoices:
// suspiciously round totals, copy-pasted cents, and labor-free repairs that
// cannot be labor-free.
func checkPatterns(in *ruleInput, out *findings) {
	c := in.claim

	if c.TotalAmount != nil {
		total := *c.TotalAmount
		if total > roundTotalFloor && total == math.Trunc(total) {
			out.add(claims.SignalRoundTotal, claims.SeverityLow,
				fmt.Sprintf("Total is a round %.0f", total),
				map[string]any{"total_amount": total})
		}
	}

	if c.PartsCost != nil && c.LaborCost != nil && c.TaxAmount != nil {
		partsCents := cents(*c.PartsCost)
		laborCents := cents(*c.LaborCost)
		taxCents := cents(*c.TaxAmount)
		if partsCents != 0 && partsCents == laborCents && laborCents == taxCents {
			out.add(claims.SignalIdenticalCents, claims.SeverityLow,
				fmt.Sprintf("Parts, labor, and tax all end in .%02d", partsCents),
				map[string]any{
					"cents":      partsCents,
					"parts_cost": *c.PartsCost,
					"labor_cost": *c.LaborCost,
					"tax_amount": *c.TaxAmount,
				})
		}
	}

	if c.LaborCost != nil && *c.LaborCost == 0 && claims.IsComplexRepair(c.IssueDescription) {
		out.add(claims.SignalZeroLaborComplex, claims.SeverityMedium,
			"Zero labor cost on a drivetrain or chassis repair",
			map[string]any{"labor_cost": 0.0, "issue_description": c.IssueDescription})
	}
}

// cents extracts the fractional cents of an amount, rounded to absorb float
// representation error.
func cents(amount float64) int {
	amount = math.Abs(amount)
	frac := amount - math.Floor(amount)
	return int(math.Round(frac*100)) % 100
}
