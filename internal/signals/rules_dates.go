package signals

import (
	"fmt"

	"claimguard/internal/claims"
)

const (
	oldVehicleYears   = 10
	slowProcessingDay = 180
)

// checkDates validates the claim's timeline: filing dates in the future,
// vehicles older than the warranty horizon, claims predating manufacture,
// and decisions recorded before the claim existed.
func checkDates(in *ruleInput, out *findings) {
	c := in.claim

	if c.ClaimDate != "" && !in.claimDateOK {
		out.warn("claim date %q is not parseable", c.ClaimDate)
	}
	if c.DecisionDate != "" && !in.decisionDateOK {
		out.warn("decision date %q is not parseable", c.DecisionDate)
	}

	if in.claimDateOK && in.claimDate.After(in.now) {
		out.add(claims.SignalFutureClaimDate, claims.SeverityHigh,
			fmt.Sprintf("Claim is dated %s, in the future", c.ClaimDate),
			map[string]any{"claim_date": c.ClaimDate})
	}

	if in.claimDateOK && c.Year != nil {
		age := in.claimDate.Year() - *c.Year
		switch {
		case age < 0:
			out.add(claims.SignalClaimBeforeMfg, claims.SeverityHigh,
				fmt.Sprintf("Claim dated %s predates the %d model year", c.ClaimDate, *c.Year),
				map[string]any{"claim_date": c.ClaimDate, "vehicle_year": *c.Year, "age_years": age})
		case age > oldVehicleYears:
			out.add(claims.SignalOldVehicle, claims.SeverityMedium,
				fmt.Sprintf("Vehicle was %d years old at claim time", age),
				map[string]any{"claim_date": c.ClaimDate, "vehicle_year": *c.Year, "age_years": age})
		}
	}

	if in.claimDateOK && in.decisionDateOK {
		if in.decisionDate.Before(in.claimDate) {
			out.add(claims.SignalDecisionBeforeClaim, claims.SeverityHigh,
				fmt.Sprintf("Decision dated %s precedes the claim dated %s", c.DecisionDate, c.ClaimDate),
				map[string]any{"claim_date": c.ClaimDate, "decision_date": c.DecisionDate})
		} else if days := claims.DaysBetween(in.claimDate, in.decisionDate); days > slowProcessingDay {
			out.warn("decision took %d days", days)
		}
	}
}
