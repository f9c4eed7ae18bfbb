package signals

import (
	"context"
	"fmt"

	"claimguard/internal/claims"
	"claimguard/internal/faults"
	"claimguard/internal/textutil"
)

const (
	multipleClaimsAt  = 2
	excessiveClaimsAt = 3
	repeatSharedWords = 2
)

// checkHistory runs the rules that need the vehicle's claim history: claim
// volume per VIN, repeat claims for the same part inside the window, and
// odometer readings that go backwards. History is read fresh on every run so
// claims analyzed seconds apart see each other.
func (d *Detector) checkHistory(ctx context.Context, in *ruleInput, out *findings) error {
	c := in.claim
	if c.VIN == "" {
		return nil
	}
	others, err := d.st.FindClaimsByVIN(ctx, c.VIN, c.ID)
	if err != nil {
		return faults.Wrap(faults.ErrStore, "signals", "history_lookup", "load claims for vin", err)
	}
	if len(others) == 0 {
		return nil
	}

	otherIDs := make([]string, 0, len(others))
	for _, other := range others {
		otherIDs = append(otherIDs, other.ID)
	}
	switch {
	case len(others) >= excessiveClaimsAt:
		out.add(claims.SignalVINExcessiveClaims, claims.SeverityHigh,
			fmt.Sprintf("VIN has %d other claims on record", len(others)),
			map[string]any{"vin": c.VIN, "other_claims": len(others), "claim_ids": otherIDs})
	case len(others) >= multipleClaimsAt:
		out.add(claims.SignalVINMultipleClaims, claims.SeverityMedium,
			fmt.Sprintf("VIN has %d other claims on record", len(others)),
			map[string]any{"vin": c.VIN, "other_claims": len(others), "claim_ids": otherIDs})
	}

	checkRepeatClaims(in, others, d.repeatWindow, out)
	checkOdometer(in, others, out)
	return nil
}

// checkRepeatClaims flags same-VIN claims inside the window whose issue text
// shares enough words to be the same part. One signal lists every offender.
func checkRepeatClaims(in *ruleInput, others []*claims.Claim, windowDays int, out *findings) {
	if !in.claimDateOK || in.claim.IssueDescription == "" {
		return
	}
	var repeats []string
	for _, other := range others {
		otherDate, ok := claims.ParseDate(other.ClaimDate)
		if !ok {
			continue
		}
		if claims.DaysBetween(in.claimDate, otherDate) > windowDays {
			continue
		}
		if textutil.SharedWords(in.claim.IssueDescription, other.IssueDescription) >= repeatSharedWords {
			repeats = append(repeats, other.ID)
		}
	}
	if len(repeats) == 0 {
		return
	}
	out.add(claims.SignalRepeatClaimShortSpan, claims.SeverityMedium,
		fmt.Sprintf("Same issue claimed %d more time(s) within %d days", len(repeats), windowDays),
		map[string]any{
			"vin":         in.claim.VIN,
			"window_days": windowDays,
			"claim_ids":   repeats,
		})
}

// checkOdometer flags a reading lower than one recorded on an earlier claim
// for the same vehicle. Only claims that verifiably predate this one count
// as earlier; the first rollback found is reported.
func checkOdometer(in *ruleInput, others []*claims.Claim, out *findings) {
	if in.claim.Odometer == nil || !in.claimDateOK {
		return
	}
	current := *in.claim.Odometer
	for _, other := range others {
		if other.Odometer == nil {
			continue
		}
		otherDate, ok := claims.ParseDate(other.ClaimDate)
		if !ok || !otherDate.Before(in.claimDate) {
			continue
		}
		if *other.Odometer > current {
			out.add(claims.SignalOdometerRollback, claims.SeverityHigh,
				fmt.Sprintf("Odometer reads %d but claim %s recorded %d on %s",
					current, other.ID, *other.Odometer, other.ClaimDate),
				map[string]any{
					"odometer":       current,
					"prior_odometer": *other.Odometer,
					"prior_claim_id": other.ID,
					"prior_date":     other.ClaimDate,
				})
			return
		}
	}
}
