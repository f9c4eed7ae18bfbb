package signals

import (
	"context"
	"fmt"

	"claimguard/internal/claims"
)

const (
	dealerMinClaims     = 5
	dealerFraudRateHigh = 0.10
	dealerFraudRateWarn = 0.05
)

// checkDealer flags claims from dealers with a confirmed fraud history. The
// rate only carries weight once the dealer has enough volume to mean
// anything.
func (d *Detector) checkDealer(ctx context.Context, in *ruleInput, out *findings) error {
	dealerID := in.claim.DealerID
	if dealerID == "" {
		return nil
	}
	stats, err := d.dealerStatsFor(ctx, dealerID)
	if err != nil {
		return err
	}
	if stats == nil || stats.TotalClaims <= dealerMinClaims {
		return nil
	}

	rate := stats.FraudRate()
	switch {
	case rate > dealerFraudRateHigh:
		out.add(claims.SignalHighRiskDealer, claims.SeverityHigh,
			fmt.Sprintf("Dealer %s has %d confirmed fraud cases across %d claims (%.1f%%)",
				dealerID, stats.FraudConfirmed, stats.TotalClaims, rate*100),
			map[string]any{
				"dealer_id":       dealerID,
				"fraud_confirmed": stats.FraudConfirmed,
				"total_claims":    stats.TotalClaims,
				"fraud_rate":      rate,
			})
	case rate >= dealerFraudRateWarn:
		out.warn("dealer %s fraud rate %.1f%% is elevated (%d of %d claims)",
			dealerID, rate*100, stats.FraudConfirmed, stats.TotalClaims)
	}
	return nil
}
