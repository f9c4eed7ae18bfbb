package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"claimguard/internal/claims"
	"claimguard/internal/store"
)

type dealerView struct {
	DealerID        string    `json:"dealer_id"`
	DealerName      string    `json:"dealer_name,omitempty"`
	TotalClaims     int       `json:"total_claims"`
	FlaggedClaims   int       `json:"flagged_claims"`
	FraudConfirmed  int       `json:"fraud_confirmed"`
	DuplicateClaims int       `json:"duplicate_claims"`
	AvgClaimAmount  float64   `json:"avg_claim_amount"`
	TotalAmount     float64   `json:"total_amount"`
	FraudRate       float64   `json:"fraud_rate"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func newDealersCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "dealers [dealer-id]",
		Short: "Show per-dealer claim statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				if len(args) == 1 {
					return runDealerShow(cmd, st, strings.TrimSpace(args[0]), jsonOut)
				}
				return runDealerList(cmd, st, jsonOut)
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit dealer statistics as JSON")
	cmd.AddCommand(newDealersSetFraudCommand(ctx))
	return cmd
}

func runDealerList(cmd *cobra.Command, st *store.Store, jsonOut bool) error {
	list, err := st.ListDealerStatistics(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOut {
		views := make([]dealerView, 0, len(list))
		for _, d := range list {
			views = append(views, buildDealerView(d))
		}
		return writeJSON(cmd, views)
	}
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No dealer statistics recorded")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Dealer", "Name", "Claims", "Flagged", "Confirmed Fraud", "Duplicates", "Avg Amount", "Total", "Fraud Rate"},
		buildDealerRows(list),
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	))
	return nil
}

func runDealerShow(cmd *cobra.Command, st *store.Store, dealerID string, jsonOut bool) error {
	stats, err := st.GetDealerStatistics(cmd.Context(), dealerID)
	if err != nil {
		return err
	}
	if stats == nil {
		return fmt.Errorf("no statistics recorded for dealer %s", dealerID)
	}
	if jsonOut {
		return writeJSON(cmd, buildDealerView(stats))
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderKeyValues([][2]string{
		{"Dealer", stats.DealerID},
		{"Name", stats.DealerName},
		{"Total claims", strconv.Itoa(stats.TotalClaims)},
		{"Flagged claims", strconv.Itoa(stats.FlaggedClaims)},
		{"Confirmed fraud", strconv.Itoa(stats.FraudConfirmed)},
		{"Duplicate claims", strconv.Itoa(stats.DuplicateClaims)},
		{"Average amount", fmt.Sprintf("%.2f", stats.AvgClaimAmount)},
		{"Total amount", fmt.Sprintf("%.2f", stats.TotalAmount)},
		{"Fraud rate", fmt.Sprintf("%.1f%%", stats.FraudRate()*100)},
		{"Updated", formatTime(stats.UpdatedAt)},
	}))
	return nil
}

func newDealersSetFraudCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-fraud <dealer-id> <count>",
		Short: "Record the confirmed fraud count from the case-outcome feed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dealerID := strings.TrimSpace(args[0])
			count, err := strconv.Atoi(args[1])
			if err != nil || count < 0 {
				return fmt.Errorf("invalid fraud count %q (expected a non-negative integer)", args[1])
			}
			return ctx.withStore(func(st *store.Store) error {
				if err := st.SetFraudConfirmed(cmd.Context(), dealerID, count); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded %d confirmed fraud cases for dealer %s\n", count, dealerID)
				return nil
			})
		},
	}
	return cmd
}

func buildDealerView(d *claims.DealerStatistics) dealerView {
	return dealerView{
		DealerID:        d.DealerID,
		DealerName:      d.DealerName,
		TotalClaims:     d.TotalClaims,
		FlaggedClaims:   d.FlaggedClaims,
		FraudConfirmed:  d.FraudConfirmed,
		DuplicateClaims: d.DuplicateClaims,
		AvgClaimAmount:  d.AvgClaimAmount,
		TotalAmount:     d.TotalAmount,
		FraudRate:       d.FraudRate(),
		UpdatedAt:       d.UpdatedAt,
	}
}
