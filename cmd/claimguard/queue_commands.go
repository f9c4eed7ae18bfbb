package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"claimguard/internal/claims"
	"claimguard/internal/store"
)

type queueHealthView struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Analyzing int `json:"analyzing"`
	Analyzed  int `json:"analyzed"`
	Failed    int `json:"failed"`
}

func newQueueCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and maintain the claim queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newQueueStatusCommand(ctx))
	cmd.AddCommand(newQueueListCommand(ctx))
	cmd.AddCommand(newQueueHealthCommand(ctx))
	cmd.AddCommand(newQueueRetryCommand(ctx))
	cmd.AddCommand(newQueueResetStuckCommand(ctx))
	cmd.AddCommand(newQueueClearCommand(ctx))
	cmd.AddCommand(newQueueRemoveCommand(ctx))
	return cmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show claim counts per status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withStore(func(st *store.Store) error {
				stats, err := st.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, stats)
				}

				rows := buildQueueStatusRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Status", "Count"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit status counts as JSON")
	return cmd
}

type queueClaimView struct {
	ClaimID      string    `json:"claim_id"`
	Status       string    `json:"status"`
	VIN          string    `json:"vin,omitempty"`
	DealerID     string    `json:"dealer_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statusFilters []string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued claims",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			statuses := make([]claims.Status, 0, len(statusFilters))
			for _, raw := range statusFilters {
				status, ok := claims.ParseStatus(raw)
				if !ok {
					return fmt.Errorf("unknown status %q (expected pending, analyzing, analyzed, or failed)", raw)
				}
				statuses = append(statuses, status)
			}
			return ctx.withStore(func(st *store.Store) error {
				list, err := st.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if jsonOut {
					views := make([]queueClaimView, 0, len(list))
					for _, c := range list {
						views = append(views, queueClaimView{
							ClaimID:      c.ID,
							Status:       string(c.Status),
							VIN:          c.VIN,
							DealerID:     c.DealerID,
							CreatedAt:    c.CreatedAt,
							ErrorMessage: c.ErrorMessage,
						})
					}
					return writeJSON(cmd, views)
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Claim", "Status", "VIN", "Dealer", "Created"},
					buildQueueListRows(list),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statusFilters, "status", "s", nil, "Filter by claim status (repeatable)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the list as JSON")
	return cmd
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Summarize queue lifecycle counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withStore(func(st *store.Store) error {
				health, err := st.Health(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, queueHealthView{
						Total:     health.Total,
						Pending:   health.Pending,
						Analyzing: health.Analyzing,
						Analyzed:  health.Analyzed,
						Failed:    health.Failed,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderKeyValues([][2]string{
					{"Total claims", fmt.Sprintf("%d", health.Total)},
					{"Pending", fmt.Sprintf("%d", health.Pending)},
					{"Analyzing", fmt.Sprintf("%d", health.Analyzing)},
					{"Analyzed", fmt.Sprintf("%d", health.Analyzed)},
					{"Failed", fmt.Sprintf("%d", health.Failed)},
				}))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the summary as JSON")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retry [claim-id...]",
		Short: "Requeue failed claims for analysis",
		Long: `Requeue failed claims for analysis.

Without arguments every failed claim is reset to pending. With claim IDs
only those claims are reset, and each must currently be in failed state.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				if len(args) == 0 {
					count, err := st.RetryFailed(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Retried %d failed claims\n", count)
					return nil
				}

				ids := make([]string, 0, len(args))
				for _, arg := range args {
					id := strings.TrimSpace(arg)
					if id == "" {
						continue
					}
					c, err := st.GetClaim(cmd.Context(), id)
					if err != nil {
						return err
					}
					if c == nil {
						return fmt.Errorf("claim %s not found", id)
					}
					if c.Status != claims.StatusFailed {
						return fmt.Errorf("claim %s is not in failed state (status %s)", id, c.Status)
					}
					ids = append(ids, id)
				}
				count, err := st.RetryFailed(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d claims for retry\n", count)
				return nil
			})
		},
	}
	return cmd
}

func newQueueResetStuckCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset-stuck",
		Short: "Return claims stuck in analyzing to pending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withStore(func(st *store.Store) error {
				count, err := st.ResetStuckAnalyzing(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d stuck claims to pending\n", count)
				return nil
			})
		},
	}
	return cmd
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearFailed bool
	var clearAnalyzed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete claims from the queue",
		Long: `Delete claims from the queue.

By default every claim is removed. Use --failed or --analyzed to remove
only claims in that state.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if clearFailed && clearAnalyzed {
				return errors.New("--failed and --analyzed are mutually exclusive")
			}
			return ctx.withStore(func(st *store.Store) error {
				var (
					count int64
					err   error
					label string
				)
				switch {
				case clearFailed:
					count, err = st.ClearFailed(cmd.Context())
					label = "failed claims"
				case clearAnalyzed:
					count, err = st.ClearAnalyzed(cmd.Context())
					label = "analyzed claims"
				default:
					count, err = st.Clear(cmd.Context())
					label = "claims"
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d %s\n", count, label)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Only clear failed claims")
	cmd.Flags().BoolVar(&clearAnalyzed, "analyzed", false, "Only clear analyzed claims")
	return cmd
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <claim-id>",
		Short: "Delete a single claim and its derived records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withStore(func(st *store.Store) error {
				removed, err := st.Remove(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("claim %s not found", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed claim %s\n", id)
				return nil
			})
		},
	}
	return cmd
}
