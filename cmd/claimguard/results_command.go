package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"claimguard/internal/claims"
	"claimguard/internal/store"
)

type claimResultView struct {
	ClaimID      string     `json:"claim_id"`
	TriageClass  string     `json:"triage_class"`
	RiskScore    float64    `json:"risk_score"`
	IsSuspicious bool       `json:"is_suspicious"`
	VIN          string     `json:"vin,omitempty"`
	DealerID     string     `json:"dealer_id,omitempty"`
	Summary      string     `json:"summary,omitempty"`
	AnalyzedAt   *time.Time `json:"analyzed_at,omitempty"`
}

func newResultsCommand(ctx *commandContext) *cobra.Command {
	var triageFilter string
	var suspiciousOnly bool
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "results",
		Short: "List analyzed claims and their triage decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			var triage claims.TriageClass
			if strings.TrimSpace(triageFilter) != "" {
				parsed, ok := claims.ParseTriageClass(triageFilter)
				if !ok {
					return fmt.Errorf("unknown triage class %q (expected AUTO_APPROVE, REVIEW, or INVESTIGATE)", triageFilter)
				}
				triage = parsed
			}

			return ctx.withStore(func(st *store.Store) error {
				list, err := st.ClaimsByStatus(cmd.Context(), claims.StatusAnalyzed)
				if err != nil {
					return err
				}

				filtered := make([]*claims.Claim, 0, len(list))
				for _, c := range list {
					if triage != "" && c.TriageClass != triage {
						continue
					}
					if suspiciousOnly && !c.IsSuspicious {
						continue
					}
					filtered = append(filtered, c)
				}
				sort.SliceStable(filtered, func(i, j int) bool {
					ti := filtered[i].AnalyzedAt
					tj := filtered[j].AnalyzedAt
					switch {
					case ti == nil:
						return false
					case tj == nil:
						return true
					default:
						return ti.After(*tj)
					}
				})
				if limit > 0 && len(filtered) > limit {
					filtered = filtered[:limit]
				}

				if jsonOut {
					views := make([]claimResultView, 0, len(filtered))
					for _, c := range filtered {
						views = append(views, claimResultView{
							ClaimID:      c.ID,
							TriageClass:  string(c.TriageClass),
							RiskScore:    c.RiskScore,
							IsSuspicious: c.IsSuspicious,
							VIN:          c.VIN,
							DealerID:     c.DealerID,
							Summary:      c.Summary,
							AnalyzedAt:   c.AnalyzedAt,
						})
					}
					return writeJSON(cmd, views)
				}

				out := cmd.OutOrStdout()
				if len(filtered) == 0 {
					fmt.Fprintln(out, "No analyzed claims match")
					return nil
				}
				table := renderTable(
					[]string{"Claim", "Triage", "Risk", "Suspicious", "VIN", "Dealer", "Analyzed"},
					buildClaimRows(filtered),
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(out, table)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&triageFilter, "triage", "", "Filter by triage class (AUTO_APPROVE, REVIEW, INVESTIGATE)")
	cmd.Flags().BoolVar(&suspiciousOnly, "suspicious", false, "Show only claims flagged suspicious")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of claims to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit results as JSON")
	return cmd
}
