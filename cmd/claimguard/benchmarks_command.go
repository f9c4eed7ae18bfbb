package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"claimguard/internal/claims"
	"claimguard/internal/config"
	"claimguard/internal/store"
)

// benchmarkDoc is the wire form of one historical cost benchmark as produced
// by the claims data warehouse export.
type benchmarkDoc struct {
	Brand         *string `json:"brand"`
	IssueType     string  `json:"issue_type"`
	AvgPartsCost  float64 `json:"avg_parts_cost"`
	StdPartsCost  float64 `json:"std_parts_cost"`
	AvgLaborCost  float64 `json:"avg_labor_cost"`
	StdLaborCost  float64 `json:"std_labor_cost"`
	AvgTotal      float64 `json:"avg_total"`
	StdTotal      float64 `json:"std_total"`
	MinTotal      float64 `json:"min_total"`
	MaxTotal      float64 `json:"max_total"`
	AvgLaborRatio float64 `json:"avg_labor_ratio"`
	AvgTaxRate    float64 `json:"avg_tax_rate"`
	SampleCount   int     `json:"sample_count"`
}

type benchmarkView struct {
	Brand         *string   `json:"brand"`
	IssueType     string    `json:"issue_type"`
	AvgPartsCost  float64   `json:"avg_parts_cost"`
	StdPartsCost  float64   `json:"std_parts_cost"`
	AvgLaborCost  float64   `json:"avg_labor_cost"`
	StdLaborCost  float64   `json:"std_labor_cost"`
	AvgTotal      float64   `json:"avg_total"`
	StdTotal      float64   `json:"std_total"`
	MinTotal      float64   `json:"min_total"`
	MaxTotal      float64   `json:"max_total"`
	AvgLaborRatio float64   `json:"avg_labor_ratio"`
	AvgTaxRate    float64   `json:"avg_tax_rate"`
	SampleCount   int       `json:"sample_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func newBenchmarksCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "benchmarks",
		Short: "Manage historical cost benchmarks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newBenchmarksListCommand(ctx))
	cmd.AddCommand(newBenchmarksImportCommand(ctx))
	return cmd
}

func newBenchmarksListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored cost benchmarks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withStore(func(st *store.Store) error {
				list, err := st.ListBenchmarks(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					views := make([]benchmarkView, 0, len(list))
					for _, b := range list {
						views = append(views, benchmarkView{
							Brand:         b.Brand,
							IssueType:     b.IssueType,
							AvgPartsCost:  b.AvgPartsCost,
							StdPartsCost:  b.StdPartsCost,
							AvgLaborCost:  b.AvgLaborCost,
							StdLaborCost:  b.StdLaborCost,
							AvgTotal:      b.AvgTotal,
							StdTotal:      b.StdTotal,
							MinTotal:      b.MinTotal,
							MaxTotal:      b.MaxTotal,
							AvgLaborRatio: b.AvgLaborRatio,
							AvgTaxRate:    b.AvgTaxRate,
							SampleCount:   b.SampleCount,
							UpdatedAt:     b.UpdatedAt,
						})
					}
					return writeJSON(cmd, views)
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No benchmarks stored")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Brand", "Issue Type", "Avg Total", "Std Total", "Min", "Max", "Samples", "Updated"},
					buildBenchmarkRows(list),
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit benchmarks as JSON")
	return cmd
}

func newBenchmarksImportCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Load benchmarks from a warehouse export file",
		Long: `Load benchmarks from a warehouse export file.

The file holds a JSON array of benchmark objects keyed by brand and issue
type. Existing rows for the same pair are replaced. An entry with a null or
empty brand becomes the generic fallback for its issue type.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve benchmark file: %w", err)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read benchmark file: %w", err)
			}
			var docs []benchmarkDoc
			if err := json.Unmarshal(data, &docs); err != nil {
				return fmt.Errorf("parse benchmark file: %w", err)
			}

			return ctx.withStore(func(st *store.Store) error {
				for i, doc := range docs {
					if strings.TrimSpace(doc.IssueType) == "" {
						return fmt.Errorf("benchmark entry %d has no issue type", i+1)
					}
					if doc.SampleCount < 0 {
						return fmt.Errorf("benchmark entry %d has a negative sample count", i+1)
					}
					b := &claims.Benchmark{
						Brand:         doc.Brand,
						IssueType:     doc.IssueType,
						AvgPartsCost:  doc.AvgPartsCost,
						StdPartsCost:  doc.StdPartsCost,
						AvgLaborCost:  doc.AvgLaborCost,
						StdLaborCost:  doc.StdLaborCost,
						AvgTotal:      doc.AvgTotal,
						StdTotal:      doc.StdTotal,
						MinTotal:      doc.MinTotal,
						MaxTotal:      doc.MaxTotal,
						AvgLaborRatio: doc.AvgLaborRatio,
						AvgTaxRate:    doc.AvgTaxRate,
						SampleCount:   doc.SampleCount,
					}
					if err := st.SaveBenchmark(cmd.Context(), b); err != nil {
						return fmt.Errorf("save benchmark entry %d: %w", i+1, err)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d benchmarks\n", len(docs))
				return nil
			})
		},
	}
	return cmd
}
