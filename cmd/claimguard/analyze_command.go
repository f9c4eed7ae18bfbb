package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"claimguard/internal/claims"
	"claimguard/internal/config"
	"claimguard/internal/intake"
	"claimguard/internal/logging"
	"claimguard/internal/pipeline"
	"claimguard/internal/store"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "analyze <document.json> [document.json...]",
		Short: "Run fraud analysis on extracted claim documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				analyzer := pipeline.NewAnalyzer(st, logging.NewNop(), pipeline.OptionsFromConfig(cfg))

				results := make([]*claims.AnalysisResult, 0, len(args))
				failures := 0
				for _, arg := range args {
					path, err := config.ExpandPath(arg)
					if err != nil {
						return err
					}
					extracted, err := intake.DecodeDocument(path)
					if err != nil {
						failures++
						fmt.Fprintf(cmd.ErrOrStderr(), "Skipping %s: %v\n", arg, err)
						continue
					}
					result, err := analyzer.Analyze(cmd.Context(), extracted, path)
					if err != nil {
						failures++
						fmt.Fprintf(cmd.ErrOrStderr(), "Analysis failed for %s: %v\n", arg, err)
						continue
					}
					results = append(results, result)
				}

				if jsonOut {
					if err := writeJSON(cmd, results); err != nil {
						return err
					}
				} else if len(results) > 0 {
					printAnalysisResults(cmd, results)
				}

				if failures > 0 {
					return fmt.Errorf("%d of %d documents failed", failures, len(args))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit results as JSON")
	return cmd
}

func printAnalysisResults(cmd *cobra.Command, results []*claims.AnalysisResult) {
	out := cmd.OutOrStdout()

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.ClaimID,
			string(r.TriageClass),
			formatScore(r.RiskScore),
			yesNo(r.IsSuspicious),
			strconv.Itoa(len(r.Duplicates)),
			strconv.Itoa(len(r.Signals)),
			strconv.Itoa(r.ImagesExtracted),
		})
	}
	table := renderTable(
		[]string{"Claim", "Triage", "Risk", "Suspicious", "Duplicates", "Signals", "Images"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignRight, alignRight},
	)
	fmt.Fprintln(out, table)

	for _, r := range results {
		fmt.Fprintf(out, "%s: %s\n", r.ClaimID, r.Summary)
		for _, warning := range r.Warnings {
			fmt.Fprintf(out, "%s  warning: %s\n", statusIndent, warning)
		}
	}
}
