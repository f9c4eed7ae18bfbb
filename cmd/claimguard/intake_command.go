package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"claimguard/internal/intake"
	"claimguard/internal/logging"
	"claimguard/internal/store"
)

func newIntakeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "intake",
		Short: "Ingest documents waiting in the intake directory",
		Long: "Moves every claim document in the intake directory into the archive and " +
			"registers it as a pending claim. Documents that fail to decode are parked " +
			"in the failed spool with a reason file. The daemon does this continuously; " +
			"this command drains the spool once without it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				ingestor := intake.NewIngestor(st, cfg, logging.NewNop())
				count, err := ingestor.ScanSpool(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if count == 0 {
					fmt.Fprintln(out, "No documents queued")
					return nil
				}
				fmt.Fprintf(out, "Queued %d claims for analysis\n", count)
				return nil
			})
		},
	}
}
