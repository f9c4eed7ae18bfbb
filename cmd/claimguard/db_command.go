package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"claimguard/internal/claims"
	"claimguard/internal/store"
)

type dbHealthView struct {
	Driver           string   `json:"driver"`
	DBPath           string   `json:"db_path,omitempty"`
	DatabaseExists   bool     `json:"database_exists"`
	DatabaseReadable bool     `json:"database_readable"`
	SchemaVersion    string   `json:"schema_version"`
	TableExists      bool     `json:"table_exists"`
	ColumnsPresent   []string `json:"columns_present,omitempty"`
	MissingColumns   []string `json:"missing_columns,omitempty"`
	IntegrityCheck   bool     `json:"integrity_check"`
	TotalClaims      int      `json:"total_claims"`
	Error            string   `json:"error,omitempty"`
}

func newDBCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Inspect the claim database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newDBHealthCommand(ctx))
	return cmd
}

func newDBHealthCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Run database diagnostics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withStore(func(st *store.Store) error {
				health, healthErr := st.CheckHealth(cmd.Context())
				sort.Strings(health.MissingColumns)

				if jsonOut {
					view := dbHealthView{
						Driver:           health.Driver,
						DBPath:           health.DBPath,
						DatabaseExists:   health.DatabaseExists,
						DatabaseReadable: health.DatabaseReadable,
						SchemaVersion:    health.SchemaVersion,
						TableExists:      health.TableExists,
						ColumnsPresent:   health.ColumnsPresent,
						MissingColumns:   health.MissingColumns,
						IntegrityCheck:   health.IntegrityCheck,
						TotalClaims:      health.TotalClaims,
						Error:            health.Error,
					}
					if err := writeJSON(cmd, view); err != nil {
						return err
					}
					return healthErr
				}

				printDatabaseHealth(cmd, health)
				return healthErr
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit diagnostics as JSON")
	return cmd
}

func printDatabaseHealth(cmd *cobra.Command, health claims.DatabaseHealth) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("Database Health", colorize) {
		fmt.Fprintln(out, line)
	}

	fmt.Fprintln(out, renderStatusLine("Driver", statusInfo, health.Driver, colorize))
	if health.DBPath != "" {
		fmt.Fprintln(out, renderStatusLine("Database path", statusInfo, health.DBPath, colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Database exists", boolStatus(health.DatabaseExists), "", colorize))
	fmt.Fprintln(out, renderStatusLine("Readable", boolStatus(health.DatabaseReadable), "", colorize))
	fmt.Fprintln(out, renderStatusLine("Schema version", statusInfo, health.SchemaVersion, colorize))

	tableStatus := statusError
	tableMessage := "missing"
	if health.TableExists {
		tableStatus = statusOK
		tableMessage = "present"
	}
	fmt.Fprintln(out, renderStatusLine("Claims table", tableStatus, tableMessage, colorize))

	if health.TableExists {
		fmt.Fprintln(out, renderStatusLine("Columns", statusInfo, strconv.Itoa(len(health.ColumnsPresent)), colorize))
		if len(health.MissingColumns) == 0 {
			fmt.Fprintln(out, renderStatusLine("Missing columns", statusOK, "none", colorize))
		} else {
			fmt.Fprintln(out, renderStatusLine("Missing columns", statusError, strings.Join(health.MissingColumns, ", "), colorize))
		}
	}

	fmt.Fprintln(out, renderStatusLine("Integrity check", boolStatus(health.IntegrityCheck), "", colorize))
	fmt.Fprintln(out, renderStatusLine("Total claims", statusInfo, strconv.Itoa(health.TotalClaims), colorize))

	if health.Error != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, health.Error, colorize))
	}
}

func boolStatus(ok bool) statusKind {
	if ok {
		return statusOK
	}
	return statusError
}
