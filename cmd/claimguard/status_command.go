package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"claimguard/internal/daemon"
	"claimguard/internal/preflight"
	"claimguard/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, readiness, and queue status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				daemonRunning, probeErr := daemon.InstanceRunning(cfg)
				checks := preflight.RunAll(cmd.Context(), cfg, st)
				stats, err := st.Stats(cmd.Context())
				if err != nil {
					return err
				}

				if jsonOut {
					type checkView struct {
						Name   string `json:"name"`
						Passed bool   `json:"passed"`
						Detail string `json:"detail,omitempty"`
					}
					checkViews := make([]checkView, 0, len(checks))
					for _, check := range checks {
						checkViews = append(checkViews, checkView{Name: check.Name, Passed: check.Passed, Detail: check.Detail})
					}
					probeDetail := ""
					if probeErr != nil {
						probeDetail = probeErr.Error()
					}
					return writeJSON(cmd, map[string]any{
						"daemon_running":     daemonRunning,
						"daemon_probe_error": probeDetail,
						"checks":             checkViews,
						"queue":              stats,
					})
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				for _, line := range renderSectionHeader("System Status", colorize) {
					fmt.Fprintln(out, line)
				}
				switch {
				case probeErr != nil:
					fmt.Fprintln(out, renderStatusLine("Daemon", statusWarn, fmt.Sprintf("unknown (%v)", probeErr), colorize))
				case daemonRunning:
					fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, "running", colorize))
				default:
					fmt.Fprintln(out, renderStatusLine("Daemon", statusInfo, "stopped", colorize))
				}
				for _, check := range checks {
					kind := statusOK
					if !check.Passed {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(check.Name, kind, check.Detail, colorize))
				}

				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Queue Status", colorize) {
					fmt.Fprintln(out, line)
				}
				rows := buildQueueStatusRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Status", "Count"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit status as JSON")
	return cmd
}
