package main

import (
	"errors"
	"fmt"
	"log/slog"

	"claimguard/internal/config"
	"claimguard/internal/daemon"
	"claimguard/internal/store"
	"claimguard/internal/workflow"
)

// prepareEnvironment creates the directories the daemon needs before the
// preflight checks run.
func prepareEnvironment(cfg *config.Config) error {
	if cfg == nil {
		return errors.New("configuration unavailable")
	}
	return cfg.EnsureDirectories()
}

// buildDaemon wires the claim store and workflow manager into a daemon instance.
func buildDaemon(cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, error) {
	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open claim store: %w", err)
	}

	mgr := workflow.NewManager(cfg, st, logger)
	d, err := daemon.New(cfg, st, logger, mgr)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return d, nil
}
