package preflight

import (
	"context"

	"claimguard/internal/config"
	"claimguard/internal/store"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every readiness check the daemon depends on: working
// directories, the claim database, the benchmark catalog, and the
// notification endpoint.
func RunAll(ctx context.Context, cfg *config.Config, st *store.Store) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Intake directory", cfg.Paths.IntakeDir),
		CheckDirectoryAccess("Archive directory", cfg.Paths.ArchiveDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDatabase(ctx, st),
		CheckBenchmarks(ctx, st),
		CheckNotifications(ctx, cfg),
	}
	return results
}

// Healthy reports whether every check passed.
func Healthy(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
