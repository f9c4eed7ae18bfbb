package preflight

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"claimguard/internal/config"
	"claimguard/internal/store"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDatabase verifies the claim database is reachable and its schema is intact.
func CheckDatabase(ctx context.Context, st *store.Store) Result {
	const name = "Database"

	if st == nil {
		return Result{Name: name, Detail: "store not opened"}
	}
	health, err := st.CheckHealth(ctx)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if !health.DatabaseReadable {
		return Result{Name: name, Detail: "database is not readable"}
	}
	if !health.TableExists {
		return Result{Name: name, Detail: "claims table missing"}
	}
	if len(health.MissingColumns) > 0 {
		return Result{Name: name, Detail: fmt.Sprintf("claims table missing columns: %s", strings.Join(health.MissingColumns, ", "))}
	}
	if !health.IntegrityCheck {
		return Result{Name: name, Detail: "integrity check failed"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s schema v%s, %d claims", health.Driver, health.SchemaVersion, health.TotalClaims)}
}

// CheckBenchmarks reports whether amount benchmarks are loaded. An empty
// catalog still passes; the cost comparison rules simply stay idle until an
// import.
func CheckBenchmarks(ctx context.Context, st *store.Store) Result {
	const name = "Benchmarks"

	if st == nil {
		return Result{Name: name, Detail: "store not opened"}
	}
	benchmarks, err := st.ListBenchmarks(ctx)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if len(benchmarks) == 0 {
		return Result{Name: name, Passed: true, Detail: "no benchmarks loaded; cost comparison rules idle"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d benchmarks loaded", len(benchmarks))}
}

// CheckNotifications verifies the configured ntfy endpoint is reachable
// without publishing anything.
func CheckNotifications(ctx context.Context, cfg *config.Config) Result {
	const name = "Notifications"

	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return Result{Name: name, Passed: true, Detail: "disabled"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodHead, topic, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("invalid topic url (%v)", err)}
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("endpoint unreachable (%v)", err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return Result{Name: name, Detail: fmt.Sprintf("endpoint returned %d", resp.StatusCode)}
	}
	return Result{Name: name, Passed: true, Detail: "endpoint reachable"}
}
