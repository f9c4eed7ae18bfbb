package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"claimguard/internal/config"
	"claimguard/internal/logging"
	"claimguard/internal/preflight"
	"claimguard/internal/store"
	"claimguard/internal/workflow"
)

// LockFileName is the flock target that enforces one daemon per data directory.
const LockFileName = "claimguardd.lock"

// LockPath returns the lock file location for the given configuration.
func LockPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.DataDir, LockFileName)
}

// InstanceRunning reports whether another daemon currently holds the lock file.
// It briefly acquires and releases the lock, so it must not be called from a
// process that intends to keep running as the daemon.
func InstanceRunning(cfg *config.Config) (bool, error) {
	lock := flock.New(LockPath(cfg))
	ok, err := lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("probe daemon lock: %w", err)
	}
	if !ok {
		return true, nil
	}
	if err := lock.Unlock(); err != nil {
		return false, fmt.Errorf("release probe lock: %w", err)
	}
	return false, nil
}

// Daemon coordinates the background analysis services and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	workflow *workflow.Manager
	logPath  string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Workflow     workflow.StatusSummary
	DatabasePath string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, wf *workflow.Manager) (*Daemon, error) {
	if cfg == nil || st == nil || logger == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, logger, and workflow manager")
	}

	lockPath := LockPath(cfg)
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		workflow: wf,
		logPath:  filepath.Join(cfg.Paths.LogDir, "claimguard.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, verifies the environment, and launches the
// workflow manager. A failed preflight check aborts startup and releases the
// lock so the operator can fix the environment and retry.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another claimguard daemon instance is already running")
	}

	checks := preflight.RunAll(ctx, d.cfg, d.store)
	for _, check := range checks {
		if check.Passed {
			d.logger.Debug("preflight check passed", logging.String("check", check.Name), logging.String("detail", check.Detail))
			continue
		}
		d.logger.Error("preflight check failed", logging.String("check", check.Name), logging.String("detail", check.Detail))
	}
	if !preflight.Healthy(checks) {
		_ = d.lock.Unlock()
		return errors.New("preflight checks failed; resolve the reported issues and restart")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("claimguard daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("claimguard daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	summary := d.workflow.Status(ctx)
	return Status{
		Running:      d.running.Load(),
		Workflow:     summary,
		DatabasePath: d.cfg.Database.Path,
		LockFilePath: d.lockPath,
	}
}
