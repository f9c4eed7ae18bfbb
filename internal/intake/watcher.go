package intake

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"claimguard/internal/faults"
	"claimguard/internal/logging"
)

const (
	// defaultStableAfter is how long a document must sit unchanged before it
	// is considered fully written. Extractors copy documents in, so a fresh
	// file may still be growing.
	defaultStableAfter = 2 * time.Second
	defaultFlushTick   = time.Second
	// defaultRescanEvery re-lists the spool to catch arrivals the kernel
	// watch missed.
	defaultRescanEvery = 5 * time.Minute
)

// Watcher monitors the intake spool and emits each document path once the
// file has stopped changing. Pre-existing spool contents are emitted on
// startup.
type Watcher struct {
	dir         string
	log         *slog.Logger
	stableAfter time.Duration
	flushTick   time.Duration
	rescanEvery time.Duration

	// pending maps a path to its last observed write. Touched only by Run.
	pending map[string]time.Time
	paths   chan string
}

// NewWatcher builds a watcher for the intake directory. A nil logger disables
// logging.
func NewWatcher(dir string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{
		dir:         dir,
		log:         logging.NewComponentLogger(logger, "intake"),
		stableAfter: defaultStableAfter,
		flushTick:   defaultFlushTick,
		rescanEvery: defaultRescanEvery,
		pending:     make(map[string]time.Time),
		paths:       make(chan string, 64),
	}
}

// Paths returns the channel of stable document paths. Closed when Run
// returns.
func (w *Watcher) Paths() <-chan string {
	return w.paths
}

// Run watches the spool until the context is canceled. It may be called once.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.paths)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return faults.Wrap(faults.ErrTransient, "intake", "watch", "could not create watcher", err)
	}
	defer fsw.Close()

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return faults.Wrap(faults.ErrTransient, "intake", "watch", "could not create intake directory", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		return faults.Wrap(faults.ErrTransient, "intake", "watch", "could not watch intake directory", err)
	}

	w.scanSpool()
	w.log.Info("watching intake spool", logging.String("dir", w.dir))

	flush := time.NewTicker(w.flushTick)
	defer flush.Stop()
	rescan := time.NewTicker(w.rescanEvery)
	defer rescan.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			switch {
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				delete(w.pending, ev.Name)
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				w.track(ev.Name, time.Now())
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(w.log, "spool watch error", "intake_watch_error", logging.Error(err))

		case now := <-flush.C:
			w.flushStable(now)

		case <-rescan.C:
			w.scanSpool()
		}
	}
}

// track records a write to a candidate document, restarting its quiet period.
func (w *Watcher) track(path string, lastWrite time.Time) {
	if !isClaimDocument(filepath.Base(path)) {
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}
	w.pending[path] = lastWrite
}

// scanSpool registers documents already in the spool using their actual
// modification times, so old files flush on the first tick.
func (w *Watcher) scanSpool() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		logging.WarnWithContext(w.log, "could not list intake spool", "intake_watch_error", logging.Error(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !isClaimDocument(entry.Name()) {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if _, tracked := w.pending[path]; tracked {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		w.pending[path] = info.ModTime()
	}
}

// flushStable emits every tracked document whose quiet period has elapsed.
// Paths that cannot be sent immediately stay tracked for the next tick.
func (w *Watcher) flushStable(now time.Time) {
	threshold := now.Add(-w.stableAfter)
	for path, lastWrite := range w.pending {
		if lastWrite.After(threshold) {
			continue
		}
		select {
		case w.paths <- path:
			delete(w.pending, path)
		default:
		}
	}
}
