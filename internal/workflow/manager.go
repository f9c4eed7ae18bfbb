package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"claimguard/internal/claims"
	"claimguard/internal/config"
	"claimguard/internal/intake"
	"claimguard/internal/logging"
	"claimguard/internal/notifications"
	"claimguard/internal/pipeline"
	"claimguard/internal/store"
)

// Manager coordinates claim intake and the analysis worker pool.
type Manager struct {
	cfg          *config.Config
	store        *store.Store
	analyzer     *pipeline.Analyzer
	ingestor     *intake.Ingestor
	logger       *slog.Logger
	notifier     notifications.Service
	workers      int
	pollInterval time.Duration

	heartbeat *HeartbeatMonitor

	mu        sync.RWMutex
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	lastErr   error
	lastClaim *claims.Claim

	queueActive bool
	queueStart  time.Time
}

// NewManager constructs a workflow manager with the default notifier.
func NewManager(cfg *config.Config, st *store.Store, logger *slog.Logger) *Manager {
	return NewManagerWithNotifier(cfg, st, logger, notifications.NewService(cfg))
}

// NewManagerWithNotifier constructs a workflow manager with a custom notifier (used in tests).
func NewManagerWithNotifier(cfg *config.Config, st *store.Store, logger *slog.Logger, notifier notifications.Service) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	workers := cfg.Analysis.Workers
	if workers < 1 {
		workers = 1
	}
	return &Manager{
		cfg:          cfg,
		store:        st,
		analyzer:     pipeline.NewAnalyzer(st, logger, pipeline.OptionsFromConfig(cfg)),
		ingestor:     intake.NewIngestor(st, cfg, logger),
		logger:       logger,
		notifier:     notifier,
		workers:      workers,
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		heartbeat: NewHeartbeatMonitor(
			st,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
	}
}
