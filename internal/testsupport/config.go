package testsupport

import (
	"path/filepath"
	"testing"

	"claimguard/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.IntakeDir = filepath.Join(base, "intake")
	cfg.Paths.ArchiveDir = filepath.Join(base, "archive")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.Path = filepath.Join(base, "data", "claims.db")
	cfg.Notifications.NtfyTopic = ""

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithWorkers overrides the analysis worker count on the test config.
func WithWorkers(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Analysis.Workers = n
	}
}

// WithTemplateMinClaims overrides the shared-hash template threshold.
func WithTemplateMinClaims(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Analysis.TemplateMinClaims = n
	}
}

// WithNtfyTopic points notifications at the given topic URL, typically a
// httptest server.
func WithNtfyTopic(topic string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Notifications.NtfyTopic = topic
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
