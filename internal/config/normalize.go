package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeDatabase(); err != nil {
		return err
	}
	c.normalizeAnalysis()
	c.normalizeLogging()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.IntakeDir, err = expandPath(c.Paths.IntakeDir); err != nil {
		return fmt.Errorf("paths.intake_dir: %w", err)
	}
	if c.Paths.ArchiveDir, err = expandPath(c.Paths.ArchiveDir); err != nil {
		return fmt.Errorf("paths.archive_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDatabase() error {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.DSN == "" {
		if value, ok := os.LookupEnv("CLAIMGUARD_DATABASE_DSN"); ok {
			c.Database.DSN = strings.TrimSpace(value)
		}
	}
	if c.Database.Driver == DriverSQLite {
		if strings.TrimSpace(c.Database.Path) == "" {
			c.Database.Path = filepath.Join(c.Paths.DataDir, defaultDatabaseFile)
		}
		var err error
		if c.Database.Path, err = expandPath(c.Database.Path); err != nil {
			return fmt.Errorf("database.path: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeAnalysis() {
	if c.Analysis.Workers <= 0 {
		c.Analysis.Workers = defaultAnalysisWorkers
	}
	if c.Analysis.TemplateMinClaims <= 0 {
		c.Analysis.TemplateMinClaims = defaultTemplateMinClaims
	}
	if c.Analysis.DuplicateWindowDays <= 0 {
		c.Analysis.DuplicateWindowDays = defaultDuplicateWindowDays
	}
	if c.Analysis.RepeatWindowDays <= 0 {
		c.Analysis.RepeatWindowDays = defaultRepeatWindowDays
	}
	if c.Analysis.NearMatchDistance <= 0 {
		c.Analysis.NearMatchDistance = defaultNearMatchDistance
	}
	if c.Analysis.SimilarMatchDistance <= 0 {
		c.Analysis.SimilarMatchDistance = defaultSimilarMatchDistance
	}
	if c.Analysis.IssueSimilarityThreshold <= 0 {
		c.Analysis.IssueSimilarityThreshold = defaultIssueSimilarityThreshold
	}
	if c.Analysis.InvestigateThreshold <= 0 {
		c.Analysis.InvestigateThreshold = defaultInvestigateThreshold
	}
	if c.Analysis.ReviewThreshold <= 0 {
		c.Analysis.ReviewThreshold = defaultReviewThreshold
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}
