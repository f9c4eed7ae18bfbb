package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Database.Path) == "" {
			return errors.New("database.path must be set when database.driver is sqlite")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Database.DSN) == "" {
			return errors.New("database.dsn must be set when database.driver is postgres (or set CLAIMGUARD_DATABASE_DSN)")
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Database.Driver)
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if err := ensurePositiveMap(map[string]int{
		"analysis.workers":                c.Analysis.Workers,
		"analysis.template_min_claims":    c.Analysis.TemplateMinClaims,
		"analysis.duplicate_window_days":  c.Analysis.DuplicateWindowDays,
		"analysis.repeat_window_days":     c.Analysis.RepeatWindowDays,
		"analysis.near_match_distance":    c.Analysis.NearMatchDistance,
		"analysis.similar_match_distance": c.Analysis.SimilarMatchDistance,
	}); err != nil {
		return err
	}
	if c.Analysis.NearMatchDistance > c.Analysis.SimilarMatchDistance {
		return errors.New("analysis.near_match_distance must not exceed analysis.similar_match_distance")
	}
	if c.Analysis.SimilarMatchDistance > 64 {
		return errors.New("analysis.similar_match_distance must not exceed 64 (hash width)")
	}
	if c.Analysis.IssueSimilarityThreshold <= 0 || c.Analysis.IssueSimilarityThreshold > 1 {
		return errors.New("analysis.issue_similarity_threshold must be between 0 and 1")
	}
	if c.Analysis.InvestigateThreshold <= 0 || c.Analysis.InvestigateThreshold > 1 {
		return errors.New("analysis.investigate_threshold must be between 0 and 1")
	}
	if c.Analysis.ReviewThreshold <= 0 || c.Analysis.ReviewThreshold > 1 {
		return errors.New("analysis.review_threshold must be between 0 and 1")
	}
	if c.Analysis.ReviewThreshold >= c.Analysis.InvestigateThreshold {
		return errors.New("analysis.review_threshold must be less than analysis.investigate_threshold")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		return errors.New("workflow.heartbeat_timeout must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
