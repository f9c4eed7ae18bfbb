package config

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	defaultDataDir    = "~/.local/share/claimguard"
	defaultIntakeDir  = "~/claims/intake"
	defaultArchiveDir = "~/claims/archive"
	defaultLogDir     = "~/.local/share/claimguard/logs"

	defaultDatabaseFile = "claims.db"

	defaultAnalysisWorkers          = 2
	defaultTemplateMinClaims        = 3
	defaultDuplicateWindowDays      = 90
	defaultRepeatWindowDays         = 90
	defaultNearMatchDistance        = 5
	defaultSimilarMatchDistance     = 10
	defaultIssueSimilarityThreshold = 0.7
	defaultInvestigateThreshold     = 0.7
	defaultReviewThreshold          = 0.3

	defaultQueuePollInterval         = 5
	defaultErrorRetryInterval        = 10
	defaultWorkflowHeartbeatInterval = 15
	defaultWorkflowHeartbeatTimeout  = 120

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultNotifyRequestTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			IntakeDir:  defaultIntakeDir,
			ArchiveDir: defaultArchiveDir,
			LogDir:     defaultLogDir,
		},
		Database: Database{
			Driver: DriverSQLite,
		},
		Analysis: Analysis{
			Workers:                  defaultAnalysisWorkers,
			TemplateMinClaims:        defaultTemplateMinClaims,
			DuplicateWindowDays:      defaultDuplicateWindowDays,
			RepeatWindowDays:         defaultRepeatWindowDays,
			NearMatchDistance:        defaultNearMatchDistance,
			SimilarMatchDistance:     defaultSimilarMatchDistance,
			IssueSimilarityThreshold: defaultIssueSimilarityThreshold,
			InvestigateThreshold:     defaultInvestigateThreshold,
			ReviewThreshold:          defaultReviewThreshold,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultWorkflowHeartbeatInterval,
			HeartbeatTimeout:   defaultWorkflowHeartbeatTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Analysis:       true,
			Investigations: true,
			Errors:         true,
		},
	}
}
