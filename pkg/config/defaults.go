package config

import "time"

// Default values for configuration fields.
const (
	// DLP defaults
	DefaultDLPMode          = "inspect_only"
	DefaultDLPMethod        = "masking"
	DefaultDLPMinLikelihood = "POSSIBLE"
	DefaultDLPResponseMode  = "inspect_only"

	// Detector defaults
	DefaultDetectorTimeout      = 10 * time.Second
	DefaultDetectorMaxIdleConns = 10

	// Moderation defaults
	DefaultSafetyMode        = "builtin_only"
	DefaultModerationTimeout = 10 * time.Second

	// Vault defaults
	DefaultVaultPath = "data/vault.db"
	DefaultVaultTTL  = 24 * time.Hour

	// Evidence defaults
	DefaultEvidenceBackend       = "sqlite"
	DefaultEvidenceSQLitePath    = "data/evidence.db"
	DefaultEvidenceRetentionDays = 90
	DefaultEvidencePruneSchedule = "0 3 * * *"

	// Telemetry defaults
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "text"
	DefaultMetricsListenAddress = "127.0.0.1:9090"
	DefaultMetricsNamespace     = "themis"
	DefaultMetricsSubsystem     = "safety"
)

// ApplyDefaults fills zero-valued fields with defaults. Optional bools
// are materialized so consumers can dereference them unconditionally
// after loading.
func ApplyDefaults(cfg *Config) {
	// DLP
	cfg.DLP.Enabled = defaultTrue(cfg.DLP.Enabled)
	if cfg.DLP.Mode == "" {
		cfg.DLP.Mode = DefaultDLPMode
	}
	if cfg.DLP.Method == "" {
		cfg.DLP.Method = DefaultDLPMethod
	}
	if cfg.DLP.MinLikelihood == "" {
		cfg.DLP.MinLikelihood = DefaultDLPMinLikelihood
	}
	if cfg.DLP.ResponseMode == "" {
		cfg.DLP.ResponseMode = DefaultDLPResponseMode
	}

	// Detector
	if cfg.Detector.Timeout == 0 {
		cfg.Detector.Timeout = DefaultDetectorTimeout
	}
	if cfg.Detector.MaxIdleConns == 0 {
		cfg.Detector.MaxIdleConns = DefaultDetectorMaxIdleConns
	}

	// Moderation
	if cfg.Moderation.SafetyMode == "" {
		cfg.Moderation.SafetyMode = DefaultSafetyMode
	}
	cfg.Moderation.FailOpen = defaultTrue(cfg.Moderation.FailOpen)
	if cfg.Moderation.Timeout == 0 {
		cfg.Moderation.Timeout = DefaultModerationTimeout
	}

	// Vault
	if cfg.Vault.Path == "" {
		cfg.Vault.Path = DefaultVaultPath
	}
	if cfg.Vault.TTL == 0 {
		cfg.Vault.TTL = DefaultVaultTTL
	}

	// Evidence
	cfg.Evidence.Enabled = defaultTrue(cfg.Evidence.Enabled)
	if cfg.Evidence.Backend == "" {
		cfg.Evidence.Backend = DefaultEvidenceBackend
	}
	if cfg.Evidence.SQLitePath == "" {
		cfg.Evidence.SQLitePath = DefaultEvidenceSQLitePath
	}
	if cfg.Evidence.RetentionDays == 0 {
		cfg.Evidence.RetentionDays = DefaultEvidenceRetentionDays
	}
	if cfg.Evidence.PruneSchedule == "" {
		cfg.Evidence.PruneSchedule = DefaultEvidencePruneSchedule
	}

	// Telemetry
	cfg.Telemetry.Logging.Enabled = defaultTrue(cfg.Telemetry.Logging.Enabled)
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	cfg.Telemetry.Metrics.Enabled = defaultTrue(cfg.Telemetry.Metrics.Enabled)
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
}

// defaultTrue returns the pointer unchanged when set, a pointer to true
// when nil. This is how optional bools default to true without losing
// an explicit false in the file.
func defaultTrue(b *bool) *bool {
	if b != nil {
		return b
	}
	t := true
	return &t
}
