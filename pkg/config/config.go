package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure for Themis. It is
// constructed once (LoadConfig), validated, and passed by reference into
// the coordinator and its sub-components; no component reads ambient
// state.
type Config struct {
	// DLP contains sensitive-data processing configuration.
	DLP DLPConfig `yaml:"dlp"`

	// Detector contains the remote detector service client configuration.
	Detector DetectorConfig `yaml:"detector"`

	// Moderation contains moderation gate and layer client configuration.
	Moderation ModerationConfig `yaml:"moderation"`

	// Vault contains token vault configuration for re-identification.
	Vault VaultConfig `yaml:"vault"`

	// Evidence contains audit-trail storage and retention configuration.
	Evidence EvidenceConfig `yaml:"evidence"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// DLPConfig contains sensitive-data processing configuration.
type DLPConfig struct {
	// Enabled controls whether sensitive-data processing runs at all.
	// false forces mode "disabled" regardless of Mode.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Mode selects the prompt-phase processing mode.
	// Options: "inspect_only", "deidentify", "redact", "disabled"
	// Default: "inspect_only"
	Mode string `yaml:"mode"`

	// Method selects the deidentify transformation.
	// Options: "masking", "tokenization"
	// Default: "masking"
	Method string `yaml:"method"`

	// CategoryAllowlist restricts detection to the named categories.
	// Empty means all supported categories.
	CategoryAllowlist []string `yaml:"category_allowlist"`

	// MinLikelihood drops findings below this confidence tier.
	// Options: "VERY_UNLIKELY", "UNLIKELY", "POSSIBLE", "LIKELY", "VERY_LIKELY"
	// Default: "POSSIBLE"
	MinLikelihood string `yaml:"min_likelihood"`

	// ResponseMode selects the response-phase processing mode. Redacting
	// the model's own reply rarely helps, so this defaults to inspection.
	// Options: same as Mode
	// Default: "inspect_only"
	ResponseMode string `yaml:"response_mode"`
}

// DetectorConfig contains the remote detector client configuration.
type DetectorConfig struct {
	// BaseURL is the detector service endpoint.
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates the client. Typically set via THEMIS_DETECTOR_API_KEY.
	APIKey string `yaml:"api_key"`

	// Timeout is the per-call timeout.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// MaxIdleConns is the connection pool size.
	// Default: 10
	MaxIdleConns int `yaml:"max_idle_conns"`
}

// ModerationConfig contains moderation gate configuration.
type ModerationConfig struct {
	// SafetyMode selects which layers are queried.
	// Options: "builtin_only", "advanced_only", "both"
	// Default: "builtin_only"
	SafetyMode string `yaml:"safety_mode"`

	// FailOpen controls whether an unavailable advanced layer degrades
	// to reduced protection (true) or rejects the turn (false).
	// Default: true
	FailOpen *bool `yaml:"fail_open"`

	// Builtin contains the builtin layer client configuration.
	Builtin LayerConfig `yaml:"builtin"`

	// Advanced contains the advanced layer client configuration.
	Advanced LayerConfig `yaml:"advanced"`

	// Thresholds are per-category blocking thresholds for the builtin
	// layer; categories without an entry use 0.5.
	Thresholds map[string]float64 `yaml:"thresholds"`

	// PromptTemplateID is the advanced layer template for prompts.
	// Empty leaves the advanced layer unconfigured for prompts.
	PromptTemplateID string `yaml:"prompt_template_id"`

	// ResponseTemplateID is the advanced layer template for responses.
	ResponseTemplateID string `yaml:"response_template_id"`

	// Timeout bounds each layer call.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// LayerConfig contains one moderation layer's client configuration.
type LayerConfig struct {
	// BaseURL is the layer service endpoint.
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates the client.
	APIKey string `yaml:"api_key"`
}

// VaultConfig contains token vault configuration.
type VaultConfig struct {
	// Path is the SQLite database file path.
	// Default: "data/vault.db"
	Path string `yaml:"path"`

	// TTL is how long stored tokens remain re-identifiable.
	// Default: 24h
	TTL time.Duration `yaml:"ttl"`
}

// EvidenceConfig contains audit-trail configuration.
type EvidenceConfig struct {
	// Enabled controls whether turns are recorded.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Backend selects the storage backend.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path for the sqlite backend.
	// Default: "data/evidence.db"
	SQLitePath string `yaml:"sqlite_path"`

	// RetentionDays is how long records are kept before pruning.
	// Default: 90
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron expression for scheduled pruning.
	// Empty disables the scheduler.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Enabled controls whether logs are emitted at all.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Level is the minimum log level.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format.
	// Options: "json", "text"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are registered and served.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// ListenAddress is the address the metrics endpoint binds to.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Namespace is the metric namespace prefix.
	// Default: "themis"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem prefix.
	// Default: "safety"
	Subsystem string `yaml:"subsystem"`
}

// Describe renders the active safety posture for startup logs.
func (c *Config) Describe() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Safety mode: %s\n", c.Moderation.SafetyMode)
	fmt.Fprintf(&sb, "Fail open: %v\n", boolVal(c.Moderation.FailOpen))
	fmt.Fprintf(&sb, "DLP: enabled=%v mode=%s method=%s response_mode=%s\n",
		boolVal(c.DLP.Enabled), c.DLP.Mode, c.DLP.Method, c.DLP.ResponseMode)
	if len(c.DLP.CategoryAllowlist) > 0 {
		fmt.Fprintf(&sb, "DLP categories: %s\n", strings.Join(c.DLP.CategoryAllowlist, ", "))
	} else {
		sb.WriteString("DLP categories: all supported\n")
	}
	fmt.Fprintf(&sb, "Advanced templates: prompt=%s response=%s\n",
		orNone(c.Moderation.PromptTemplateID), orNone(c.Moderation.ResponseTemplateID))
	fmt.Fprintf(&sb, "Evidence: enabled=%v backend=%s retention=%dd",
		boolVal(c.Evidence.Enabled), c.Evidence.Backend, c.Evidence.RetentionDays)

	return sb.String()
}

// boolVal dereferences an optional bool, treating nil as false.
func boolVal(b *bool) bool {
	return b != nil && *b
}

// orNone substitutes "none" for an empty string.
func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
