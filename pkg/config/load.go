package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file, applies defaults,
// and validates the result. Environment variables are not consulted;
// use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Variables follow the naming
// convention THEMIS_SECTION_FIELD (e.g., THEMIS_DLP_MODE) and always
// take precedence over file values.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	// DLP overrides
	if val := os.Getenv("THEMIS_DLP_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.DLP.Enabled = &b
		}
	}
	if val := os.Getenv("THEMIS_DLP_MODE"); val != "" {
		cfg.DLP.Mode = val
	}
	if val := os.Getenv("THEMIS_DLP_METHOD"); val != "" {
		cfg.DLP.Method = val
	}
	if val := os.Getenv("THEMIS_DLP_CATEGORY_ALLOWLIST"); val != "" {
		cfg.DLP.CategoryAllowlist = splitList(val)
	}
	if val := os.Getenv("THEMIS_DLP_MIN_LIKELIHOOD"); val != "" {
		cfg.DLP.MinLikelihood = val
	}
	if val := os.Getenv("THEMIS_DLP_RESPONSE_MODE"); val != "" {
		cfg.DLP.ResponseMode = val
	}

	// Detector overrides
	if val := os.Getenv("THEMIS_DETECTOR_BASE_URL"); val != "" {
		cfg.Detector.BaseURL = val
	}
	if val := os.Getenv("THEMIS_DETECTOR_API_KEY"); val != "" {
		cfg.Detector.APIKey = val
	}
	if val := os.Getenv("THEMIS_DETECTOR_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Detector.Timeout = d
		}
	}

	// Moderation overrides
	if val := os.Getenv("THEMIS_SAFETY_MODE"); val != "" {
		cfg.Moderation.SafetyMode = val
	}
	if val := os.Getenv("THEMIS_SAFETY_FAIL_OPEN"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Moderation.FailOpen = &b
		}
	}
	if val := os.Getenv("THEMIS_MODERATION_BUILTIN_BASE_URL"); val != "" {
		cfg.Moderation.Builtin.BaseURL = val
	}
	if val := os.Getenv("THEMIS_MODERATION_BUILTIN_API_KEY"); val != "" {
		cfg.Moderation.Builtin.APIKey = val
	}
	if val := os.Getenv("THEMIS_MODERATION_ADVANCED_BASE_URL"); val != "" {
		cfg.Moderation.Advanced.BaseURL = val
	}
	if val := os.Getenv("THEMIS_MODERATION_ADVANCED_API_KEY"); val != "" {
		cfg.Moderation.Advanced.APIKey = val
	}
	if val := os.Getenv("THEMIS_MODERATION_PROMPT_TEMPLATE"); val != "" {
		cfg.Moderation.PromptTemplateID = val
	}
	if val := os.Getenv("THEMIS_MODERATION_RESPONSE_TEMPLATE"); val != "" {
		cfg.Moderation.ResponseTemplateID = val
	}

	// Vault overrides
	if val := os.Getenv("THEMIS_VAULT_PATH"); val != "" {
		cfg.Vault.Path = val
	}
	if val := os.Getenv("THEMIS_VAULT_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Vault.TTL = d
		}
	}

	// Evidence overrides
	if val := os.Getenv("THEMIS_EVIDENCE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Evidence.Enabled = &b
		}
	}
	if val := os.Getenv("THEMIS_EVIDENCE_BACKEND"); val != "" {
		cfg.Evidence.Backend = val
	}
	if val := os.Getenv("THEMIS_EVIDENCE_SQLITE_PATH"); val != "" {
		cfg.Evidence.SQLitePath = val
	}

	// Telemetry overrides
	if val := os.Getenv("THEMIS_LOGGING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Logging.Enabled = &b
		}
	}
	if val := os.Getenv("THEMIS_LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("THEMIS_LOG_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("THEMIS_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
}

// splitList splits a comma-separated list, trimming whitespace.
func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
