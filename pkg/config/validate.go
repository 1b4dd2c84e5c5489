package config

import (
	"fmt"
	"net/url"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "dlp.mode").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. All field errors are collected and returned together.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

var (
	validModes       = map[string]bool{"inspect_only": true, "deidentify": true, "redact": true, "disabled": true}
	validMethods     = map[string]bool{"masking": true, "tokenization": true}
	validLikelihoods = map[string]bool{"VERY_UNLIKELY": true, "UNLIKELY": true, "POSSIBLE": true, "LIKELY": true, "VERY_LIKELY": true}
	validSafetyModes = map[string]bool{"builtin_only": true, "advanced_only": true, "both": true}
	validBackends    = map[string]bool{"sqlite": true, "memory": true}
	validLogLevels   = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats  = map[string]bool{"json": true, "text": true}
)

// Validate validates the entire configuration. Invalid mode/method
// combinations are rejected here, before any request is processed.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateDLP(&cfg.DLP)...)
	errs = append(errs, validateDetector(cfg)...)
	errs = append(errs, validateModeration(&cfg.Moderation)...)
	errs = append(errs, validateEvidence(&cfg.Evidence)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// validateDLP checks the sensitive-data processing configuration.
func validateDLP(dlp *DLPConfig) []FieldError {
	var errs []FieldError

	if !validModes[dlp.Mode] {
		errs = append(errs, FieldError{Field: "dlp.mode",
			Message: fmt.Sprintf("invalid mode %q (valid: inspect_only, deidentify, redact, disabled)", dlp.Mode)})
	}
	if !validModes[dlp.ResponseMode] {
		errs = append(errs, FieldError{Field: "dlp.response_mode",
			Message: fmt.Sprintf("invalid mode %q (valid: inspect_only, deidentify, redact, disabled)", dlp.ResponseMode)})
	}
	// Redaction is reachable only through redact mode; the configured
	// method is restricted to the deidentify transformations.
	if !validMethods[dlp.Method] {
		errs = append(errs, FieldError{Field: "dlp.method",
			Message: fmt.Sprintf("invalid method %q (valid: masking, tokenization)", dlp.Method)})
	}
	if !validLikelihoods[dlp.MinLikelihood] {
		errs = append(errs, FieldError{Field: "dlp.min_likelihood",
			Message: fmt.Sprintf("invalid likelihood %q", dlp.MinLikelihood)})
	}

	return errs
}

// validateDetector checks the detector client configuration. The
// endpoint is required only when some phase actually scans.
func validateDetector(cfg *Config) []FieldError {
	var errs []FieldError

	scansRun := boolVal(cfg.DLP.Enabled) &&
		(cfg.DLP.Mode != "disabled" || cfg.DLP.ResponseMode != "disabled")
	if scansRun && cfg.Detector.BaseURL == "" {
		errs = append(errs, FieldError{Field: "detector.base_url",
			Message: "required when dlp is enabled"})
	}
	if cfg.Detector.BaseURL != "" {
		if _, err := url.Parse(cfg.Detector.BaseURL); err != nil {
			errs = append(errs, FieldError{Field: "detector.base_url",
				Message: fmt.Sprintf("invalid URL: %v", err)})
		}
	}
	if cfg.Detector.Timeout < 0 {
		errs = append(errs, FieldError{Field: "detector.timeout", Message: "must not be negative"})
	}

	return errs
}

// validateModeration checks the moderation gate configuration.
func validateModeration(mod *ModerationConfig) []FieldError {
	var errs []FieldError

	if !validSafetyModes[mod.SafetyMode] {
		errs = append(errs, FieldError{Field: "moderation.safety_mode",
			Message: fmt.Sprintf("invalid safety mode %q (valid: builtin_only, advanced_only, both)", mod.SafetyMode)})
	}

	requiresBuiltin := mod.SafetyMode == "builtin_only" || mod.SafetyMode == "both"
	if requiresBuiltin && mod.Builtin.BaseURL == "" {
		errs = append(errs, FieldError{Field: "moderation.builtin.base_url",
			Message: "required for safety mode " + mod.SafetyMode})
	}

	// The advanced layer may be requested without templates; it then
	// reports unavailable and the fail-open policy decides. An endpoint
	// without templates (or vice versa) is still worth flagging.
	requiresAdvanced := mod.SafetyMode == "advanced_only" || mod.SafetyMode == "both"
	hasTemplate := mod.PromptTemplateID != "" || mod.ResponseTemplateID != ""
	if requiresAdvanced && hasTemplate && mod.Advanced.BaseURL == "" {
		errs = append(errs, FieldError{Field: "moderation.advanced.base_url",
			Message: "required when advanced templates are configured"})
	}

	for category, threshold := range mod.Thresholds {
		if threshold < 0 || threshold > 1 {
			errs = append(errs, FieldError{
				Field:   "moderation.thresholds." + category,
				Message: fmt.Sprintf("must be in [0, 1], got %v", threshold),
			})
		}
	}
	if mod.Timeout < 0 {
		errs = append(errs, FieldError{Field: "moderation.timeout", Message: "must not be negative"})
	}

	return errs
}

// validateEvidence checks the audit-trail configuration.
func validateEvidence(ev *EvidenceConfig) []FieldError {
	var errs []FieldError

	if !validBackends[ev.Backend] {
		errs = append(errs, FieldError{Field: "evidence.backend",
			Message: fmt.Sprintf("invalid backend %q (valid: sqlite, memory)", ev.Backend)})
	}
	if ev.Backend == "sqlite" && ev.SQLitePath == "" {
		errs = append(errs, FieldError{Field: "evidence.sqlite_path", Message: "required for sqlite backend"})
	}
	if ev.RetentionDays < 0 {
		errs = append(errs, FieldError{Field: "evidence.retention_days", Message: "must not be negative"})
	}

	return errs
}

// validateTelemetry checks logging and metrics configuration.
func validateTelemetry(tel *TelemetryConfig) []FieldError {
	var errs []FieldError

	if !validLogLevels[tel.Logging.Level] {
		errs = append(errs, FieldError{Field: "telemetry.logging.level",
			Message: fmt.Sprintf("invalid level %q (valid: debug, info, warn, error)", tel.Logging.Level)})
	}
	if !validLogFormats[tel.Logging.Format] {
		errs = append(errs, FieldError{Field: "telemetry.logging.format",
			Message: fmt.Sprintf("invalid format %q (valid: json, text)", tel.Logging.Format)})
	}

	return errs
}
