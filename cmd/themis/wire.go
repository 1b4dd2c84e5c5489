package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"aegis-hq/themis/pkg/config"
	"aegis-hq/themis/pkg/coordinator"
	"aegis-hq/themis/pkg/dlp"
	"aegis-hq/themis/pkg/dlp/detector"
	"aegis-hq/themis/pkg/dlp/vault"
	"aegis-hq/themis/pkg/evidence"
	"aegis-hq/themis/pkg/evidence/retention"
	"aegis-hq/themis/pkg/evidence/storage"
	"aegis-hq/themis/pkg/moderation"
	"aegis-hq/themis/pkg/telemetry/metrics"
)

// stack holds the assembled pipeline and the resources it owns.
type stack struct {
	coordinator *coordinator.Coordinator
	vault       *vault.Vault
	evidence    evidence.Storage
	pruner      *retention.Pruner
	registry    *prometheus.Registry
}

// Close releases the stack's resources in reverse construction order.
func (s *stack) Close() {
	if s.pruner != nil {
		s.pruner.Stop()
	}
	if s.evidence != nil {
		s.evidence.Close()
	}
	if s.vault != nil {
		s.vault.Close()
	}
}

// buildStack assembles the full safety pipeline from validated
// configuration: detector client, token vault, moderation gate,
// evidence recorder, metrics, and the coordinator tying them together.
func buildStack(cfg *config.Config) (*stack, error) {
	s := &stack{}

	coordCfg, err := coordinatorConfig(cfg)
	if err != nil {
		return nil, err
	}

	detectorClient := detector.NewHTTPClient(detector.HTTPConfig{
		BaseURL:      cfg.Detector.BaseURL,
		APIKey:       cfg.Detector.APIKey,
		Timeout:      cfg.Detector.Timeout,
		MaxIdleConns: cfg.Detector.MaxIdleConns,
	})

	// The vault is needed only when tokenization can run.
	var store dlp.TokenStore
	if usesTokenization(coordCfg) {
		v, err := vault.Open(vault.Config{
			Path: cfg.Vault.Path,
			TTL:  cfg.Vault.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open token vault: %w", err)
		}
		s.vault = v
		store = v
	}

	pipeline := dlp.NewPipeline(detectorClient, store)

	var builtin moderation.BuiltinClient
	if cfg.Moderation.Builtin.BaseURL != "" {
		builtin = moderation.NewBuiltinHTTPClient(moderation.BuiltinHTTPConfig{
			BaseURL: cfg.Moderation.Builtin.BaseURL,
			APIKey:  cfg.Moderation.Builtin.APIKey,
		})
	}
	var advanced moderation.AdvancedClient
	if cfg.Moderation.Advanced.BaseURL != "" {
		advanced = moderation.NewAdvancedHTTPClient(moderation.AdvancedHTTPConfig{
			BaseURL: cfg.Moderation.Advanced.BaseURL,
			APIKey:  cfg.Moderation.Advanced.APIKey,
		})
	}

	gate := moderation.NewGate(builtin, advanced, moderation.GateConfig{
		Thresholds:         cfg.Moderation.Thresholds,
		PromptTemplateID:   cfg.Moderation.PromptTemplateID,
		ResponseTemplateID: cfg.Moderation.ResponseTemplateID,
		FailOpen:           boolValue(cfg.Moderation.FailOpen, true),
		Timeout:            cfg.Moderation.Timeout,
	})

	var recorder coordinator.Recorder
	if boolValue(cfg.Evidence.Enabled, true) {
		evidenceStore, err := buildEvidenceStorage(cfg)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.evidence = evidenceStore
		recorder = evidence.NewRecorder(evidenceStore)

		if cfg.Evidence.PruneSchedule != "" {
			var tokens retention.TokenPruner
			if s.vault != nil {
				tokens = s.vault
			}
			s.pruner = retention.NewPruner(evidenceStore, tokens, &retention.Config{
				RetentionDays: cfg.Evidence.RetentionDays,
				PruneSchedule: cfg.Evidence.PruneSchedule,
			})
		}
	}

	s.registry = prometheus.NewRegistry()
	safetyMetrics := metrics.NewSafetyMetrics(metrics.Config{
		Namespace: cfg.Telemetry.Metrics.Namespace,
		Subsystem: cfg.Telemetry.Metrics.Subsystem,
	}, s.registry)

	coord, err := coordinator.New(pipeline, gate, coordCfg, recorder, safetyMetrics)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.coordinator = coord

	return s, nil
}

// coordinatorConfig converts the YAML surface into the coordinator's
// typed configuration.
func coordinatorConfig(cfg *config.Config) (coordinator.Config, error) {
	safetyMode, err := moderation.ParseSafetyMode(cfg.Moderation.SafetyMode)
	if err != nil {
		return coordinator.Config{}, err
	}

	promptDLP, err := processConfig(cfg, cfg.DLP.Mode)
	if err != nil {
		return coordinator.Config{}, fmt.Errorf("prompt dlp: %w", err)
	}
	responseDLP, err := processConfig(cfg, cfg.DLP.ResponseMode)
	if err != nil {
		return coordinator.Config{}, fmt.Errorf("response dlp: %w", err)
	}

	return coordinator.Config{
		SafetyMode:  safetyMode,
		PromptDLP:   promptDLP,
		ResponseDLP: responseDLP,
	}, nil
}

// processConfig builds one phase's DLP configuration. A disabled DLP
// section forces disabled mode for both phases.
func processConfig(cfg *config.Config, modeStr string) (dlp.ProcessConfig, error) {
	if !boolValue(cfg.DLP.Enabled, true) {
		modeStr = string(dlp.ModeDisabled)
	}

	mode, err := dlp.ParseMode(modeStr)
	if err != nil {
		return dlp.ProcessConfig{}, err
	}
	method, err := dlp.ParseMethod(cfg.DLP.Method)
	if err != nil {
		return dlp.ProcessConfig{}, err
	}

	return dlp.ProcessConfig{
		Mode:              mode,
		Method:            method,
		CategoryAllowlist: cfg.DLP.CategoryAllowlist,
		MinLikelihood:     dlp.ParseLikelihood(cfg.DLP.MinLikelihood),
	}, nil
}

// usesTokenization reports whether any phase can write to the vault.
func usesTokenization(cfg coordinator.Config) bool {
	for _, pc := range []dlp.ProcessConfig{cfg.PromptDLP, cfg.ResponseDLP} {
		if pc.Mode == dlp.ModeDeidentify && pc.Method == dlp.MethodTokenization {
			return true
		}
	}
	return false
}

// buildEvidenceStorage creates the configured evidence backend.
func buildEvidenceStorage(cfg *config.Config) (evidence.Storage, error) {
	switch cfg.Evidence.Backend {
	case "sqlite":
		sqliteCfg := storage.DefaultSQLiteConfig()
		sqliteCfg.Path = cfg.Evidence.SQLitePath
		return storage.NewSQLiteStorage(sqliteCfg)
	case "memory":
		return storage.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported evidence backend: %s", cfg.Evidence.Backend)
	}
}

// boolValue dereferences an optional bool with a default.
func boolValue(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
