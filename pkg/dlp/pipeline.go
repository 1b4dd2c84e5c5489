package dlp

import (
	"context"
	"log/slog"
	"time"

	"aegis-hq/themis/pkg/dlp/detector"
)

// ProcessConfig controls one pipeline run. It is validated once, before
// any request is processed; the pipeline never consults ambient state.
type ProcessConfig struct {
	// Mode selects the processing mode.
	Mode Mode

	// Method selects the transformation under ModeDeidentify. It must be
	// MethodMasking or MethodTokenization; MethodRedaction is only reachable
	// through ModeRedact.
	Method Method

	// CategoryAllowlist restricts detection to the named categories.
	// Empty means the detector's default category set.
	CategoryAllowlist []string

	// MinLikelihood drops findings below this confidence tier before
	// resolution. Zero means LikelihoodPossible.
	MinLikelihood Likelihood
}

// Validate rejects invalid mode/method combinations. It must pass before
// Process is called; Process also enforces it as a fail-fast guard.
func (c ProcessConfig) Validate() error {
	switch c.Mode {
	case ModeInspectOnly, ModeDeidentify, ModeRedact, ModeDisabled:
	default:
		return &ConfigurationError{Field: "mode", Message: "unknown mode " + string(c.Mode)}
	}

	if c.Mode == ModeDeidentify {
		switch c.Method {
		case MethodMasking, MethodTokenization:
		case MethodRedaction:
			return &ConfigurationError{
				Field:   "method",
				Message: "redaction is not a deidentify method; use redact mode",
			}
		default:
			return &ConfigurationError{Field: "method", Message: "unknown method " + string(c.Method)}
		}
	}

	return nil
}

// effectiveMinLikelihood returns the configured threshold, defaulting to
// LikelihoodPossible.
func (c ProcessConfig) effectiveMinLikelihood() Likelihood {
	if c.MinLikelihood == LikelihoodUnspecified {
		return LikelihoodPossible
	}
	return c.MinLikelihood
}

// Pipeline orchestrates one detector call, span resolution, and the
// configured transformation. It holds only shared client handles and is
// safe for concurrent use; all per-run state lives in the Result.
type Pipeline struct {
	detector detector.Client
	store    TokenStore
	logger   *slog.Logger
}

// NewPipeline creates a pipeline over the given detector client. The
// token store may be nil; it is used only for tokenization.
func NewPipeline(client detector.Client, store TokenStore) *Pipeline {
	return &Pipeline{
		detector: client,
		store:    store,
		logger:   slog.Default().With("component", "dlp.pipeline"),
	}
}

// Process scans and transforms one text according to cfg.
//
// ModeDisabled returns immediately without a remote call. Detector
// failures propagate as DetectorUnavailableError and are never treated
// as "no findings": the caller decides whether absence of a scan means
// "send original text" or "block".
func (p *Pipeline) Process(ctx context.Context, text string, cfg ProcessConfig) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Mode == ModeDisabled {
		return &Result{
			Mode:            ModeDisabled,
			Method:          cfg.Method,
			Findings:        []Span{},
			ProcessedText:   text,
			CategoriesFound: []string{},
		}, nil
	}

	findings, err := p.inspect(ctx, text, cfg)
	if err != nil {
		return nil, err
	}

	resolved, err := Resolve(findings, len(text))
	if err != nil {
		return nil, err
	}

	result := &Result{
		Mode:            cfg.Mode,
		Method:          cfg.Method,
		Findings:        resolved,
		ProcessedText:   text,
		CategoriesFound: categoriesOf(resolved),
	}

	switch cfg.Mode {
	case ModeInspectOnly:
		return result, nil

	case ModeDeidentify:
		return p.transform(ctx, text, result, cfg.Method)

	case ModeRedact:
		// Redact overrides the configured method unconditionally.
		result.Method = MethodRedaction
		return p.transform(ctx, text, result, MethodRedaction)
	}

	return result, nil
}

// inspect performs the single remote detector call and converts the wire
// findings into spans, applying the minimum likelihood threshold. An
// empty allowlist requests the detector's default category set.
func (p *Pipeline) inspect(ctx context.Context, text string, cfg ProcessConfig) ([]Span, error) {
	categories := cfg.CategoryAllowlist
	if len(categories) == 0 {
		categories = detector.DefaultCategories
	}

	start := time.Now()
	resp, err := p.detector.Inspect(ctx, detector.Request{
		Text:       text,
		Categories: categories,
	})
	if err != nil {
		return nil, &DetectorUnavailableError{Cause: err}
	}

	minLikelihood := cfg.effectiveMinLikelihood()
	spans := make([]Span, 0, len(resp.Findings))
	for _, f := range resp.Findings {
		likelihood := ParseLikelihood(f.Likelihood)
		if likelihood < minLikelihood {
			continue
		}
		spans = append(spans, Span{
			Start:      f.Start,
			End:        f.End,
			Category:   f.Category,
			Likelihood: likelihood,
		})
	}

	p.logger.Debug("detector scan complete",
		"raw_findings", len(resp.Findings),
		"kept", len(spans),
		"duration", time.Since(start),
	)
	return spans, nil
}

// transform applies the method to the resolved spans and fills in the
// processed text and manifest.
func (p *Pipeline) transform(ctx context.Context, text string, result *Result, method Method) (*Result, error) {
	if !result.HasFindings() {
		return result, nil
	}

	transformer := NewTransformer(method, p.store)
	processed, manifest, err := transformer.Apply(ctx, text, result.Findings)
	if err != nil {
		return nil, err
	}

	result.ProcessedText = processed
	result.Manifest = manifest
	return result, nil
}
