// Package dlp implements sensitive-data detection and transformation for
// text passing through the safety pipeline.
//
// The package is organized leaf to root:
//
//   - Span: a byte range annotated with a category and likelihood tier
//   - Resolve: deterministic resolution of overlapping/adjacent spans
//   - Transformer: masking, tokenization, and redaction over resolved spans
//   - Pipeline: one detector call, resolution, and the configured transform
//
// # Modes and methods
//
// The pipeline runs in one of four modes. ModeDisabled short-circuits with
// no remote call. ModeInspectOnly detects but never modifies the text.
// ModeDeidentify applies masking (length-preserving: each character becomes
// "*") or tokenization (each span becomes "TOKEN(<n>):<opaque>" with a fresh
// opaque value per call). ModeRedact replaces each span with the literal
// "[REDACTED]" regardless of the configured method; redaction deliberately
// does not preserve length while masking does; that asymmetry is a fixed
// contract.
//
// # Error semantics
//
// The pipeline is pure with respect to errors: it never substitutes partial
// results. Malformed spans and failed transforms always surface
// (MalformedSpanError, TransformError), detector failures propagate as
// DetectorUnavailableError, and invalid mode/method combinations fail fast
// with ConfigurationError before any request is processed. System-wide
// fail-open policy is the coordinator's concern, never this package's.
//
// # Basic usage
//
//	client := detector.NewHTTPClient(detector.HTTPConfig{BaseURL: url, APIKey: key})
//	pipeline := dlp.NewPipeline(client, vault)
//
//	result, err := pipeline.Process(ctx, text, dlp.ProcessConfig{
//		Mode:   dlp.ModeDeidentify,
//		Method: dlp.MethodMasking,
//	})
//	if err != nil {
//		// DetectorUnavailableError: decide fail-open vs abort
//	}
//	send(result.ProcessedText)
package dlp
