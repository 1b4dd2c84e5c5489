package dlp

import (
	"fmt"
	"sort"
	"strings"
)

// Likelihood is the confidence tier the detector assigns to a finding.
// Tiers are ordered: a higher value means the detector is more confident
// that the span really is the reported category.
type Likelihood int

const (
	// LikelihoodUnspecified means the detector did not report a tier.
	LikelihoodUnspecified Likelihood = iota

	// LikelihoodVeryUnlikely is the lowest confidence tier.
	LikelihoodVeryUnlikely

	// LikelihoodUnlikely is below-neutral confidence.
	LikelihoodUnlikely

	// LikelihoodPossible is the neutral tier and the default minimum
	// threshold for keeping findings.
	LikelihoodPossible

	// LikelihoodLikely is above-neutral confidence.
	LikelihoodLikely

	// LikelihoodVeryLikely is the highest confidence tier.
	LikelihoodVeryLikely
)

// likelihoodNames maps tiers to their wire-format names.
var likelihoodNames = map[Likelihood]string{
	LikelihoodUnspecified:  "LIKELIHOOD_UNSPECIFIED",
	LikelihoodVeryUnlikely: "VERY_UNLIKELY",
	LikelihoodUnlikely:     "UNLIKELY",
	LikelihoodPossible:     "POSSIBLE",
	LikelihoodLikely:       "LIKELY",
	LikelihoodVeryLikely:   "VERY_LIKELY",
}

// String returns the wire-format name of the likelihood tier.
func (l Likelihood) String() string {
	if name, ok := likelihoodNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LIKELIHOOD(%d)", int(l))
}

// ParseLikelihood converts a wire-format likelihood name to a Likelihood.
// Unknown names map to LikelihoodUnspecified.
func ParseLikelihood(name string) Likelihood {
	for l, n := range likelihoodNames {
		if n == name {
			return l
		}
	}
	return LikelihoodUnspecified
}

// Span is a single detector finding: a byte range of the scanned text
// annotated with a category and a confidence tier. Spans are immutable
// once created; the resolver and transformer never modify their inputs.
type Span struct {
	// Start is the inclusive byte offset of the finding.
	Start int

	// End is the exclusive byte offset of the finding.
	End int

	// Category is the sensitive-data category (e.g., "EMAIL_ADDRESS").
	Category string

	// Likelihood is the detector's confidence tier for this finding.
	Likelihood Likelihood
}

// Length returns the span's length in bytes.
func (s Span) Length() int {
	return s.End - s.Start
}

// validate checks the span invariant against the scanned text length.
func (s Span) validate(textLen int) error {
	if s.Start < 0 || s.End > textLen || s.Start >= s.End {
		return &MalformedSpanError{Span: s, TextLength: textLen}
	}
	return nil
}

// Mode selects how the pipeline treats detected sensitive data.
type Mode string

const (
	// ModeInspectOnly detects sensitive data without modifying the text.
	ModeInspectOnly Mode = "inspect_only"

	// ModeDeidentify transforms detected spans using the configured method.
	ModeDeidentify Mode = "deidentify"

	// ModeRedact replaces detected spans with a fixed literal marker,
	// regardless of the configured method.
	ModeRedact Mode = "redact"

	// ModeDisabled skips detection entirely; no remote call is made.
	ModeDisabled Mode = "disabled"
)

// ParseMode converts a configuration string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeInspectOnly, ModeDeidentify, ModeRedact, ModeDisabled:
		return Mode(strings.ToLower(s)), nil
	}
	return "", &ConfigurationError{Field: "mode", Message: fmt.Sprintf("unknown mode %q", s)}
}

// Method selects the transformation applied to detected spans.
type Method string

const (
	// MethodMasking replaces each span with a run of mask characters of
	// the same character length, preserving total text length.
	MethodMasking Method = "masking"

	// MethodTokenization replaces each span with an opaque token in the
	// format TOKEN(<n>):<opaque>. The opaque part is freshly generated on
	// every call; only the length marker is deterministic.
	MethodTokenization Method = "tokenization"

	// MethodRedaction replaces each span with the literal "[REDACTED]".
	// It is only valid under ModeRedact.
	MethodRedaction Method = "redaction"
)

// ParseMethod converts a configuration string to a Method.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(s)) {
	case MethodMasking, MethodTokenization, MethodRedaction:
		return Method(strings.ToLower(s)), nil
	}
	return "", &ConfigurationError{Field: "method", Message: fmt.Sprintf("unknown method %q", s)}
}

// Replacement records one substitution the transformer performed.
type Replacement struct {
	// Span is the original span that was replaced.
	Span Span

	// Text is the replacement text that was written in its place.
	Text string
}

// Manifest records exactly what a transformation changed. It exists so
// callers can decide whether the transformed text differs from the input
// and so tests can verify substitutions without re-parsing the output.
type Manifest struct {
	// OriginalLength is the byte length of the input text.
	OriginalLength int

	// TransformedLength is the byte length of the output text.
	TransformedLength int

	// Replacements lists the substitutions in ascending span order.
	Replacements []Replacement
}

// Changed reports whether the transformation produced different text.
func (m *Manifest) Changed() bool {
	return m != nil && len(m.Replacements) > 0
}

// Result is the outcome of one pipeline run over a single text.
// All derived fields are computed at construction time.
type Result struct {
	// Mode is the mode the pipeline ran in.
	Mode Mode

	// Method is the transformation method that was applied (or would have
	// been applied; meaningful only for ModeDeidentify and ModeRedact).
	Method Method

	// Findings are the resolved, non-overlapping spans.
	Findings []Span

	// ProcessedText is the (possibly transformed) text. For ModeInspectOnly
	// and ModeDisabled it is byte-identical to the input.
	ProcessedText string

	// CategoriesFound are the distinct finding categories, sorted.
	CategoriesFound []string

	// Manifest records the substitutions; nil when no transformation ran.
	Manifest *Manifest
}

// HasFindings reports whether the scan produced any findings.
func (r *Result) HasFindings() bool {
	return len(r.Findings) > 0
}

// Summary returns a human-readable account of the scan, suitable for
// display to the end user.
func (r *Result) Summary() string {
	if !r.HasFindings() {
		return "No sensitive data detected"
	}

	counts := make(map[string]int)
	for _, f := range r.Findings {
		counts[f.Category]++
	}

	parts := make([]string, 0, len(counts))
	for _, cat := range r.CategoriesFound {
		parts = append(parts, fmt.Sprintf("%s: %d", cat, counts[cat]))
	}

	return fmt.Sprintf("Found %d sensitive data instance(s): %s",
		len(r.Findings), strings.Join(parts, ", "))
}

// categoriesOf extracts the sorted distinct categories from a span list.
func categoriesOf(spans []Span) []string {
	seen := make(map[string]struct{}, len(spans))
	for _, s := range spans {
		seen[s.Category] = struct{}{}
	}
	cats := make([]string, 0, len(seen))
	for c := range seen {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}
