package dlp

import "fmt"

// MalformedSpanError reports a span whose coordinates violate the span
// invariant (start < end, both within the text's byte length). It is an
// internal invariant violation and is never silently recovered; callers
// must not proceed to transformation after receiving it.
type MalformedSpanError struct {
	// Span is the offending span.
	Span Span

	// TextLength is the byte length of the text the span was checked against.
	TextLength int
}

// Error implements the error interface.
func (e *MalformedSpanError) Error() string {
	return fmt.Sprintf("malformed span [%d, %d) for category %q: outside text of %d bytes",
		e.Span.Start, e.Span.End, e.Span.Category, e.TextLength)
}

// TransformError reports a span that could not be applied during
// transformation. The transformer returns the original text unmodified
// alongside this error; it never returns partially transformed text.
type TransformError struct {
	// Span is the span that failed to apply.
	Span Span

	// Message describes why the span could not be applied.
	Message string
}

// Error implements the error interface.
func (e *TransformError) Error() string {
	return fmt.Sprintf("transform failed for span [%d, %d): %s", e.Span.Start, e.Span.End, e.Message)
}

// ConfigurationError reports an invalid mode/method combination or an
// unparsable configuration value. It is raised before any request is
// processed; a pipeline with an invalid configuration never reaches the
// remote detector.
type ConfigurationError struct {
	// Field is the configuration field at fault.
	Field string

	// Message is a human-readable description of the problem.
	Message string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid dlp configuration: %s: %s", e.Field, e.Message)
}

// DetectorUnavailableError reports that the remote detector could not be
// reached or refused the request. It is never treated as "no findings";
// the caller decides whether to proceed with the original text or abort.
type DetectorUnavailableError struct {
	// Cause is the underlying client error.
	Cause error
}

// Error implements the error interface.
func (e *DetectorUnavailableError) Error() string {
	return fmt.Sprintf("sensitive-data detector unavailable: %v", e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *DetectorUnavailableError) Unwrap() error {
	return e.Cause
}
