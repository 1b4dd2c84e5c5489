package moderation

import "fmt"

// ModerationUnavailableError reports that an explicitly requested
// moderation layer could not be consulted and fail-open was disabled
// (or the layer was the builtin one, whose absence is a deployment
// error rather than a runtime fallback case). The turn must be rejected
// with a clear "protection unavailable" signal rather than proceeding
// silently.
type ModerationUnavailableError struct {
	// Layer is the layer that was unavailable.
	Layer Source

	// Detail describes the failure.
	Detail string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *ModerationUnavailableError) Error() string {
	return fmt.Sprintf("moderation layer %q unavailable: %s", e.Layer, e.Detail)
}

// Unwrap returns the underlying error for error chain support.
func (e *ModerationUnavailableError) Unwrap() error {
	return e.Cause
}

// LayerError reports a remote moderation service failure at the client
// boundary, before the gate's availability policy is applied.
type LayerError struct {
	// Layer is the layer whose client failed.
	Layer Source

	// StatusCode is the HTTP status code (0 if the request never completed).
	StatusCode int

	// Message is the error message.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *LayerError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("moderation layer %q error (status %d): %s", e.Layer, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("moderation layer %q error: %s", e.Layer, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *LayerError) Unwrap() error {
	return e.Cause
}
