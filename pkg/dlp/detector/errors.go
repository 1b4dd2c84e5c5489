package detector

import (
	"fmt"
	"time"
)

// AuthError reports that the detector rejected the client's credentials
// (HTTP 401 or 403).
type AuthError struct {
	// Message is the error message from the service.
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("detector authentication failed: %s", e.Message)
}

// QuotaError reports that the detector refused the request because the
// client exhausted its quota (HTTP 429).
type QuotaError struct {
	// Message is the error message from the service.
	Message string
}

// Error implements the error interface.
func (e *QuotaError) Error() string {
	return fmt.Sprintf("detector quota exceeded: %s", e.Message)
}

// TimeoutError reports that the request exceeded the configured per-call
// timeout.
type TimeoutError struct {
	// Timeout is the configured timeout duration.
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("detector request timeout after %s", e.Timeout)
}

// ServiceError reports any other failure from the detector service.
type ServiceError struct {
	// StatusCode is the HTTP status code (0 if the request never completed).
	StatusCode int

	// Message is the error message.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("detector error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("detector error: %s", e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *ServiceError) Unwrap() error {
	return e.Cause
}
