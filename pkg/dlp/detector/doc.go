// Package detector provides the client for the remote sensitive-data
// detection service.
//
// The detector receives text (optionally restricted to a category
// allowlist) and returns raw findings: byte ranges annotated with a
// category and a likelihood tier. Findings may overlap; resolving them
// is the dlp package's job, not the client's.
//
// The HTTP client pools connections and is safe for concurrent use.
// One client is constructed per process and reused for its lifetime.
// Failures map to typed errors (AuthError, QuotaError, TimeoutError,
// ServiceError) so the pipeline can surface them unambiguously. The
// client issues no retries.
package detector
