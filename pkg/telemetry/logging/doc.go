// Package logging builds the process logger on log/slog. Output is
// JSON or text at a configurable level, and every attribute passes
// through a Redactor so credentials and contact details the pipeline
// handles never appear in log output. When logging is disabled the
// constructor returns a discard logger rather than nil so callers
// never need to guard their log calls.
package logging
