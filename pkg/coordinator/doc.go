// Package coordinator sequences the safety pipeline for one user turn.
//
// The prompt phase runs the sensitive-data pipeline first and then
// moderates the processed text (not the raw input), so moderation never
// sees already-redacted categories as if they were benign; the
// transformed text is what actually reaches the model. A blocked prompt
// aborts the turn before the model call and the response phase is never
// entered. The response phase reuses the same pipeline contract with the
// caller's response-side configuration.
//
// Data flows strictly forward per turn. The coordinator holds only
// read-only configuration and shared, concurrency-safe client handles;
// each turn's results are owned by that turn and handed to the caller by
// value.
package coordinator
