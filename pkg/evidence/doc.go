// Package evidence records an audit trail of conversation turns
// through the safety pipeline. Each completed turn becomes one Record
// carrying the moderation verdicts, sensitive-data category counts,
// and SHA-256 hashes of the processed text. Raw text is never stored.
//
// Storage backends live in the storage subpackage (in-memory for
// tests, SQLite for production). Retention enforcement lives in the
// retention subpackage.
package evidence
