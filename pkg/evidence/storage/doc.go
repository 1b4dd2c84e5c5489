// Package storage provides evidence storage backends: an in-memory
// implementation for tests and ephemeral sessions, and a SQLite
// implementation for durable audit trails. Both satisfy
// evidence.Storage and are safe for concurrent use.
package storage
