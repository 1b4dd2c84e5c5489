// Package vault persists tokenization mappings for re-identification.
//
// When the transformer tokenizes a span it generates a fresh opaque token;
// the vault records that token's original content so an authorized caller
// can reverse it later with Lookup. Entries carry a TTL and are pruned by
// the retention scheduler. The backing store is an embedded SQLite
// database using the pure-Go driver, so the vault needs no cgo and no
// external service.
package vault
