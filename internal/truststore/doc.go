// Package truststore persists the per-installation salt and the last accepted
// fingerprint of every cleaner definition file.
//
// Two scopes are stored: a single global `hashsalt` value and a `hashpath`
// section mapping absolute paths to hex digests. Lookups of missing values
// return ErrNotFound, which callers treat as "never seen" rather than as a
// failure.
//
// # Backends
//
// The JSON backend keeps a human-readable document that is easy to inspect
// or edit manually (default: ~/.local/share/cleanerguard/trust.json). The
// SQLite backend stores the same data in an embedded database for users who
// keep many definition files. An in-memory backend serves tests and dry runs.
//
// # Locking
//
// Stores assume a single writer. The CLI takes an advisory file lock via Lock
// for the duration of a scan so two concurrent runs cannot interleave prompts
// and writes.
package truststore
