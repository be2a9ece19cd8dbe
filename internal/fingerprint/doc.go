// Package fingerprint computes keyed digests for cleaner definition files.
//
// This package has no cleanerguard-specific dependencies and could be
// extracted as a standalone library.
//
// A fingerprint is the SHA-512 digest of a per-installation salt followed by
// the full file contents, rendered as 128 lowercase hex characters. Mixing in
// the salt keeps fingerprints unpredictable to a definition author who cannot
// read the local trust store.
//
// Primary entry points:
//   - Sum: digest of salt and an in-memory byte slice
//   - File: digest of salt and the contents of a file on disk
//   - NewSalt: fresh random salt for a new installation
package fingerprint
