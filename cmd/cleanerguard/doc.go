// Package main hosts the cleanerguard CLI entrypoint and command graph.
//
// The Cobra-based command tree discovers cleaner definition files, runs the
// trust-on-first-use scan against the trust store, and exposes inspection and
// maintenance commands for trust records and configuration. It centralizes
// configuration resolution, store locking, and logger setup so subcommands can
// focus on presentation.
//
// Keep this package lean: behaviour belongs in the internal packages and is
// surfaced here through dedicated commands or flags.
package main
