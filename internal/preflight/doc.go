// Package preflight provides readiness checks for the filesystem paths and
// trust store cleanerguard depends on.
//
// The CLI "config validate" command runs RunAll and fails when any check does.
// A missing definition directory passes: a fresh install has nothing to scan.
package preflight
