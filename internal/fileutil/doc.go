// Package fileutil holds small filesystem helpers shared by the scanner and
// the CLI: absolute path normalization, lexical containment checks, and a
// guarded single-file removal.
package fileutil
