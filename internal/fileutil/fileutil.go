package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoots reports a path that does not live under any allowed root.
var ErrOutsideRoots = errors.New("path is outside the definition directories")

// Abs cleans path and makes it absolute.
func Abs(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", path, err)
	}
	return filepath.Clean(abs), nil
}

// Within reports whether path is root itself or lives below it. The check is
// lexical: both sides are cleaned and made absolute, symlinks are not resolved.
func Within(root, path string) bool {
	absRoot, err := Abs(root)
	if err != nil {
		return false
	}
	absPath, err := Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// WithinAny reports whether path is below any of roots.
func WithinAny(roots []string, path string) bool {
	for _, root := range roots {
		if Within(root, path) {
			return true
		}
	}
	return false
}

// RemoveFile deletes a regular file. Directories are refused so a bad record
// can never take a tree with it.
func RemoveFile(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("refusing to remove directory %s", path)
	}
	return os.Remove(path)
}
