// Package discovery enumerates the local cleaner definition files that must be
// checked against the trust store.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"cleanerguard/internal/config"
	"cleanerguard/internal/logging"
)

// Options selects which files are returned.
type Options struct {
	Dirs    []string
	Include []string // doublestar globs relative to each dir
	Exclude []string
	Logger  *slog.Logger
}

// OptionsFromConfig builds discovery options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	return Options{
		Dirs:    cfg.Paths.DefinitionDirs,
		Include: cfg.Discovery.Include,
		Exclude: cfg.Discovery.Exclude,
		Logger:  logger,
	}
}

// List walks every directory and returns absolute, deduplicated, sorted paths
// of files matching an include glob and no exclude glob. Missing directories
// are skipped. A configured directory that is itself a symlink is resolved,
// and its files are reported under the configured path. Nested directory
// symlinks are not followed. Unreadable subdirectories are logged and skipped.
func List(ctx context.Context, opts Options) ([]string, error) {
	logger := logging.NewComponentLogger(opts.Logger, "discovery")
	include := opts.Include
	if len(include) == 0 {
		include = []string{"**/*.xml"}
	}

	seen := make(map[string]struct{})
	var files []string
	for _, dir := range opts.Dirs {
		root, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolve definition dir %q: %w", dir, err)
		}
		info, err := os.Stat(root)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("definition directory missing", logging.String("dir", root))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("stat definition dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("definition dir %s is not a directory", root)
		}
		walkRoot, err := filepath.EvalSymlinks(root)
		if err != nil {
			return nil, fmt.Errorf("resolve definition dir %s: %w", root, err)
		}

		err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				if path == walkRoot {
					return walkErr
				}
				logging.WarnWithContext(logger, "skipping unreadable entry", "definition_dir_unreadable",
					logging.String(logging.FieldPath, path),
					logging.Error(walkErr),
					logging.String(logging.FieldErrorHint, "check the directory permissions"),
					logging.String(logging.FieldImpact, "definition files below this entry are not checked"))
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if path == walkRoot || d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(walkRoot, path)
			if err != nil {
				return err
			}
			if !matchAny(include, filepath.ToSlash(rel)) || matchAny(opts.Exclude, filepath.ToSlash(rel)) {
				return nil
			}
			if !isRegularFile(path, d) {
				return nil
			}
			reported := filepath.Join(root, rel)
			if _, dup := seen[reported]; dup {
				return nil
			}
			seen[reported] = struct{}{}
			files = append(files, reported)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}

	sort.Strings(files)
	logger.Debug("discovered definition files", logging.Int("file_count", len(files)))
	return files, nil
}

func matchAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		ok, err := doublestar.Match(pattern, rel)
		if err == nil && ok {
			return true
		}
	}
	return false
}

func isRegularFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
