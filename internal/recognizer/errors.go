package recognizer

import (
	"errors"
	"fmt"

	"cleanerguard/internal/fileutil"
)

var (
	// ErrNotClassified means Accept was called for a path Classify has not seen.
	ErrNotClassified = errors.New("definition file has not been classified")
	// ErrNoConfirmer is returned when a file needs a decision but no confirmer was configured.
	ErrNoConfirmer = errors.New("no confirmer configured")
	// ErrOutsideRoots is returned (wrapped in *DeleteError) when a rejected file
	// lives outside every allowed definition directory.
	ErrOutsideRoots = fileutil.ErrOutsideRoots
)

// DeleteError reports a rejected definition file that could not be removed.
type DeleteError struct {
	Path string
	Err  error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("delete cleaner definition %s: %v", e.Path, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }
