package recognizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"cleanerguard/internal/fileutil"
	"cleanerguard/internal/fingerprint"
	"cleanerguard/internal/logging"
	"cleanerguard/internal/truststore"
)

const defaultWorkers = 4

// Confirmer asks the user whether to trust a changed or new definition file.
// true means accept, false means delete.
type Confirmer interface {
	Confirm(ctx context.Context, path string, c Classification) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, path string, c Classification) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, path string, c Classification) (bool, error) {
	return f(ctx, path, c)
}

// Options tunes a Recognizer. The zero value is usable.
type Options struct {
	Logger *slog.Logger
	// Notices receives the plain-text deletion notice. Defaults to stdout.
	Notices io.Writer
	// Roots restricts deletion to files under these directories. Empty
	// disables the check.
	Roots []string
	// Workers bounds parallel read+hash work during Scan.
	Workers int
	// Remove deletes a rejected file. Defaults to fileutil.RemoveFile.
	Remove func(path string) error
	// RunID tags log lines of this recognizer. Generated when empty.
	RunID string
}

// Recognizer classifies definition files against a trust store and resolves
// changed or new ones through a Confirmer.
type Recognizer struct {
	store     truststore.Store
	confirmer Confirmer
	logger    *slog.Logger
	notices   io.Writer
	roots     []string
	workers   int
	remove    func(string) error
	runID     string

	mu      sync.Mutex
	salt    string
	pending map[string]string // path -> digest computed by the last Classify
}

// NewRecognizer wires a Recognizer. It performs no I/O.
func NewRecognizer(store truststore.Store, confirmer Confirmer, opts Options) *Recognizer {
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	notices := opts.Notices
	if notices == nil {
		notices = os.Stdout
	}
	remove := opts.Remove
	if remove == nil {
		remove = fileutil.RemoveFile
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	logger := logging.NewComponentLogger(opts.Logger, "recognizer").With(logging.String(logging.FieldRunID, runID))

	return &Recognizer{
		store:     store,
		confirmer: confirmer,
		logger:    logger,
		notices:   notices,
		roots:     append([]string(nil), opts.Roots...),
		workers:   workers,
		remove:    remove,
		runID:     runID,
		pending:   make(map[string]string),
	}
}

// RunID returns the identifier attached to this recognizer's log lines.
func (r *Recognizer) RunID() string { return r.runID }

// Classify fingerprints the file at path and compares it with the stored
// record. The fresh fingerprint is cached for a following Accept.
func (r *Recognizer) Classify(ctx context.Context, path string) (Classification, error) {
	abs, err := fileutil.Abs(path)
	if err != nil {
		return 0, err
	}
	salt, err := r.ensureSalt(ctx)
	if err != nil {
		return 0, err
	}
	digest, err := fingerprint.File(ctx, salt, abs)
	if err != nil {
		return 0, err
	}
	return r.classifyDigest(ctx, abs, digest)
}

// Accept records the fingerprint computed by the last Classify of path as trusted.
func (r *Recognizer) Accept(ctx context.Context, path string) error {
	abs, err := fileutil.Abs(path)
	if err != nil {
		return err
	}
	r.mu.Lock()
	digest, ok := r.pending[abs]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotClassified, abs)
	}
	if err := r.store.SetDigest(ctx, abs, digest); err != nil {
		return fmt.Errorf("record fingerprint for %s: %w", abs, err)
	}
	r.mu.Lock()
	delete(r.pending, abs)
	r.mu.Unlock()

	r.logger.Info("trusted cleaner definition", logging.String(logging.FieldPath, abs))
	return nil
}

// Reject deletes the file at path after the containment check. The trust
// store is left untouched. Failures are returned as *DeleteError.
func (r *Recognizer) Reject(path string) error {
	abs, err := fileutil.Abs(path)
	if err != nil {
		return &DeleteError{Path: path, Err: err}
	}
	if len(r.roots) > 0 && !fileutil.WithinAny(r.roots, abs) {
		return &DeleteError{Path: abs, Err: ErrOutsideRoots}
	}

	fmt.Fprintf(r.notices, "info: deleting cleaner definition '%s'\n", abs)
	r.logger.Info("deleting cleaner definition", logging.String(logging.FieldPath, abs))

	if err := r.remove(abs); err != nil {
		return &DeleteError{Path: abs, Err: err}
	}
	r.mu.Lock()
	delete(r.pending, abs)
	r.mu.Unlock()
	return nil
}

func (r *Recognizer) ensureSalt(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.salt != "" {
		return r.salt, nil
	}
	salt, err := truststore.SaltOrCreate(ctx, r.store)
	if err != nil {
		return "", err
	}
	r.salt = salt
	return salt, nil
}

func (r *Recognizer) classifyDigest(ctx context.Context, abs, digest string) (Classification, error) {
	stored, err := r.store.Digest(ctx, abs)
	found := err == nil
	if err != nil && !errors.Is(err, truststore.ErrNotFound) {
		return 0, fmt.Errorf("look up fingerprint for %s: %w", abs, err)
	}

	r.mu.Lock()
	r.pending[abs] = digest
	r.mu.Unlock()

	return Classify(stored, found, digest), nil
}

type hashed struct {
	path   string
	digest string
	err    error
}

// hashAll reads and fingerprints every path with bounded parallelism. Per-file
// errors are kept on the entry; only cancellation fails the whole call.
func (r *Recognizer) hashAll(ctx context.Context, salt string, paths []string) ([]hashed, error) {
	out := make([]hashed, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, path := range paths {
		g.Go(func() error {
			digest, err := fingerprint.File(gctx, salt, path)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			out[i] = hashed{path: path, digest: digest, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizePaths(paths []string) ([]string, error) {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		abs, err := fileutil.Abs(path)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	return out, nil
}
