package truststore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"cleanerguard/internal/config"
	"cleanerguard/internal/fingerprint"
	"cleanerguard/internal/logging"
)

var (
	// ErrNotFound reports a missing salt or fingerprint record.
	ErrNotFound = errors.New("not found")
	// ErrInvalidPath rejects empty or relative record keys.
	ErrInvalidPath = errors.New("trust record path must be absolute")
	// ErrInvalidDigest rejects values that are not fingerprints.
	ErrInvalidDigest = errors.New("invalid fingerprint digest")
)

// Record is the last accepted fingerprint for one definition file.
type Record struct {
	Path       string    `json:"path"`
	Digest     string    `json:"digest"`
	AcceptedAt time.Time `json:"accepted_at"`
}

// Store is the key-value persistence consumed by the recognizer.
type Store interface {
	// Salt returns the installation salt or ErrNotFound.
	Salt(ctx context.Context) (string, error)
	// SetSalt stores the installation salt, creating it on first write.
	SetSalt(ctx context.Context, salt string) error
	// Digest returns the accepted fingerprint for path or ErrNotFound.
	Digest(ctx context.Context, path string) (string, error)
	// SetDigest records digest as the accepted fingerprint for path.
	SetDigest(ctx context.Context, path, digest string) error
	// Records lists every trust record sorted by path.
	Records(ctx context.Context) ([]Record, error)
	// Forget drops the record for path or returns ErrNotFound.
	Forget(ctx context.Context, path string) error
	Close() error
}

// SaltOrCreate returns the stored salt, generating and persisting a new one
// when none exists yet. Store failures other than ErrNotFound propagate.
func SaltOrCreate(ctx context.Context, store Store) (string, error) {
	salt, err := store.Salt(ctx)
	if err == nil {
		return salt, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", fmt.Errorf("read salt: %w", err)
	}

	salt, err = fingerprint.NewSalt()
	if err != nil {
		return "", err
	}
	if err := store.SetSalt(ctx, salt); err != nil {
		return "", fmt.Errorf("persist salt: %w", err)
	}
	return salt, nil
}

// Open constructs the backend selected by cfg.Store.Backend.
func Open(cfg *config.Config, logger *slog.Logger) (Store, error) {
	if cfg == nil {
		return nil, errors.New("truststore: config is required")
	}
	switch cfg.Store.Backend {
	case "json", "":
		return OpenJSON(cfg.Store.Path, logger)
	case "sqlite":
		return OpenSQLite(cfg.Store.Path, logger)
	default:
		return nil, fmt.Errorf("truststore: unsupported backend %q", cfg.Store.Backend)
	}
}

func componentLogger(logger *slog.Logger) *slog.Logger {
	return logging.NewComponentLogger(logger, "truststore")
}

func validatePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" || !filepath.IsAbs(path) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return filepath.Clean(path), nil
}

func validateDigest(digest string) error {
	if !fingerprint.Valid(digest) {
		return ErrInvalidDigest
	}
	return nil
}

func validateSalt(salt string) error {
	if strings.TrimSpace(salt) == "" {
		return errors.New("salt cannot be empty")
	}
	return nil
}
