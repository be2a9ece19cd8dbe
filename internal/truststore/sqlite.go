package truststore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"cleanerguard/internal/logging"
)

const saltKey = "hashsalt"

// SQLiteStore keeps trust data in an embedded SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// OpenSQLite initializes or connects to the database at path and applies migrations.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("truststore: sqlite store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	if err := ensurePrivateFile(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if err := applyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, path: path, logger: componentLogger(logger), now: time.Now}, nil
}

func (s *SQLiteStore) Salt(ctx context.Context) (string, error) {
	var salt string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", saltKey).Scan(&salt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query salt: %w", err)
	}
	return salt, nil
}

func (s *SQLiteStore) SetSalt(ctx context.Context, salt string) error {
	if err := validateSalt(salt); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		saltKey, salt)
	if err != nil {
		return fmt.Errorf("store salt: %w", err)
	}
	s.logger.Debug("stored installation salt", logging.String("store_path", s.path))
	return nil
}

func (s *SQLiteStore) Digest(ctx context.Context, path string) (string, error) {
	path, err := validatePath(path)
	if err != nil {
		return "", err
	}
	var digest string
	err = s.db.QueryRowContext(ctx, "SELECT digest FROM hashpath WHERE path = ?", path).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query digest: %w", err)
	}
	return digest, nil
}

func (s *SQLiteStore) SetDigest(ctx context.Context, path, digest string) error {
	path, err := validatePath(path)
	if err != nil {
		return err
	}
	if err := validateDigest(digest); err != nil {
		return err
	}
	acceptedAt := s.now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO hashpath (path, digest, accepted_at) VALUES (?, ?, ?)
         ON CONFLICT(path) DO UPDATE SET digest = excluded.digest, accepted_at = excluded.accepted_at`,
		path, digest, acceptedAt)
	if err != nil {
		return fmt.Errorf("store digest: %w", err)
	}
	s.logger.Debug("stored definition fingerprint", logging.String(logging.FieldPath, path))
	return nil
}

func (s *SQLiteStore) Records(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path, digest, accepted_at FROM hashpath ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var record Record
		var acceptedAt string
		if err := rows.Scan(&record.Path, &record.Digest, &acceptedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, acceptedAt); err == nil {
			record.AcceptedAt = ts
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

func (s *SQLiteStore) Forget(ctx context.Context, path string) error {
	path, err := validatePath(path)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM hashpath WHERE path = ?", path)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	s.logger.Debug("forgot definition fingerprint", logging.String(logging.FieldPath, path))
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ensurePrivateFile creates path as 0600, or tightens an existing file to
// 0600. SQLite gives its journal files the database file's mode.
func ensurePrivateFile(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return fmt.Errorf("create store file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("create store file: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("restrict store file permissions: %w", err)
	}
	return nil
}
