package truststore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"cleanerguard/internal/logging"
)

type jsonEntry struct {
	Digest     string    `json:"digest"`
	AcceptedAt time.Time `json:"accepted_at"`
}

type jsonDocument struct {
	HashSalt string               `json:"hashsalt,omitempty"`
	HashPath map[string]jsonEntry `json:"hashpath"`
}

// JSONStore keeps trust data in a single JSON document on disk.
type JSONStore struct {
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
	doc    jsonDocument
	now    func() time.Time
}

// OpenJSON loads the document at path. A missing file is a fresh start; an
// unreadable or corrupt file is an error, since starting empty would silently
// re-trust every definition. The file is created lazily on first write.
func OpenJSON(path string, logger *slog.Logger) (*JSONStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("truststore: json store path is required")
	}
	s := &JSONStore{
		path:   path,
		logger: componentLogger(logger),
		doc:    jsonDocument{HashPath: make(map[string]jsonEntry)},
		now:    time.Now,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *JSONStore) Salt(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc.HashSalt == "" {
		return "", ErrNotFound
	}
	return s.doc.HashSalt, nil
}

func (s *JSONStore) SetSalt(_ context.Context, salt string) error {
	if err := validateSalt(salt); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.doc.HashSalt
	s.doc.HashSalt = salt
	if err := s.save(); err != nil {
		s.doc.HashSalt = previous
		return fmt.Errorf("persist trust store: %w", err)
	}
	s.logger.Debug("stored installation salt", logging.String("store_path", s.path))
	return nil
}

func (s *JSONStore) Digest(_ context.Context, path string) (string, error) {
	path, err := validatePath(path)
	if err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.doc.HashPath[path]
	if !ok {
		return "", ErrNotFound
	}
	return entry.Digest, nil
}

func (s *JSONStore) SetDigest(_ context.Context, path, digest string) error {
	path, err := validatePath(path)
	if err != nil {
		return err
	}
	if err := validateDigest(digest); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.doc.HashPath[path]
	s.doc.HashPath[path] = jsonEntry{Digest: digest, AcceptedAt: s.now().UTC()}
	if err := s.save(); err != nil {
		if existed {
			s.doc.HashPath[path] = previous
		} else {
			delete(s.doc.HashPath, path)
		}
		return fmt.Errorf("persist trust store: %w", err)
	}

	s.logger.Debug("stored definition fingerprint", logging.String(logging.FieldPath, path))
	return nil
}

func (s *JSONStore) Records(context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]Record, 0, len(s.doc.HashPath))
	for path, entry := range s.doc.HashPath {
		records = append(records, Record{Path: path, Digest: entry.Digest, AcceptedAt: entry.AcceptedAt})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	return records, nil
}

func (s *JSONStore) Forget(_ context.Context, path string) error {
	path, err := validatePath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.doc.HashPath[path]
	if !ok {
		return ErrNotFound
	}
	delete(s.doc.HashPath, path)
	if err := s.save(); err != nil {
		s.doc.HashPath[path] = entry
		return fmt.Errorf("persist trust store: %w", err)
	}

	s.logger.Debug("forgot definition fingerprint", logging.String(logging.FieldPath, path))
	return nil
}

func (s *JSONStore) Close() error { return nil }

// load reads the document from disk into memory.
func (s *JSONStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // fresh install
		}
		return fmt.Errorf("read trust store: %w", err)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse trust store %s: %w", s.path, err)
	}
	if doc.HashPath == nil {
		doc.HashPath = make(map[string]jsonEntry)
	}
	s.doc = doc

	s.logger.Debug("loaded trust store",
		logging.Int("record_count", len(s.doc.HashPath)),
		logging.String("store_path", s.path))
	return nil
}

// save writes the document to disk atomically.
func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal trust store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	// The salt is secret-ish: keep the file private to the user.
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
