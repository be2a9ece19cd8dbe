package truststore

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps trust data in process memory only.
type MemoryStore struct {
	mu      sync.RWMutex
	salt    string
	records map[string]Record
	now     func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record), now: time.Now}
}

func (m *MemoryStore) Salt(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.salt == "" {
		return "", ErrNotFound
	}
	return m.salt, nil
}

func (m *MemoryStore) SetSalt(_ context.Context, salt string) error {
	if err := validateSalt(salt); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.salt = salt
	return nil
}

func (m *MemoryStore) Digest(_ context.Context, path string) (string, error) {
	path, err := validatePath(path)
	if err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[path]
	if !ok {
		return "", ErrNotFound
	}
	return record.Digest, nil
}

func (m *MemoryStore) SetDigest(_ context.Context, path, digest string) error {
	path, err := validatePath(path)
	if err != nil {
		return err
	}
	if err := validateDigest(digest); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[path] = Record{Path: path, Digest: digest, AcceptedAt: m.now().UTC()}
	return nil
}

func (m *MemoryStore) Records(context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	records := make([]Record, 0, len(m.records))
	for _, record := range m.records {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	return records, nil
}

func (m *MemoryStore) Forget(_ context.Context, path string) error {
	path, err := validatePath(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[path]; !ok {
		return ErrNotFound
	}
	delete(m.records, path)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
