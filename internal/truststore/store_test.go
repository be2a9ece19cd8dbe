package truststore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cleanerguard/internal/config"
	"cleanerguard/internal/fingerprint"
)

type backend struct {
	name string
	open func(t *testing.T, dir string) Store
}

func backends() []backend {
	return []backend{
		{name: "memory", open: func(t *testing.T, dir string) Store { return NewMemory() }},
		{name: "json", open: func(t *testing.T, dir string) Store {
			s, err := OpenJSON(filepath.Join(dir, "trust.json"), nil)
			if err != nil {
				t.Fatalf("OpenJSON: %v", err)
			}
			return s
		}},
		{name: "sqlite", open: func(t *testing.T, dir string) Store {
			s, err := OpenSQLite(filepath.Join(dir, "trust.db"), nil)
			if err != nil {
				t.Fatalf("OpenSQLite: %v", err)
			}
			return s
		}},
	}
}

func digestOf(body string) string {
	return fingerprint.Sum("salt", []byte(body))
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			store := b.open(t, t.TempDir())
			t.Cleanup(func() { store.Close() })

			if _, err := store.Salt(ctx); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound for missing salt, got %v", err)
			}
			if err := store.SetSalt(ctx, "pepper"); err != nil {
				t.Fatalf("SetSalt: %v", err)
			}
			if salt, err := store.Salt(ctx); err != nil || salt != "pepper" {
				t.Fatalf("Salt = %q, %v", salt, err)
			}

			path := "/defs/firefox.xml"
			if _, err := store.Digest(ctx, path); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound for unseen path, got %v", err)
			}
			if err := store.SetDigest(ctx, path, digestOf("v1")); err != nil {
				t.Fatalf("SetDigest: %v", err)
			}
			if err := store.SetDigest(ctx, path, digestOf("v2")); err != nil {
				t.Fatalf("SetDigest update: %v", err)
			}
			if got, err := store.Digest(ctx, path); err != nil || got != digestOf("v2") {
				t.Fatalf("Digest = %q, %v", got, err)
			}
			if err := store.SetDigest(ctx, "/defs/chrome.xml", digestOf("c")); err != nil {
				t.Fatalf("SetDigest: %v", err)
			}

			records, err := store.Records(ctx)
			if err != nil {
				t.Fatalf("Records: %v", err)
			}
			if len(records) != 2 || records[0].Path != "/defs/chrome.xml" || records[1].Path != path {
				t.Fatalf("unexpected records: %+v", records)
			}
			if records[1].AcceptedAt.IsZero() {
				t.Fatal("expected acceptance timestamp")
			}

			if err := store.Forget(ctx, path); err != nil {
				t.Fatalf("Forget: %v", err)
			}
			if err := store.Forget(ctx, path); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound on second Forget, got %v", err)
			}
			if _, err := store.Digest(ctx, path); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after Forget, got %v", err)
			}
		})
	}
}

func TestStoreRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			store := b.open(t, t.TempDir())
			t.Cleanup(func() { store.Close() })

			if err := store.SetDigest(ctx, "relative.xml", digestOf("x")); !errors.Is(err, ErrInvalidPath) {
				t.Fatalf("expected ErrInvalidPath, got %v", err)
			}
			if err := store.SetDigest(ctx, "/defs/a.xml", "not-a-digest"); !errors.Is(err, ErrInvalidDigest) {
				t.Fatalf("expected ErrInvalidDigest, got %v", err)
			}
			if err := store.SetSalt(ctx, "  "); err == nil {
				t.Fatal("expected error for empty salt")
			}
			if _, err := store.Digest(ctx, ""); !errors.Is(err, ErrInvalidPath) {
				t.Fatalf("expected ErrInvalidPath for empty path, got %v", err)
			}
		})
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends() {
		if b.name == "memory" {
			continue
		}
		t.Run(b.name, func(t *testing.T) {
			dir := t.TempDir()
			first := b.open(t, dir)
			salt, err := SaltOrCreate(ctx, first)
			if err != nil {
				t.Fatalf("SaltOrCreate: %v", err)
			}
			if err := first.SetDigest(ctx, "/defs/a.xml", digestOf("a")); err != nil {
				t.Fatalf("SetDigest: %v", err)
			}
			first.Close()

			second := b.open(t, dir)
			t.Cleanup(func() { second.Close() })
			again, err := SaltOrCreate(ctx, second)
			if err != nil {
				t.Fatalf("SaltOrCreate after reopen: %v", err)
			}
			if again != salt {
				t.Fatalf("salt changed across runs: %q != %q", again, salt)
			}
			if got, err := second.Digest(ctx, "/defs/a.xml"); err != nil || got != digestOf("a") {
				t.Fatalf("Digest after reopen = %q, %v", got, err)
			}
		})
	}
}

func TestSaltOrCreateIsStable(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	first, err := SaltOrCreate(ctx, store)
	if err != nil {
		t.Fatalf("SaltOrCreate: %v", err)
	}
	if !fingerprint.Valid(first) {
		t.Fatalf("expected salt to be a digest, got %q", first)
	}
	second, err := SaltOrCreate(ctx, store)
	if err != nil {
		t.Fatalf("SaltOrCreate: %v", err)
	}
	if first != second {
		t.Fatalf("salt regenerated: %q != %q", first, second)
	}
}

type brokenStore struct {
	*MemoryStore
	err error
}

func (b brokenStore) Salt(context.Context) (string, error) { return "", b.err }

func TestSaltOrCreatePropagatesStoreFailure(t *testing.T) {
	unavailable := errors.New("disk on fire")
	_, err := SaltOrCreate(context.Background(), brokenStore{MemoryStore: NewMemory(), err: unavailable})
	if !errors.Is(err, unavailable) {
		t.Fatalf("expected store failure to propagate, got %v", err)
	}
}

func TestOpenJSONCorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trust.json")
	if err := os.WriteFile(path, []byte("not valid json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := OpenJSON(path, nil); err == nil {
		t.Fatal("expected corrupt trust store to fail loudly")
	}
}

func TestOpenJSONEmptyFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trust.json")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	store, err := OpenJSON(path, nil)
	if err != nil {
		t.Fatalf("OpenJSON: %v", err)
	}
	if _, err := store.Salt(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected empty store, got %v", err)
	}
}

func TestJSONStoreWritesPrivateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "trust.json")
	store, err := OpenJSON(path, nil)
	if err != nil {
		t.Fatalf("OpenJSON: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected lazy creation, stat err = %v", err)
	}
	if err := store.SetSalt(context.Background(), "pepper"); err != nil {
		t.Fatalf("SetSalt: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat store: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 permissions, got %o", perm)
	}
	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestSQLiteStoreWritesPrivateFile(t *testing.T) {
	tests := []struct {
		name     string
		existing bool
	}{
		{name: "fresh database"},
		{name: "existing world-readable database", existing: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "trust.db")
			if tt.existing {
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					t.Fatalf("mkdir: %v", err)
				}
				if err := os.WriteFile(path, nil, 0o644); err != nil {
					t.Fatalf("write: %v", err)
				}
			}
			store, err := OpenSQLite(path, nil)
			if err != nil {
				t.Fatalf("OpenSQLite: %v", err)
			}
			defer store.Close()
			if err := store.SetSalt(context.Background(), "pepper"); err != nil {
				t.Fatalf("SetSalt: %v", err)
			}
			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("stat store: %v", err)
			}
			if perm := info.Mode().Perm(); perm != 0o600 {
				t.Fatalf("expected 0600 permissions, got %o", perm)
			}
		})
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()

	cfg.Store.Backend = "json"
	cfg.Store.Path = filepath.Join(dir, "trust.json")
	store, err := Open(&cfg, nil)
	if err != nil {
		t.Fatalf("Open json: %v", err)
	}
	if _, ok := store.(*JSONStore); !ok {
		t.Fatalf("expected *JSONStore, got %T", store)
	}
	store.Close()

	cfg.Store.Backend = "sqlite"
	cfg.Store.Path = filepath.Join(dir, "trust.db")
	store, err = Open(&cfg, nil)
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	if _, ok := store.(*SQLiteStore); !ok {
		t.Fatalf("expected *SQLiteStore, got %T", store)
	}
	store.Close()

	cfg.Store.Backend = "etcd"
	if _, err := Open(&cfg, nil); err == nil {
		t.Fatal("expected unsupported backend error")
	}
}

func TestAcquireLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trust.json.lock")

	first, err := AcquireLock(path)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if _, err := AcquireLock(path); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked while held, got %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	second, err := AcquireLock(path)
	if err != nil {
		t.Fatalf("AcquireLock after release: %v", err)
	}
	_ = second.Release()
}
