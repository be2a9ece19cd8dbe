package testsupport

import (
	"context"
	"testing"

	"cleanerguard/internal/config"
	"cleanerguard/internal/logging"
	"cleanerguard/internal/truststore"
)

// MustOpenStore opens the configured trust store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) truststore.Store {
	t.Helper()

	store, err := truststore.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("truststore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// Trust records digest for path, failing the test on error.
func Trust(t testing.TB, store truststore.Store, path, digest string) {
	t.Helper()

	if err := store.SetDigest(context.Background(), path, digest); err != nil {
		t.Fatalf("SetDigest %s: %v", path, err)
	}
}
