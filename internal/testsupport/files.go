package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteDefinition writes a minimal cleaner definition at dir/name and returns
// its absolute path. The body is derived from label so distinct labels yield
// distinct fingerprints.
func WriteDefinition(t testing.TB, dir, name, label string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	body := fmt.Sprintf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<cleaner id=%q>\n  <label>%s</label>\n</cleaner>\n", label, label)
	WriteFile(t, path, []byte(body))
	abs, err := filepath.Abs(path)
	if err != nil {
		t.Fatalf("abs %s: %v", path, err)
	}
	return abs
}

// WriteFile creates parent directories and writes data to path.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Exists reports whether path is present on disk.
func Exists(t testing.TB, path string) bool {
	t.Helper()

	_, err := os.Lstat(path)
	if err == nil {
		return true
	}
	if os.IsNotExist(err) {
		return false
	}
	t.Fatalf("stat %s: %v", path, err)
	return false
}
