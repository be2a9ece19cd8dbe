package discovery

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("<cleaner/>"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestListMatchesIncludeAndExclude(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "firefox.xml"))
	writeFile(t, filepath.Join(root, "nested", "gimp.xml"))
	writeFile(t, filepath.Join(root, "notes.txt"))
	writeFile(t, filepath.Join(root, "old", "chrome.bak.xml"))

	got, err := List(context.Background(), Options{
		Dirs:    []string{root},
		Include: []string{"**/*.xml"},
		Exclude: []string{"**/*.bak.xml"},
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{
		filepath.Join(root, "firefox.xml"),
		filepath.Join(root, "nested", "gimp.xml"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("List = %v, want %v", got, want)
	}
}

func TestListSkipsMissingDirsAndDeduplicates(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.xml"))

	got, err := List(context.Background(), Options{
		Dirs: []string{filepath.Join(root, "missing"), root, root},
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0] != filepath.Join(root, "a.xml") {
		t.Fatalf("List = %v", got)
	}
}

func TestListRejectsFileAsDir(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "a.xml")
	writeFile(t, file)

	if _, err := List(context.Background(), Options{Dirs: []string{file}}); err == nil {
		t.Fatal("expected error when a definition dir is a file")
	}
}

func TestListFollowsFileSymlinksOnly(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "linked.xml"))
	writeFile(t, filepath.Join(outside, "sub", "hidden.xml"))
	if err := os.Symlink(filepath.Join(outside, "linked.xml"), filepath.Join(root, "linked.xml")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := os.Symlink(filepath.Join(outside, "sub"), filepath.Join(root, "sub")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	got, err := List(context.Background(), Options{Dirs: []string{root}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0] != filepath.Join(root, "linked.xml") {
		t.Fatalf("List = %v", got)
	}
}

func TestListHonoursCancellation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.xml"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := List(ctx, Options{Dirs: []string{root}}); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestListResolvesSymlinkedRoot(t *testing.T) {
	base := t.TempDir()
	real := filepath.Join(base, "real")
	writeFile(t, filepath.Join(real, "evil.xml"))
	writeFile(t, filepath.Join(real, "nested", "deep.xml"))
	outside := filepath.Join(base, "outside")
	writeFile(t, filepath.Join(outside, "hidden.xml"))
	if err := os.Symlink(outside, filepath.Join(real, "linked")); err != nil {
		t.Fatalf("symlink nested: %v", err)
	}
	link := filepath.Join(base, "cleaners")
	if err := os.Symlink(real, link); err != nil {
		t.Fatalf("symlink root: %v", err)
	}

	got, err := List(context.Background(), Options{Dirs: []string{link}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{
		filepath.Join(link, "evil.xml"),
		filepath.Join(link, "nested", "deep.xml"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("List = %v, want %v", got, want)
	}
}

func TestListSkipsUnreadableSubdirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.xml"))
	locked := filepath.Join(root, "locked")
	writeFile(t, filepath.Join(locked, "b.xml"))
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	got, err := List(context.Background(), Options{Dirs: []string{root}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0] != filepath.Join(root, "a.xml") {
		t.Fatalf("List = %v", got)
	}
}
