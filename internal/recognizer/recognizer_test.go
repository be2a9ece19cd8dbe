package recognizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"cleanerguard/internal/fingerprint"
	"cleanerguard/internal/logging"
	"cleanerguard/internal/truststore"
)

type call struct {
	path  string
	class Classification
}

type scriptedConfirmer struct {
	answers map[string]bool
	calls   []call
	err     error
}

func (s *scriptedConfirmer) Confirm(_ context.Context, path string, c Classification) (bool, error) {
	s.calls = append(s.calls, call{path: path, class: c})
	if s.err != nil {
		return false, s.err
	}
	return s.answers[path], nil
}

func writeDefinition(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newTestRecognizer(store truststore.Store, confirmer Confirmer, notices *bytes.Buffer, roots ...string) *Recognizer {
	return NewRecognizer(store, confirmer, Options{Notices: notices, Roots: roots, Workers: 3, RunID: "test-run"})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		stored  string
		found   bool
		current string
		want    Classification
	}{
		{name: "no record", found: false, current: "abc", want: New},
		{name: "no record ignores stale value", stored: "abc", found: false, current: "abc", want: New},
		{name: "equal", stored: "abc", found: true, current: "abc", want: Known},
		{name: "different", stored: "abc", found: true, current: "abd", want: Changed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.stored, tt.found, tt.current); got != tt.want {
				t.Fatalf("Classify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassificationText(t *testing.T) {
	for _, c := range []Classification{Known, Changed, New} {
		parsed, err := ParseClassification(c.String())
		if err != nil || parsed != c {
			t.Fatalf("ParseClassification(%q) = %v, %v", c.String(), parsed, err)
		}
	}
	if _, err := ParseClassification("trusted"); err == nil {
		t.Fatal("expected error for unknown classification")
	}
	if Known.NeedsConfirmation() || !Changed.NeedsConfirmation() || !New.NeedsConfirmation() {
		t.Fatal("only changed and new files need confirmation")
	}
}

func TestScanNewFileAcceptedThenKnown(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "firefox.xml")
	writeDefinition(t, path, "<cleaner id=\"firefox\"/>")

	store := truststore.NewMemory()
	confirmer := &scriptedConfirmer{answers: map[string]bool{path: true}}
	var notices bytes.Buffer

	report, err := newTestRecognizer(store, confirmer, &notices, dir).Scan(ctx, []string{path})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(confirmer.calls) != 1 || confirmer.calls[0] != (call{path: path, class: New}) {
		t.Fatalf("unexpected confirmations: %+v", confirmer.calls)
	}
	if report.Accepted != 1 || report.Results[0].Action != ActionAccepted || !report.Complete {
		t.Fatalf("unexpected report: %+v", report)
	}

	salt, err := store.Salt(ctx)
	if err != nil {
		t.Fatalf("expected salt to be created: %v", err)
	}
	stored, err := store.Digest(ctx, path)
	if err != nil {
		t.Fatalf("expected fingerprint stored: %v", err)
	}
	if want := fingerprint.Sum(salt, []byte("<cleaner id=\"firefox\"/>")); stored != want {
		t.Fatalf("stored digest %s, want %s", stored, want)
	}

	confirmer.calls = nil
	report, err = newTestRecognizer(store, confirmer, &notices, dir).Scan(ctx, []string{path})
	if err != nil {
		t.Fatalf("second Scan: %v", err)
	}
	if len(confirmer.calls) != 0 {
		t.Fatalf("known file should not prompt, got %+v", confirmer.calls)
	}
	if report.Known != 1 || report.Results[0].Classification != Known {
		t.Fatalf("expected known on second scan, got %+v", report)
	}
	if notices.Len() != 0 {
		t.Fatalf("unexpected notices: %q", notices.String())
	}
}

func TestScanChangedFileRejectedIsDeleted(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "chrome.xml")
	writeDefinition(t, path, "v1")

	store := truststore.NewMemory()
	accept := &scriptedConfirmer{answers: map[string]bool{path: true}}
	var notices bytes.Buffer
	if _, err := newTestRecognizer(store, accept, &notices, dir).Scan(ctx, []string{path}); err != nil {
		t.Fatalf("initial Scan: %v", err)
	}
	before, _ := store.Digest(ctx, path)

	writeDefinition(t, path, "v2 with something sneaky")
	reject := &scriptedConfirmer{answers: map[string]bool{}}
	report, err := newTestRecognizer(store, reject, &notices, dir).Scan(ctx, []string{path})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(reject.calls) != 1 || reject.calls[0].class != Changed {
		t.Fatalf("expected one changed confirmation, got %+v", reject.calls)
	}
	if report.Deleted != 1 || report.Results[0].Action != ActionDeleted {
		t.Fatalf("unexpected report: %+v", report)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected file removed, stat err = %v", err)
	}
	after, err := store.Digest(ctx, path)
	if err != nil || after != before {
		t.Fatalf("record must not change on reject: before %s after %s (%v)", before, after, err)
	}
	want := fmt.Sprintf("info: deleting cleaner definition '%s'\n", path)
	if notices.String() != want {
		t.Fatalf("notice = %q, want %q", notices.String(), want)
	}
}

func TestScanUnreadableFileDoesNotStopOthers(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.xml")
	present := filepath.Join(dir, "present.xml")
	writeDefinition(t, present, "ok")

	confirmer := &scriptedConfirmer{answers: map[string]bool{present: true}}
	report, err := newTestRecognizer(truststore.NewMemory(), confirmer, &bytes.Buffer{}, dir).Scan(ctx, []string{missing, present})
	if !errors.Is(err, fingerprint.ErrUnreadable) {
		t.Fatalf("expected joined ErrUnreadable, got %v", err)
	}
	if report.Failed != 1 || report.Accepted != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(confirmer.calls) != 1 || confirmer.calls[0].path != present {
		t.Fatalf("unreadable file must not be prompted: %+v", confirmer.calls)
	}
}

func TestScanDeleteFailureIsReported(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "locked.xml")
	writeDefinition(t, path, "x")

	denied := errors.New("permission denied")
	rec := NewRecognizer(truststore.NewMemory(), &scriptedConfirmer{}, Options{
		Notices: &bytes.Buffer{},
		Remove:  func(string) error { return denied },
	})

	report, err := rec.Scan(ctx, []string{path})
	var delErr *DeleteError
	if !errors.As(err, &delErr) {
		t.Fatalf("expected *DeleteError, got %v", err)
	}
	if delErr.Path != path || !errors.Is(err, denied) {
		t.Fatalf("unexpected delete error: %v", delErr)
	}
	if report.Failed != 1 || report.Results[0].Action != ActionFailed {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestScanRefusesDeletionOutsideRoots(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	outside := filepath.Join(t.TempDir(), "elsewhere.xml")
	writeDefinition(t, outside, "x")

	var notices bytes.Buffer
	_, err := newTestRecognizer(truststore.NewMemory(), &scriptedConfirmer{}, &notices, root).Scan(ctx, []string{outside})
	if !errors.Is(err, ErrOutsideRoots) {
		t.Fatalf("expected ErrOutsideRoots, got %v", err)
	}
	if _, statErr := os.Stat(outside); statErr != nil {
		t.Fatalf("file outside roots must survive: %v", statErr)
	}
	if notices.Len() != 0 {
		t.Fatalf("no deletion notice expected, got %q", notices.String())
	}
}

func TestScanConfirmerFailureAborts(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	first := filepath.Join(dir, "a.xml")
	second := filepath.Join(dir, "b.xml")
	writeDefinition(t, first, "a")
	writeDefinition(t, second, "b")

	broken := errors.New("dialog crashed")
	confirmer := &scriptedConfirmer{err: broken}
	store := truststore.NewMemory()
	var logs bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Output: &logs})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	rec := NewRecognizer(store, confirmer, Options{Logger: logger, Notices: &bytes.Buffer{}, Roots: []string{dir}, RunID: "abort-run"})
	if rec.RunID() != "abort-run" {
		t.Fatalf("RunID = %q", rec.RunID())
	}
	report, err := rec.Scan(ctx, []string{first, second})
	if !errors.Is(err, broken) {
		t.Fatalf("expected confirmer error, got %v", err)
	}
	for _, want := range []string{`"event_type":"scan_aborted"`, `"run_id":"abort-run"`, `"error_hint"`} {
		if !strings.Contains(logs.String(), want) {
			t.Fatalf("abort log missing %s: %s", want, logs.String())
		}
	}
	if len(confirmer.calls) != 1 || len(report.Results) != 0 || report.Complete {
		t.Fatalf("scan should stop at first failure: calls=%+v results=%+v", confirmer.calls, report.Results)
	}
	if records, _ := store.Records(ctx); len(records) != 0 {
		t.Fatalf("no records expected, got %+v", records)
	}
	for _, path := range []string{first, second} {
		if _, statErr := os.Stat(path); statErr != nil {
			t.Fatalf("file %s must survive: %v", path, statErr)
		}
	}
}

type failingStore struct {
	*truststore.MemoryStore
	err error
}

func (f failingStore) Digest(context.Context, string) (string, error) { return "", f.err }

func TestScanStoreFailurePropagates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.xml")
	writeDefinition(t, path, "a")

	unavailable := errors.New("store unavailable")
	store := failingStore{MemoryStore: truststore.NewMemory(), err: unavailable}
	confirmer := &scriptedConfirmer{}
	_, err := newTestRecognizer(store, confirmer, &bytes.Buffer{}, dir).Scan(context.Background(), []string{path})
	if !errors.Is(err, unavailable) {
		t.Fatalf("expected store failure, got %v", err)
	}
	if len(confirmer.calls) != 0 {
		t.Fatal("store failure must not reach the confirmer")
	}
}

func TestScanPromptsInInputOrderOncePerFile(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	answers := map[string]bool{}
	for i := range 12 {
		path := filepath.Join(dir, fmt.Sprintf("def-%02d.xml", 11-i))
		writeDefinition(t, path, fmt.Sprintf("body %d", i))
		paths = append(paths, path)
		answers[path] = true
	}
	withDup := append(append([]string{}, paths...), paths[0], paths[3])

	confirmer := &scriptedConfirmer{answers: answers}
	report, err := newTestRecognizer(truststore.NewMemory(), confirmer, &bytes.Buffer{}, dir).Scan(context.Background(), withDup)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	var got []string
	for _, c := range confirmer.calls {
		got = append(got, c.path)
	}
	if !reflect.DeepEqual(got, paths) {
		t.Fatalf("prompt order = %v, want %v", got, paths)
	}
	if len(report.Results) != len(paths) {
		t.Fatalf("expected one result per file, got %d", len(report.Results))
	}
}

func TestScanNormalizesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, filepath.Join(dir, "rel.xml"), "x")
	t.Chdir(dir)

	store := truststore.NewMemory()
	confirmer := &scriptedConfirmer{answers: map[string]bool{filepath.Join(dir, "rel.xml"): true}}
	if _, err := newTestRecognizer(store, confirmer, &bytes.Buffer{}).Scan(context.Background(), []string{"rel.xml"}); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(confirmer.calls) != 1 || !filepath.IsAbs(confirmer.calls[0].path) {
		t.Fatalf("expected absolute path prompt, got %+v", confirmer.calls)
	}
	if _, err := store.Digest(context.Background(), filepath.Join(dir, "rel.xml")); err != nil {
		t.Fatalf("expected record under absolute path: %v", err)
	}
}

func TestScanWithoutConfirmer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.xml")
	writeDefinition(t, path, "a")

	_, err := NewRecognizer(truststore.NewMemory(), nil, Options{Notices: &bytes.Buffer{}}).Scan(context.Background(), []string{path})
	if !errors.Is(err, ErrNoConfirmer) {
		t.Fatalf("expected ErrNoConfirmer, got %v", err)
	}
}

func TestClassifyThenAccept(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "a.xml")
	writeDefinition(t, path, "a")

	store := truststore.NewMemory()
	rec := NewRecognizer(store, nil, Options{Notices: &bytes.Buffer{}})

	if err := rec.Accept(ctx, path); !errors.Is(err, ErrNotClassified) {
		t.Fatalf("expected ErrNotClassified, got %v", err)
	}
	class, err := rec.Classify(ctx, path)
	if err != nil || class != New {
		t.Fatalf("Classify = %v, %v", class, err)
	}
	if err := rec.Accept(ctx, path); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	class, err = rec.Classify(ctx, path)
	if err != nil || class != Known {
		t.Fatalf("Classify after accept = %v, %v", class, err)
	}

	writeDefinition(t, path, "b")
	class, err = rec.Classify(ctx, path)
	if err != nil || class != Changed {
		t.Fatalf("Classify after edit = %v, %v", class, err)
	}
}

func TestStatusDoesNotPromptOrMutate(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	known := filepath.Join(dir, "known.xml")
	fresh := filepath.Join(dir, "fresh.xml")
	missing := filepath.Join(dir, "missing.xml")
	writeDefinition(t, known, "k")
	writeDefinition(t, fresh, "f")

	store := truststore.NewMemory()
	salt, err := truststore.SaltOrCreate(ctx, store)
	if err != nil {
		t.Fatalf("SaltOrCreate: %v", err)
	}
	if err := store.SetDigest(ctx, known, fingerprint.Sum(salt, []byte("k"))); err != nil {
		t.Fatalf("SetDigest: %v", err)
	}

	confirmer := &scriptedConfirmer{}
	results, err := NewRecognizer(store, confirmer, Options{}).Status(ctx, []string{known, fresh, missing})
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(confirmer.calls) != 0 {
		t.Fatal("Status must not prompt")
	}
	if results[0].Classification != Known || results[1].Classification != New {
		t.Fatalf("unexpected classifications: %+v", results)
	}
	if results[2].Action != ActionFailed || !errors.Is(results[2].Err, fingerprint.ErrUnreadable) {
		t.Fatalf("expected unreadable result, got %+v", results[2])
	}
	if records, _ := store.Records(ctx); len(records) != 1 {
		t.Fatalf("Status must not add records, got %+v", records)
	}
}
