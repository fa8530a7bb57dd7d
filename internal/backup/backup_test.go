package backup_test

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"testing"
	"time"

	"github.com/mfalkner/sprachlog/internal/backup"
)

// fakeClock returns a clock function that advances one second per call, so
// consecutive backups get distinct second-resolution names.
func fakeClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestCreate_NamesAndLocation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "ACME 2025.xlsx")
	writeFile(t, src, []byte("workbook bytes"))

	m := backup.New(backup.WithClock(func() time.Time {
		return time.Date(2025, time.September, 14, 18, 30, 5, 0, time.UTC)
	}))

	got, err := m.Create(src)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	m.Wait()

	want := filepath.Join(dir, "backups", "ACME 2025_2025-09-14_18-30-05.xlsx")
	if got != want {
		t.Errorf("Create = %q, want %q", got, want)
	}

	data, err := os.ReadFile(got)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(data) != "workbook bytes" {
		t.Errorf("backup content = %q, want source content", data)
	}
}

func TestCreate_MissingSource(t *testing.T) {
	t.Parallel()

	m := backup.New()
	_, err := m.Create(filepath.Join(t.TempDir(), "missing.xlsx"))
	if !errors.Is(err, backup.ErrNotFound) {
		t.Errorf("Create on missing source: err=%v, want errors.Is(err, ErrNotFound)", err)
	}
}

func TestList_NewestFirstAndMissingDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "log.xlsx")
	writeFile(t, src, []byte("v"))

	m := backup.New(backup.WithClock(fakeClock(time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC))))

	// Before any backup exists, List must return empty without error.
	paths, err := m.List(src)
	if err != nil {
		t.Fatalf("List before backups: %v", err)
	}
	if len(paths) != 0 {
		t.Fatalf("List before backups = %v, want empty", paths)
	}

	for n := 0; n < 3; n++ {
		if _, err := m.Create(src); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	m.Wait()

	paths, err = m.List(src)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("List returned %d paths, want 3", len(paths))
	}
	if !sort.SliceIsSorted(paths, func(i, j int) bool { return paths[i] > paths[j] }) {
		t.Errorf("List order = %v, want newest first", paths)
	}

	namePattern := regexp.MustCompile(`^log_\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}\.xlsx$`)
	for _, p := range paths {
		if !namePattern.MatchString(filepath.Base(p)) {
			t.Errorf("backup name %q does not match <basename>_<timestamp><ext>", filepath.Base(p))
		}
	}
}

func TestList_IgnoresPrefixSiblings(t *testing.T) {
	t.Parallel()

	// "log.xlsx" is a name prefix of "log_old.xlsx"; each file's backups
	// must stay invisible to the other, for listing and for eviction.
	dir := t.TempDir()
	src := filepath.Join(dir, "log.xlsx")
	sibling := filepath.Join(dir, "log_old.xlsx")
	writeFile(t, src, []byte("current"))
	writeFile(t, sibling, []byte("archived"))

	m := backup.New(
		backup.WithRetention(2),
		backup.WithClock(fakeClock(time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC))),
	)

	var siblingBackups []string
	for n := 0; n < 2; n++ {
		p, err := m.Create(sibling)
		if err != nil {
			t.Fatalf("Create sibling: %v", err)
		}
		siblingBackups = append(siblingBackups, p)
		m.Wait()
	}
	for n := 0; n < 2; n++ {
		if _, err := m.Create(src); err != nil {
			t.Fatalf("Create: %v", err)
		}
		m.Wait()
	}

	paths, err := m.List(src)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("List = %d backups, want 2 (only log.xlsx's own)", len(paths))
	}
	for _, p := range paths {
		for _, s := range siblingBackups {
			if p == s {
				t.Errorf("List(%q) returned sibling backup %q", src, p)
			}
		}
	}

	// Eviction ran at retention 2 across 4 files with the shared prefix;
	// the sibling's backups must all still be there.
	siblingPaths, err := m.List(sibling)
	if err != nil {
		t.Fatalf("List sibling: %v", err)
	}
	if len(siblingPaths) != 2 {
		t.Errorf("sibling backups = %d, want 2 untouched", len(siblingPaths))
	}
}

func TestCreate_RetentionEvictsOldest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "log.xlsx")
	writeFile(t, src, []byte("v"))

	m := backup.New(
		backup.WithRetention(2),
		backup.WithClock(fakeClock(time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC))),
	)

	var created []string
	for n := 0; n < 4; n++ {
		p, err := m.Create(src)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		created = append(created, p)
		// Serialise evictions so each sees the previous state.
		m.Wait()
	}

	paths, err := m.List(src)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("after retention: %d backups remain, want 2", len(paths))
	}
	// The two newest must have survived.
	if paths[0] != created[3] || paths[1] != created[2] {
		t.Errorf("surviving backups = %v, want the two newest %v", paths, created[2:])
	}
}

func TestRestore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "log.xlsx")
	writeFile(t, src, []byte("original"))

	m := backup.New(backup.WithClock(fakeClock(time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC))))

	backupPath, err := m.Create(src)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	m.Wait()

	writeFile(t, src, []byte("corrupted"))

	if err := m.Restore(backupPath, src); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	m.Wait()

	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatalf("read restored: %v", err)
	}
	if string(data) != "original" {
		t.Errorf("restored content = %q, want %q", data, "original")
	}
}

func TestRestore_MissingOriginalTolerated(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "log.xlsx")
	writeFile(t, src, []byte("v1"))

	m := backup.New(backup.WithClock(fakeClock(time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC))))
	backupPath, err := m.Create(src)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	m.Wait()

	if err := os.Remove(src); err != nil {
		t.Fatalf("remove original: %v", err)
	}

	if err := m.Restore(backupPath, src); err != nil {
		t.Fatalf("Restore with missing original: %v", err)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatalf("read restored: %v", err)
	}
	if string(data) != "v1" {
		t.Errorf("restored content = %q, want %q", data, "v1")
	}
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
