// Package backup creates timestamped safety copies of workbook files before
// every mutating operation.
//
// Backups live in a flat "backups" directory next to the original file and
// are named <basename>_<YYYY-MM-DD_HH-mm-ss><ext>. Creation is synchronous —
// a write failure must never leave the user without a valid prior copy —
// while retention eviction runs in the background so creation latency does
// not grow with the size of the backup directory.
package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrNotFound is returned when the file to back up does not exist.
var ErrNotFound = errors.New("backup: source file not found")

const (
	// defaultRetention is how many backups per base filename are kept.
	defaultRetention = 50

	backupDirName   = "backups"
	timestampLayout = "2006-01-02_15-04-05"

	// timestampPattern matches a formatted timestampLayout.
	timestampPattern = `\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}`
)

// backupPattern matches exactly the backup names of one base filename.
// A bare prefix check would also catch backups of files whose name merely
// starts with base ("log.xlsx" vs "log_old.xlsx").
func backupPattern(base, ext string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(base+"_") + timestampPattern + regexp.QuoteMeta(ext) + `$`)
}

// Option is a functional option for configuring a [Manager].
type Option func(*Manager)

// WithRetention overrides the number of backups kept per base filename.
// Values below 1 are ignored. Default: 50.
func WithRetention(n int) Option {
	return func(m *Manager) {
		if n >= 1 {
			m.retention = n
		}
	}
}

// WithClock overrides the timestamp source. Used by tests to produce
// deterministic backup names.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// Manager creates, lists and restores backups. It is safe for concurrent use;
// each call operates on independent filesystem state.
type Manager struct {
	retention int
	now       func() time.Time

	// wg tracks in-flight background evictions so shutdown (and tests)
	// can wait for them.
	wg sync.WaitGroup
}

// New returns a [Manager] configured with the supplied options.
func New(opts ...Option) *Manager {
	m := &Manager{
		retention: defaultRetention,
		now:       time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Create copies the file at path into the sibling backups directory under a
// second-resolution timestamped name and returns the backup path.
//
// The copy itself is synchronous; eviction of backups beyond the retention
// cap is fired off in the background and never affects the returned result.
// Eviction failures are logged, not propagated.
func (m *Manager) Create(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %q", ErrNotFound, path)
		}
		return "", fmt.Errorf("backup: stat %q: %w", path, err)
	}

	dir := filepath.Join(filepath.Dir(path), backupDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("backup: create dir %q: %w", dir, err)
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext)
	dst := filepath.Join(dir, base+"_"+m.now().Format(timestampLayout)+ext)

	if err := copyFile(path, dst); err != nil {
		return "", fmt.Errorf("backup: copy %q: %w", path, err)
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.evict(dir, base, ext)
	}()

	return dst, nil
}

// List returns the backup paths for the file at path, newest first. A missing
// backups directory yields an empty slice, not an error.
func (m *Manager) List(path string) ([]string, error) {
	dir := filepath.Join(filepath.Dir(path), backupDirName)
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("backup: read dir %q: %w", dir, err)
	}

	pattern := backupPattern(base, ext)
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if pattern.MatchString(e.Name()) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	// Timestamps sort lexicographically, so descending name order is
	// newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	return paths, nil
}

// Restore overwrites originalPath with the contents of backupPath. The
// current state of originalPath is backed up first on a best-effort basis;
// a missing original is tolerated.
func (m *Manager) Restore(backupPath, originalPath string) error {
	if _, err := m.Create(originalPath); err != nil && !errors.Is(err, ErrNotFound) {
		slog.Warn("backup: pre-restore backup failed", "path", originalPath, "err", err)
	}
	if err := copyFile(backupPath, originalPath); err != nil {
		return fmt.Errorf("backup: restore %q -> %q: %w", backupPath, originalPath, err)
	}
	return nil
}

// Wait blocks until all background evictions started by Create have finished.
// Call it during shutdown; tests use it for determinism.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// evict drops the oldest backups for one base filename once the retention cap
// is exceeded. Failures are logged and swallowed.
func (m *Manager) evict(dir, base, ext string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Warn("backup: eviction scan failed", "dir", dir, "err", err)
		return
	}

	pattern := backupPattern(base, ext)
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if pattern.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	if len(names) <= m.retention {
		return
	}

	// Newest first; everything past the cap is evicted.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	for _, name := range names[m.retention:] {
		victim := filepath.Join(dir, name)
		if err := os.Remove(victim); err != nil {
			slog.Warn("backup: eviction failed", "path", victim, "err", err)
			continue
		}
		slog.Debug("backup: evicted", "path", victim)
	}
}

// copyFile copies src to dst via memory. Workbook files are capped at 50 MiB
// by the caller's validation, so a full read is acceptable.
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
