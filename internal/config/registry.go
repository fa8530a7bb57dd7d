package config

import (
	"errors"
	"fmt"
	"sync"
)

// ErrFileNotRegistered is returned by [FileRegistry.Resolve] when no active
// workbook is registered for the requested client and year.
var ErrFileNotRegistered = errors.New("config: no active workbook registered")

// FileRegistry resolves (client, year) pairs to the active workbook path.
// The core write/read pipeline only ever receives resolved paths; this
// registry is the single place that owns the mapping. It is safe for
// concurrent use.
type FileRegistry struct {
	mu      sync.RWMutex
	active  map[string]FileEntry
	entries []FileEntry
}

// NewFileRegistry builds a registry from the config's file entries.
// [Validate] has already rejected configs with duplicate active pairs.
func NewFileRegistry(files []FileEntry) *FileRegistry {
	r := &FileRegistry{}
	r.Replace(files)
	return r
}

// Replace swaps the registered file set, e.g. after a config reload.
func (r *FileRegistry) Replace(files []FileEntry) {
	active := make(map[string]FileEntry, len(files))
	for _, f := range files {
		if f.Active {
			active[registryKey(f.Client, f.Year)] = f
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = active
	r.entries = append([]FileEntry(nil), files...)
}

// Resolve returns the path of the active workbook for client and year.
// Client matching is case-insensitive.
func (r *FileRegistry) Resolve(client string, year int) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.active[registryKey(client, year)]
	if !ok {
		return "", fmt.Errorf("%w: client %q year %d", ErrFileNotRegistered, client, year)
	}
	return f.Path, nil
}

// ActivePaths returns the paths of all active workbooks in registration
// order. Used for glossar warm-up across the file set.
func (r *FileRegistry) ActivePaths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var paths []string
	for _, f := range r.entries {
		if f.Active {
			paths = append(paths, f.Path)
		}
	}
	return paths
}

// ActiveEntries returns all active file entries in registration order.
func (r *FileRegistry) ActiveEntries() []FileEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []FileEntry
	for _, f := range r.entries {
		if f.Active {
			out = append(out, f)
		}
	}
	return out
}
