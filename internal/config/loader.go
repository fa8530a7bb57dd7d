package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Backup.Retention < 0 {
		errs = append(errs, fmt.Errorf("backup.retention %d must not be negative", cfg.Backup.Retention))
	}
	if t := cfg.Glossar.FuzzyThreshold; t < 0 || t > 1 {
		errs = append(errs, fmt.Errorf("glossar.fuzzy_threshold %.2f is out of range (0, 1]", t))
	}

	// File registry: the (client, year) → path resolution the rest of the
	// system relies on requires at most one active file per pair.
	activeSeen := make(map[string]int, len(cfg.Files))
	for i, f := range cfg.Files {
		prefix := fmt.Sprintf("files[%d]", i)
		if f.Client == "" {
			errs = append(errs, fmt.Errorf("%s.client is required", prefix))
		}
		if f.Path == "" {
			errs = append(errs, fmt.Errorf("%s.path is required", prefix))
		} else if !filepath.IsAbs(f.Path) {
			errs = append(errs, fmt.Errorf("%s.path %q must be absolute", prefix, f.Path))
		}
		if f.Year < 2000 || f.Year > 2100 {
			errs = append(errs, fmt.Errorf("%s.year %d is out of range [2000, 2100]", prefix, f.Year))
		}
		if !f.Active {
			continue
		}
		key := registryKey(f.Client, f.Year)
		if prev, ok := activeSeen[key]; ok {
			errs = append(errs, fmt.Errorf("%s duplicates the active file of files[%d] for client %q year %d", prefix, prev, f.Client, f.Year))
		}
		activeSeen[key] = i
	}

	return errors.Join(errs...)
}

// registryKey builds the case-insensitive (client, year) index key.
func registryKey(client string, year int) string {
	return fmt.Sprintf("%s|%d", strings.ToLower(strings.TrimSpace(client)), year)
}
