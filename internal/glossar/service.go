package glossar

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mfalkner/sprachlog/internal/backup"
	"github.com/mfalkner/sprachlog/internal/logbook"
	"github.com/mfalkner/sprachlog/internal/observe"
	"github.com/mfalkner/sprachlog/internal/workbook"
)

// glossarSheet is the worksheet name holding the vocabulary, matched
// case-insensitively. Row 1 is the header; data starts at row 2.
const glossarSheet = "Glossar"

// Glossar sheet columns: Kategorie, Begriff, Synonyme (comma-separated).
const (
	colCategory = 1
	colTerm     = 2
	colSynonyms = 3
)

// ServiceOption is a functional option for configuring a [Service].
type ServiceOption func(*Service)

// WithServiceMetrics attaches a metrics instance. Default: [observe.Default].
func WithServiceMetrics(m *observe.Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClusterThreshold overrides the similarity threshold used when
// clustering historical terms during bootstrap. Values outside (0, 1] are
// ignored. Default: 0.75, the same value the [Normalizer] matches with.
func WithClusterThreshold(t float64) ServiceOption {
	return func(s *Service) {
		if t > 0 && t <= 1 {
			s.clusterThreshold = t
		}
	}
}

// withOpenFunc replaces the workbook opener. Tests use it to count and fail
// disk loads.
func withOpenFunc(open func(string) (*workbook.Workbook, error)) ServiceOption {
	return func(s *Service) {
		s.open = open
	}
}

// Service loads glossars from workbook files, caches them by modification
// time, bootstraps missing Glossar sheets from historical data, and merges
// glossars across the active file set.
//
// Load-shaped methods deliberately return nil instead of an error: glossar
// loading runs opportunistically at startup and on file-set changes, and a
// single unreadable file must never crash the batch caller. Failures are
// logged.
type Service struct {
	cache            *Cache
	backups          *backup.Manager
	metrics          *observe.Metrics
	clusterThreshold float64
	open             func(string) (*workbook.Workbook, error)
}

// NewService returns a [Service] using cache for memoisation and mgr for the
// pre-mutation backups the bootstrapper needs.
func NewService(cache *Cache, mgr *backup.Manager, opts ...ServiceOption) *Service {
	s := &Service{
		cache:            cache,
		backups:          mgr,
		metrics:          observe.Default(),
		clusterThreshold: defaultThreshold,
		open:             workbook.Open,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load returns the glossar stored in the workbook at path, or nil when the
// file has no Glossar sheet (a normal state for files not yet bootstrapped)
// or cannot be read. The result is cached keyed by path and the file's
// modification time; an unchanged file is never re-read.
func (s *Service) Load(ctx context.Context, path string) *Glossar {
	if err := logbook.ValidateFile(path); err != nil {
		slog.Debug("glossar: skipping invalid file", "path", path, "err", err)
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		slog.Debug("glossar: stat failed", "path", path, "err", err)
		return nil
	}

	if g, ok := s.cache.Get(path, info.ModTime()); ok {
		s.metrics.CountCache(ctx, true)
		return g
	}
	s.metrics.CountCache(ctx, false)

	wb, err := s.open(path)
	if err != nil {
		slog.Warn("glossar: workbook load failed", "path", path, "err", err)
		return nil
	}
	defer wb.Close()

	sheet, ok := wb.Sheet(glossarSheet)
	if !ok {
		return nil
	}

	g, err := readSheet(wb, sheet)
	if err != nil {
		slog.Warn("glossar: sheet read failed", "path", path, "sheet", sheet, "err", err)
		return nil
	}

	s.cache.Put(path, info.ModTime(), g)
	slog.Debug("glossar loaded", "path", path, "entries", len(g.Entries))
	return g
}

// readSheet parses the Glossar sheet rows into a [Glossar]. Rows missing a
// category or term are skipped; synonym fragments are trimmed and empties
// dropped.
func readSheet(wb *workbook.Workbook, sheet string) (*Glossar, error) {
	end, err := wb.LastRow(sheet)
	if err != nil {
		return nil, err
	}

	g := New()
	for row := 2; row <= end; row++ {
		category, err := wb.Cell(sheet, row, colCategory)
		if err != nil {
			return nil, err
		}
		term, err := wb.Cell(sheet, row, colTerm)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(category) == "" || strings.TrimSpace(term) == "" {
			continue
		}
		rawSyns, err := wb.Cell(sheet, row, colSynonyms)
		if err != nil {
			return nil, err
		}

		var synonyms []string
		for _, frag := range strings.Split(rawSyns, ",") {
			if frag = strings.TrimSpace(frag); frag != "" {
				synonyms = append(synonyms, frag)
			}
		}

		g.Add(Entry{
			Category: parseCategory(category),
			Term:     strings.TrimSpace(term),
			Synonyms: synonyms,
		})
	}
	return g, nil
}

// Ensure returns the glossar for path, bootstrapping one from historical
// Thema entries when the file has no Glossar sheet yet. Returns nil when
// both loading and bootstrapping fail.
func (s *Service) Ensure(ctx context.Context, path, clientName string) *Glossar {
	if g := s.Load(ctx, path); g != nil {
		return g
	}
	return s.Bootstrap(ctx, path, clientName)
}

// LoadAll loads the glossars of all paths concurrently and merges the
// successes in input order. Per-path failures are isolated — one bad file
// never stalls or fails the batch. Returns nil when paths is empty or every
// load failed.
func (s *Service) LoadAll(ctx context.Context, paths []string) *Glossar {
	if len(paths) == 0 {
		return nil
	}

	results := make([]*Glossar, len(paths))
	var eg errgroup.Group
	for i, path := range paths {
		i, path := i, path
		eg.Go(func() error {
			// Load never returns an error; failures yield a nil slot.
			results[i] = s.Load(ctx, path)
			return nil
		})
	}
	// Error is always nil by construction; Wait is for the join only.
	_ = eg.Wait()

	var loaded []*Glossar
	for _, g := range results {
		if g != nil {
			loaded = append(loaded, g)
		}
	}
	if len(loaded) == 0 {
		return nil
	}
	return Merge(loaded...)
}

// Invalidate drops the cached glossar for path.
func (s *Service) Invalidate(path string) {
	s.cache.Invalidate(path)
}

// ClearCache drops every cached glossar.
func (s *Service) ClearCache() {
	s.cache.Clear()
}
