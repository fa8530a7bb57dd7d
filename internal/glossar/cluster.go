package glossar

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/mfalkner/sprachlog/internal/logbook"
	"github.com/mfalkner/sprachlog/internal/workbook"
)

// Bootstrap mines the Thema column of every monthly sheet in the workbook at
// path, clusters near-duplicate entries into canonical terms with synonym
// lists, and writes the result as a new Glossar sheet. The client name is
// seeded as the first vocabulary row under Kunde.
//
// Bootstrapping is idempotent — an existing Glossar sheet short-circuits to
// [Service.Load] — and best-effort: any failure is logged and yields nil so
// that startup never crashes over one unreadable file. On success the cache
// entry for path is invalidated and a freshly loaded glossar is returned.
func (s *Service) Bootstrap(ctx context.Context, path, clientName string) *Glossar {
	if err := logbook.ValidateFile(path); err != nil {
		slog.Warn("glossar: bootstrap skipped, invalid file", "path", path, "err", err)
		return nil
	}

	// Backup before the workbook is mutated, same contract as activity writes.
	if _, err := s.backups.Create(path); err != nil {
		slog.Warn("glossar: bootstrap backup failed", "path", path, "err", err)
		return nil
	}

	wb, err := s.open(path)
	if err != nil {
		slog.Warn("glossar: bootstrap load failed", "path", path, "err", err)
		return nil
	}
	defer wb.Close()

	if _, ok := wb.Sheet(glossarSheet); ok {
		return s.Load(ctx, path)
	}

	terms, err := s.mineTopics(wb)
	if err != nil {
		slog.Warn("glossar: topic mining failed", "path", path, "err", err)
		return nil
	}

	clusters := clusterTerms(terms, s.clusterThreshold)

	if err := writeGlossarSheet(wb, clientName, clusters); err != nil {
		slog.Warn("glossar: sheet write failed", "path", path, "err", err)
		return nil
	}
	if err := wb.Save(path); err != nil {
		slog.Warn("glossar: bootstrap save failed", "path", path, "err", err)
		return nil
	}

	s.cache.Invalidate(path)
	slog.Info("glossar bootstrapped", "path", path, "client", clientName, "clusters", len(clusters))
	return s.Load(ctx, path)
}

// mineTopics collects every non-blank Thema cell from the data rows of all
// monthly sheets, duplicates included — occurrence counts drive the choice
// of cluster representatives.
func (s *Service) mineTopics(wb *workbook.Workbook) ([]string, error) {
	// Thema is column B of the monthly sheets.
	const topicCol = 2

	var terms []string
	for _, month := range logbook.MonthSheets() {
		sheet, ok := wb.Sheet(month)
		if !ok {
			continue
		}
		end, err := wb.LastRow(sheet)
		if err != nil {
			return nil, err
		}
		for row := logbook.DataStartRow; row <= end; row++ {
			topic, err := wb.Cell(sheet, row, topicCol)
			if err != nil {
				return nil, err
			}
			if topic = strings.TrimSpace(topic); topic != "" {
				terms = append(terms, topic)
			}
		}
	}
	return terms, nil
}

// cluster groups near-duplicate surface forms of one term.
type cluster struct {
	// forms holds the distinct surface forms in first-seen order.
	forms []string
	// counts tracks how often each surface form occurred.
	counts map[string]int
}

// matches reports whether form is similar enough to any surface form already
// in the cluster.
func (c *cluster) matches(form string, threshold float64) bool {
	key := NormalizeKey(form)
	for _, f := range c.forms {
		if Similarity(key, NormalizeKey(f)) >= threshold {
			return true
		}
	}
	return false
}

func (c *cluster) add(form string, count int) {
	if _, seen := c.counts[form]; !seen {
		c.forms = append(c.forms, form)
	}
	c.counts[form] = count
}

// representative picks the canonical spelling of the cluster: the surface
// form dictated most often, ties broken by longer string, then by
// lexicographic earliness. The most frequent and most complete-looking
// spelling wins.
func (c *cluster) representative() string {
	best := ""
	for _, f := range c.forms {
		if best == "" {
			best = f
			continue
		}
		switch {
		case c.counts[f] > c.counts[best]:
			best = f
		case c.counts[f] == c.counts[best] && len(f) > len(best):
			best = f
		case c.counts[f] == c.counts[best] && len(f) == len(best) && f < best:
			best = f
		}
	}
	return best
}

// synonyms returns all non-representative surface forms, sorted.
func (c *cluster) synonyms() []string {
	rep := c.representative()
	var syns []string
	for _, f := range c.forms {
		if f != rep {
			syns = append(syns, f)
		}
	}
	sort.Strings(syns)
	return syns
}

// clusterTerms groups raw terms by similarity. A term joins the first cluster
// whose representative or any accumulated synonym scores at or above
// threshold; otherwise it starts a new cluster.
func clusterTerms(terms []string, threshold float64) []*cluster {
	var clusters []*cluster

	// Distinct surface forms in first-seen order, with occurrence counts.
	counts := make(map[string]int, len(terms))
	var distinct []string
	for _, t := range terms {
		if counts[t] == 0 {
			distinct = append(distinct, t)
		}
		counts[t]++
	}

	for _, form := range distinct {
		placed := false
		for _, c := range clusters {
			if c.matches(form, threshold) {
				c.add(form, counts[form])
				placed = true
				break
			}
		}
		if !placed {
			c := &cluster{counts: make(map[string]int)}
			c.add(form, counts[form])
			clusters = append(clusters, c)
		}
	}
	return clusters
}

// writeGlossarSheet creates the Glossar sheet: a header row, one seed row for
// the client name under Kunde, then one Thema row per cluster, sorted by
// canonical term with synonyms comma-joined.
func writeGlossarSheet(wb *workbook.Workbook, clientName string, clusters []*cluster) error {
	if err := wb.AddSheet(glossarSheet); err != nil {
		return err
	}

	header := []string{"Kategorie", "Begriff", "Synonyme"}
	for col, h := range header {
		if err := wb.SetCell(glossarSheet, 1, col+1, workbook.Text(h)); err != nil {
			return err
		}
	}

	row := 2
	if strings.TrimSpace(clientName) != "" {
		if err := writeEntryRow(wb, row, string(CategoryClient), clientName, ""); err != nil {
			return err
		}
		row++
	}

	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].representative() < clusters[j].representative()
	})
	for _, c := range clusters {
		syns := strings.Join(c.synonyms(), ", ")
		if err := writeEntryRow(wb, row, string(CategoryTopic), c.representative(), syns); err != nil {
			return err
		}
		row++
	}
	return nil
}

func writeEntryRow(wb *workbook.Workbook, row int, category, term, synonyms string) error {
	if err := wb.SetCell(glossarSheet, row, colCategory, workbook.Text(category)); err != nil {
		return err
	}
	if err := wb.SetCell(glossarSheet, row, colTerm, workbook.Text(term)); err != nil {
		return err
	}
	if synonyms == "" {
		return nil
	}
	return wb.SetCell(glossarSheet, row, colSynonyms, workbook.Text(synonyms))
}
