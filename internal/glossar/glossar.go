// Package glossar maintains the canonical-term vocabulary that keeps
// voice-derived free text consistent across a growing set of client
// workbooks.
//
// A Glossar is built from a dedicated "Glossar" worksheet holding
// category/term/synonym rows. Loaded glossars are cached by file path and
// modification time, merged across active files into one lookup space, and
// queried by the [Normalizer] to map noisy dictated terms onto their
// canonical spellings. Files without a Glossar sheet are bootstrapped by
// clustering historical Thema entries (see [Service.Bootstrap]).
package glossar

import (
	"strings"
)

// Category is the closed set of vocabulary categories. The values are the
// German labels used in the worksheet's Kategorie column.
type Category string

const (
	// CategoryClient holds client names.
	CategoryClient Category = "Kunde"
	// CategoryTopic holds work-topic terms.
	CategoryTopic Category = "Thema"
	// CategoryContact holds contact-person names.
	CategoryContact Category = "Kontakt"
	// CategoryOther holds everything else.
	CategoryOther Category = "Sonstiges"
)

// Categories returns all categories in their fixed worksheet order.
func Categories() []Category {
	return []Category{CategoryClient, CategoryTopic, CategoryContact, CategoryOther}
}

// parseCategory maps a raw Kategorie cell value to a Category. Unknown labels
// fold into [CategoryOther] so a hand-edited sheet never loses rows.
func parseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kunde", "client":
		return CategoryClient
	case "thema", "topic":
		return CategoryTopic
	case "kontakt", "contact":
		return CategoryContact
	default:
		return CategoryOther
	}
}

// Entry is one canonical term with its alternate spellings. Every synonym,
// once normalized, maps to exactly one canonical term within a Glossar.
type Entry struct {
	Category Category
	// Term is the preferred spelling.
	Term string
	// Synonyms are alternate strings that all normalize to Term.
	Synonyms []string
}

// Glossar is a queryable index over [Entry] records.
//
// ByCategory always contains all four categories as keys, even when empty.
// Lookup maps the normalized form of every canonical term and every synonym
// to its canonical term.
type Glossar struct {
	Entries    []Entry
	ByCategory map[Category][]Entry
	Lookup     map[string]string
}

// New returns an empty Glossar with all category buckets pre-seeded.
func New() *Glossar {
	g := &Glossar{
		ByCategory: make(map[Category][]Entry, 4),
		Lookup:     make(map[string]string),
	}
	for _, c := range Categories() {
		g.ByCategory[c] = nil
	}
	return g
}

// Add appends e and indexes its term and synonyms into Lookup,
// overwriting colliding keys (last writer wins).
func (g *Glossar) Add(e Entry) {
	g.Entries = append(g.Entries, e)
	g.ByCategory[e.Category] = append(g.ByCategory[e.Category], e)
	g.Lookup[NormalizeKey(e.Term)] = e.Term
	for _, syn := range e.Synonyms {
		g.Lookup[NormalizeKey(syn)] = e.Term
	}
}

// NormalizeKey produces the lookup form of a term: lower-cased, trimmed,
// with internal whitespace runs collapsed to single spaces.
func NormalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Terms returns the canonical terms of all entries, in insertion order.
// Used by the intake pipeline as recognition hints for the STT provider.
func (g *Glossar) Terms() []string {
	terms := make([]string, 0, len(g.Entries))
	for _, e := range g.Entries {
		terms = append(terms, e.Term)
	}
	return terms
}
