package glossar_test

import (
	"testing"

	"github.com/mfalkner/sprachlog/internal/glossar"
)

func TestMerge_CombinesEntries(t *testing.T) {
	t.Parallel()

	a := testGlossar(
		glossar.Entry{Category: glossar.CategoryClient, Term: "ACME GmbH"},
		glossar.Entry{Category: glossar.CategoryTopic, Term: "Wartung"},
	)
	b := testGlossar(
		glossar.Entry{Category: glossar.CategoryTopic, Term: "Meeting"},
	)

	m := glossar.Merge(a, b)
	if got, want := len(m.Entries), 3; got != want {
		t.Fatalf("merged entries = %d, want %d", got, want)
	}
	if got, want := len(m.ByCategory[glossar.CategoryTopic]), 2; got != want {
		t.Errorf("Thema entries = %d, want %d", got, want)
	}
	if term, ok := m.Lookup["acme gmbh"]; !ok || term != "ACME GmbH" {
		t.Errorf("Lookup[acme gmbh] = %q, %v; want %q, true", term, ok, "ACME GmbH")
	}
}

func TestMerge_LastWriterWinsOnCollision(t *testing.T) {
	t.Parallel()

	a := testGlossar(
		glossar.Entry{Category: glossar.CategoryTopic, Term: "Abnahme", Synonyms: []string{"Review"}},
	)
	b := testGlossar(
		glossar.Entry{Category: glossar.CategoryTopic, Term: "Code-Review", Synonyms: []string{"Review"}},
	)

	// The synonym "review" collides; the later glossar's canonical term wins.
	m := glossar.Merge(a, b)
	if term := m.Lookup["review"]; term != "Code-Review" {
		t.Errorf("Lookup[review] = %q, want %q", term, "Code-Review")
	}

	// Reversed order flips the winner.
	m = glossar.Merge(b, a)
	if term := m.Lookup["review"]; term != "Abnahme" {
		t.Errorf("Lookup[review] = %q, want %q", term, "Abnahme")
	}
}

func TestMerge_SkipsNil(t *testing.T) {
	t.Parallel()

	a := testGlossar(
		glossar.Entry{Category: glossar.CategoryClient, Term: "ACME GmbH"},
	)

	m := glossar.Merge(nil, a, nil)
	if got, want := len(m.Entries), 1; got != want {
		t.Errorf("merged entries = %d, want %d", got, want)
	}
}

func TestMerge_EmptyProducesEmptyGlossar(t *testing.T) {
	t.Parallel()

	m := glossar.Merge()
	if m == nil {
		t.Fatal("Merge() = nil, want empty glossar")
	}
	if len(m.Entries) != 0 {
		t.Errorf("entries = %d, want 0", len(m.Entries))
	}
	for _, c := range glossar.Categories() {
		if _, ok := m.ByCategory[c]; !ok {
			t.Errorf("ByCategory missing bucket %q", c)
		}
	}
}
