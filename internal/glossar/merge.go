package glossar

// Merge combines glossars loaded from multiple workbook files into one new
// lookup space. Inputs are never mutated; nil inputs are skipped.
//
// Entries are concatenated in input order, category buckets are unioned, and
// lookup keys colliding across inputs resolve last-writer-wins: a synonym
// present in two source files maps to whichever file was merged last. Callers
// relying on a particular winner must order the inputs accordingly.
func Merge(glossars ...*Glossar) *Glossar {
	merged := New()
	for _, g := range glossars {
		if g == nil {
			continue
		}
		for _, e := range g.Entries {
			merged.Add(e)
		}
	}
	return merged
}
