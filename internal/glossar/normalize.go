package glossar

import (
	"context"

	"github.com/antzucaro/matchr"

	"github.com/mfalkner/sprachlog/internal/observe"
)

// defaultThreshold is the minimum normalized Levenshtein similarity for a
// fuzzy match to be accepted. Tuned against real dictation transcripts; the
// same value drives the bootstrapper's clustering.
const defaultThreshold = 0.75

// NormalizerOption is a functional option for configuring a [Normalizer].
type NormalizerOption func(*Normalizer)

// WithThreshold overrides the fuzzy-match similarity threshold.
// Values outside (0, 1] are ignored. Default: 0.75.
func WithThreshold(t float64) NormalizerOption {
	return func(n *Normalizer) {
		if t > 0 && t <= 1 {
			n.threshold = t
		}
	}
}

// WithNormalizerMetrics attaches a metrics instance.
// Default: [observe.Default].
func WithNormalizerMetrics(m *observe.Metrics) NormalizerOption {
	return func(n *Normalizer) {
		n.metrics = m
	}
}

// Normalizer maps arbitrary dictated text onto the closest known canonical
// term of a glossar. It is deterministic and side-effect free for a fixed
// glossar, and safe for concurrent use — it is on the hot path for every
// parsed activity's client and topic fields.
type Normalizer struct {
	threshold float64
	metrics   *observe.Metrics
}

// NewNormalizer returns a [Normalizer] configured with the supplied options.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		threshold: defaultThreshold,
		metrics:   observe.Default(),
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Normalize returns the canonical spelling of text according to g.
//
// An exact hit on the normalized lookup key wins. Otherwise every lookup key
// is scored with normalized Levenshtein similarity and the best-scoring
// canonical term is returned when it clears the threshold; score ties break
// to the lexicographically smaller key, keeping the result stable for a
// fixed glossar. When nothing
// clears it — or g is nil — the original text is returned unchanged:
// normalization is a safe no-op on unknown input, never destructive.
func (n *Normalizer) Normalize(ctx context.Context, text string, g *Glossar) string {
	if g == nil || len(g.Lookup) == 0 {
		return text
	}

	key := NormalizeKey(text)
	if term, ok := g.Lookup[key]; ok {
		n.metrics.CountDecision(ctx, "exact")
		return term
	}

	bestScore := 0.0
	bestKey := ""
	bestTerm := ""
	for candidate, term := range g.Lookup {
		s := Similarity(key, candidate)
		if s < bestScore {
			continue
		}
		// Equal scores resolve to the lexicographically smaller key so the
		// winner never depends on map iteration order.
		if s == bestScore && bestKey != "" && candidate >= bestKey {
			continue
		}
		bestScore = s
		bestKey = candidate
		bestTerm = term
	}
	if bestScore >= n.threshold && bestTerm != "" {
		n.metrics.CountDecision(ctx, "fuzzy")
		return bestTerm
	}

	n.metrics.CountDecision(ctx, "miss")
	return text
}

// Similarity is the normalized Levenshtein similarity of a and b:
// 1 - distance/max(len). Lengths are counted in runes so umlauts and other
// multi-byte characters weigh as single edits. Two empty strings compare as
// fully similar.
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1
	}
	dist := matchr.Levenshtein(a, b)
	return 1 - float64(dist)/float64(longest)
}
