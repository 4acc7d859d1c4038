package search

import (
	"math"

	"github.com/nordveil/shopsearch/internal/domain/search"
)

// Normalize clips a raw relevance score into [0, 1]. Engine text scores are
// unbounded above and cosine similarity can drift outside the unit range, so
// every scored hit passes through here before leaving the router.
func Normalize(raw float64) float64 {
	return math.Max(0, math.Min(raw, 1))
}

func normalizeHits(hits []search.Hit) []search.Hit {
	for i := range hits {
		if score, ok := hits[i].Score(); ok {
			hits[i] = search.NewScored(hits[i].Product(), Normalize(score))
		}
	}
	return hits
}
